package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrPairingCodeTaken   = errors.New("pairing code already in use")
	ErrNotPaired          = errors.New("account has no active connection")

	// Connection errors
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrConnectionInactive  = errors.New("connection is not active")
	ErrNotConnectionMember = errors.New("account is not a member of this connection")

	// Transaction errors
	ErrSameAccount         = errors.New("cannot transfer points to the same account")
	ErrPointsOutOfRange    = errors.New("points outside the allowed range for this kind")
	ErrMessageTooLong      = errors.New("message exceeds maximum length")
	ErrInvalidKind         = errors.New("unknown transaction kind")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Timeout errors
	ErrTimeoutActive        = errors.New("transactions are disabled while a timeout is active")
	ErrTimeoutAlreadyActive = errors.New("connection already has an active timeout")
	ErrDailyLimitExceeded   = errors.New("timeout already requested today")
	ErrTimeoutNotFound      = errors.New("timeout not found")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable after retries")
)

// ErrorKind classifies every error the core can surface. The set is closed:
// callers switch over it to decide between a retry affordance and a terminal
// message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindPermission
	KindBusinessRule
	KindTransient
)

// KindOf maps an error to its kind. Wrapped errors are matched via errors.Is,
// so classification survives fmt.Errorf("%w", ...) chains.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrPointsOutOfRange),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrInvalidDisplayName):
		return KindValidation
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrConnectionNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrTimeoutNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken):
		return KindPermission
	case errors.Is(err, ErrTimeoutActive),
		errors.Is(err, ErrTimeoutAlreadyActive),
		errors.Is(err, ErrDailyLimitExceeded),
		errors.Is(err, ErrNotPaired),
		errors.Is(err, ErrConnectionInactive),
		errors.Is(err, ErrNotConnectionMember):
		return KindBusinessRule
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrPairingCodeTaken):
		return KindTransient
	default:
		return KindUnknown
	}
}

// Retryable reports whether an error is worth re-attempting from the
// caller's side. Business-rule rejections and validation failures are
// terminal; only transient store failures qualify.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}
