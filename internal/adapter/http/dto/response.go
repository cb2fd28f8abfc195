package dto

import (
	"time"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// Retryable tells the caller whether a retry affordance makes sense, as
	// opposed to a terminal explanation.
	Retryable bool `json:"retryable"`
}

// AccountResponse represents an account in responses.
type AccountResponse struct {
	ID                string     `json:"id"`
	DisplayName       string     `json:"display_name"`
	Balance           int64      `json:"balance"`
	PairingCode       string     `json:"pairing_code"`
	PartnerID         *string    `json:"partner_id,omitempty"`
	LastTimeoutUsedAt *time.Time `json:"last_timeout_used_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:                a.ID,
		DisplayName:       a.DisplayName,
		Balance:           a.Balance,
		PairingCode:       a.PairingCode,
		PartnerID:         a.PartnerID,
		LastTimeoutUsedAt: a.LastTimeoutUsedAt,
		CreatedAt:         a.CreatedAt,
	}
}

// ConnectionResponse represents a connection in responses.
type ConnectionResponse struct {
	ID         string    `json:"id"`
	AccountAID string    `json:"account_a_id"`
	AccountBID string    `json:"account_b_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConnectionFromDomain converts a domain connection.
func ConnectionFromDomain(c *domain.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:         c.ID,
		AccountAID: c.AccountAID,
		AccountBID: c.AccountBID,
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
	}
}

// TransactionResponse represents a transaction in responses.
type TransactionResponse struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	ReceiverID   string    `json:"receiver_id"`
	Points       int64     `json:"points"`
	Kind         string    `json:"kind"`
	Message      *string   `json:"message,omitempty"`
	ConnectionID string    `json:"connection_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		SenderID:     t.SenderID,
		ReceiverID:   t.ReceiverID,
		Points:       t.Points,
		Kind:         string(t.Kind),
		Message:      t.Message,
		ConnectionID: t.ConnectionID,
		CreatedAt:    t.CreatedAt,
	}
}

// TransactionsFromDomain converts a slice of domain transactions.
func TransactionsFromDomain(txns []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, TransactionFromDomain(t))
	}

	return out
}

// TimeoutResponse represents a timeout in responses.
type TimeoutResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ConnectionID     string    `json:"connection_id"`
	StartedAt        time.Time `json:"started_at"`
	DurationSeconds  int64     `json:"duration_seconds"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Active           bool      `json:"active"`
}

// TimeoutFromDomain converts a domain timeout, deriving remaining time at
// now.
func TimeoutFromDomain(t *domain.Timeout, now time.Time) TimeoutResponse {
	return TimeoutResponse{
		ID:               t.ID,
		UserID:           t.UserID,
		ConnectionID:     t.ConnectionID,
		StartedAt:        t.StartedAt,
		DurationSeconds:  int64(domain.TimeoutDuration.Seconds()),
		RemainingSeconds: int64(domain.Remaining(now, t.StartedAt).Seconds()),
		Active:           t.InEffect(now),
	}
}

// TimeoutStatusResponse is the live transfer-freeze status of a connection.
type TimeoutStatusResponse struct {
	ConnectionID         string `json:"connection_id"`
	TransactionsDisabled bool   `json:"transactions_disabled"`
	RemainingSeconds     int64  `json:"remaining_seconds"`
}

// AllowanceResponse reports an account's daily timeout allowance.
type AllowanceResponse struct {
	AccountID       string    `json:"account_id"`
	Available       bool      `json:"available"`
	NextAllowanceAt time.Time `json:"next_allowance_at"`
}

// ConsistencyResponse reports the outcome of a full ledger consistency check.
type ConsistencyResponse struct {
	Consistent bool                        `json:"consistent"`
	Mismatches []*usecase.ConsistencyResult `json:"mismatches"`
}

// ConsistencyResponseFromResults keeps only the mismatching accounts.
func ConsistencyResponseFromResults(results []*usecase.ConsistencyResult, consistent bool) ConsistencyResponse {
	mismatches := make([]*usecase.ConsistencyResult, 0)
	for _, r := range results {
		if !r.Consistent {
			mismatches = append(mismatches, r)
		}
	}

	return ConsistencyResponse{Consistent: consistent, Mismatches: mismatches}
}
