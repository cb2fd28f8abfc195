package domain

import "time"

// TransactionKind tags the sign of a point transfer.
type TransactionKind string

const (
	KindGive   TransactionKind = "GIVE"
	KindDeduct TransactionKind = "DEDUCT"
)

// Point range limits per kind. GIVE carries positive points, DEDUCT negative.
const (
	MinPointsPerTransfer = 1
	MaxPointsPerTransfer = 10
	MaxMessageLength     = 200
)

// Transaction is one immutable signed point mutation between the two members
// of a connection. Append-only: the durable audit trail and the sole source
// of balance truth.
type Transaction struct {
	ID           string
	SenderID     string
	ReceiverID   string
	Points       int64
	Kind         TransactionKind
	Message      *string
	ConnectionID string
	CreatedAt    time.Time
}

// ValidatePoints checks that points fall in the kind-specific range.
func (k TransactionKind) ValidatePoints(points int64) error {
	switch k {
	case KindGive:
		if points < MinPointsPerTransfer || points > MaxPointsPerTransfer {
			return ErrPointsOutOfRange
		}
	case KindDeduct:
		if points < -MaxPointsPerTransfer || points > -MinPointsPerTransfer {
			return ErrPointsOutOfRange
		}
	default:
		return ErrInvalidKind
	}

	return nil
}

// Validate validates the transaction before persistence.
func (t *Transaction) Validate() error {
	if t.SenderID == t.ReceiverID {
		return ErrSameAccount
	}

	if err := t.Kind.ValidatePoints(t.Points); err != nil {
		return err
	}

	if t.Message != nil && len([]rune(*t.Message)) > MaxMessageLength {
		return ErrMessageTooLong
	}

	return nil
}
