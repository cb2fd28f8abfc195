package dto

import (
	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

// CreateTransferRequest represents a transfer creation request.
type CreateTransferRequest struct {
	SenderID     string  `json:"sender_id"`
	ReceiverID   string  `json:"receiver_id"`
	Points       int64   `json:"points"`
	Kind         string  `json:"kind"`
	Message      *string `json:"message,omitempty"`
	ConnectionID string  `json:"connection_id"`
}

// ToUseCaseInput converts the request to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.ApplyTransferInput, error) {
	kind := domain.TransactionKind(r.Kind)
	if kind != domain.KindGive && kind != domain.KindDeduct {
		return usecase.ApplyTransferInput{}, domain.ErrInvalidKind
	}

	return usecase.ApplyTransferInput{
		SenderID:     r.SenderID,
		ReceiverID:   r.ReceiverID,
		Points:       r.Points,
		Kind:         kind,
		Message:      r.Message,
		ConnectionID: r.ConnectionID,
	}, nil
}

// RequestTimeoutRequest represents a timeout request.
type RequestTimeoutRequest struct {
	UserID       string `json:"user_id"`
	ConnectionID string `json:"connection_id"`
}

// CreateAccountRequest represents an account creation request.
type CreateAccountRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterConnectionRequest pairs an account with the partner that owns the
// given pairing code.
type RegisterConnectionRequest struct {
	AccountID   string `json:"account_id"`
	PairingCode string `json:"pairing_code"`
}
