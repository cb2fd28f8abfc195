package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/pairpoints/internal/adapter/http/dto"
	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
	"github.com/iho/pairpoints/internal/usecase/mocks"
)

func newTestTransferHandler(t *testing.T) (*TransferHandler, *mocks.MockTimeoutGuard) {
	t.Helper()

	accRepo := mocks.NewMockAccountRepository()
	connRepo := mocks.NewMockConnectionRepository()
	guard := &mocks.MockTimeoutGuard{}

	accRepo.Seed(
		&domain.Account{ID: "acc-1", DisplayName: "Alice"},
		&domain.Account{ID: "acc-2", DisplayName: "Bob"},
	)
	connRepo.Seed(&domain.Connection{
		ID:         "conn-1",
		AccountAID: "acc-1",
		AccountBID: "acc-2",
		Active:     true,
	})

	uc := usecase.NewLedgerUseCase(
		&mocks.MockTransactionManager{},
		accRepo,
		connRepo,
		mocks.NewMockTransactionRepository(),
		guard,
		&mocks.MockIDGenerator{},
		&mocks.MockRetrier{},
		&mocks.MockNotifier{},
		&mocks.MockPublisher{},
		nil,
	)

	return NewTransferHandler(uc), guard
}

func postTransfer(t *testing.T, h *TransferHandler, req dto.CreateTransferRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, httpReq)

	return rec
}

func TestTransferHandler_Create(t *testing.T) {
	t.Run("successful give", func(t *testing.T) {
		h, _ := newTestTransferHandler(t)

		rec := postTransfer(t, h, dto.CreateTransferRequest{
			SenderID:     "acc-1",
			ReceiverID:   "acc-2",
			Points:       5,
			Kind:         "GIVE",
			ConnectionID: "conn-1",
		})

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp dto.TransactionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Points != 5 || resp.Kind != "GIVE" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		h, _ := newTestTransferHandler(t)

		rec := postTransfer(t, h, dto.CreateTransferRequest{
			SenderID:     "acc-1",
			ReceiverID:   "acc-2",
			Points:       5,
			Kind:         "LEND",
			ConnectionID: "conn-1",
		})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("points out of range rejected", func(t *testing.T) {
		h, _ := newTestTransferHandler(t)

		rec := postTransfer(t, h, dto.CreateTransferRequest{
			SenderID:     "acc-1",
			ReceiverID:   "acc-2",
			Points:       0,
			Kind:         "DEDUCT",
			ConnectionID: "conn-1",
		})

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("frozen connection returns conflict", func(t *testing.T) {
		h, guard := newTestTransferHandler(t)
		guard.Disabled = true

		rec := postTransfer(t, h, dto.CreateTransferRequest{
			SenderID:     "acc-1",
			ReceiverID:   "acc-2",
			Points:       5,
			Kind:         "GIVE",
			ConnectionID: "conn-1",
		})

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		var resp dto.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Retryable {
			t.Fatal("business-rule rejection must not advertise a retry")
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		h, _ := newTestTransferHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
