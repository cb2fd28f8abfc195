package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/pairpoints/internal/adapter/http/dto"
	"github.com/iho/pairpoints/internal/usecase"
)

// TimeoutHandler handles timeout HTTP requests.
type TimeoutHandler struct {
	timeoutUC *usecase.TimeoutUseCase
}

// NewTimeoutHandler creates a new TimeoutHandler.
func NewTimeoutHandler(timeoutUC *usecase.TimeoutUseCase) *TimeoutHandler {
	return &TimeoutHandler{timeoutUC: timeoutUC}
}

// Request starts a cooldown for a connection.
func (h *TimeoutHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestTimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	timeout, err := h.timeoutUC.RequestTimeout(r.Context(), req.UserID, req.ConnectionID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to request timeout", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TimeoutFromDomain(timeout, time.Now().UTC()))
}

// Status reports whether transactions are disabled for a connection and how
// long the cooldown has left.
func (h *TimeoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "id")
	if connectionID == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	disabled, remaining, err := h.timeoutUC.Status(r.Context(), connectionID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get timeout status", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TimeoutStatusResponse{
		ConnectionID:         connectionID,
		TransactionsDisabled: disabled,
		RemainingSeconds:     int64(remaining.Seconds()),
	})
}

// Allowance reports whether an account may still request a timeout today.
func (h *TimeoutHandler) Allowance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	available, nextAt, err := h.timeoutUC.Allowance(r.Context(), userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get timeout allowance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AllowanceResponse{
		AccountID:       userID,
		Available:       available,
		NextAllowanceAt: nextAt,
	})
}

// ListByUser lists timeouts requested by a user.
func (h *TimeoutHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	timeouts, err := h.timeoutUC.ListTimeouts(r.Context(), userID,
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list timeouts", err.Error())
		return
	}

	now := time.Now().UTC()
	out := make([]dto.TimeoutResponse, 0, len(timeouts))
	for _, t := range timeouts {
		out = append(out, dto.TimeoutFromDomain(t, now))
	}

	writeJSON(w, http.StatusOK, out)
}
