package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/pairpoints/internal/adapter/http/dto"
	"github.com/iho/pairpoints/internal/usecase"
)

// AccountHandler handles account and connection HTTP requests.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC *usecase.AccountUseCase) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create registers a new account and returns its pairing code.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), usecase.CreateAccountInput{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create account", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get returns an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Pair links two accounts into a connection using the partner's pairing code.
func (h *AccountHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	partner, err := h.accountUC.GetAccountByPairingCode(r.Context(), req.PairingCode)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to resolve pairing code", err.Error())

		return
	}

	conn, err := h.accountUC.RegisterConnection(r.Context(), req.AccountID, partner.ID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to register connection", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.ConnectionFromDomain(conn))
}

// GetConnection returns a connection by ID.
func (h *AccountHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing connection ID", "")
		return
	}

	conn, err := h.accountUC.GetConnection(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get connection", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ConnectionFromDomain(conn))
}

// Consistency recomputes every account balance from the transaction log and
// reports mismatches.
func (h *AccountHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	results, consistent, err := h.accountUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponseFromResults(results, consistent))
}
