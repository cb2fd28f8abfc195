package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/pairpoints/internal/domain"
)

// AccountUseCase handles account records and the ledger-wide consistency
// check. Sign-in and the pairing flow live outside this service; pairing
// input arriving through RegisterConnection is trusted.
type AccountUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	connectionRepo  ConnectionRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	connectionRepo ConnectionRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		connectionRepo:  connectionRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	DisplayName string
}

// pairingCodeAttempts bounds regeneration when a freshly minted pairing code
// collides with an existing account's.
const pairingCodeAttempts = 3

// CreateAccount creates an account with a zero balance and a fresh pairing
// code. A code collision at the store mints a new code and retries.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name required", domain.ErrInvalidDisplayName)
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		DisplayName: input.DisplayName,
		Balance:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < pairingCodeAttempts; attempt++ {
		account.PairingCode = domain.NewPairingCode()

		err = uc.accountRepo.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, domain.ErrPairingCodeTaken) {
			return nil, err
		}
	}

	return nil, err
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByPairingCode resolves a pairing code to its account. Consumed by
// the external pairing service.
func (uc *AccountUseCase) GetAccountByPairingCode(ctx context.Context, code string) (*domain.Account, error) {
	if !domain.ValidPairingCode(code) {
		return nil, domain.ErrAccountNotFound
	}

	return uc.accountRepo.GetByPairingCode(ctx, code)
}

// RegisterConnection records a pairing produced by the external pairing
// service: creates the connection and sets both partner references in one
// store transaction. The member ids are trusted input.
func (uc *AccountUseCase) RegisterConnection(ctx context.Context, accountAID, accountBID string) (*domain.Connection, error) {
	conn := &domain.Connection{
		ID:         uc.idGen.Generate(),
		AccountAID: accountAID,
		AccountBID: accountBID,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := conn.CreatedAt

	if err := uc.connectionRepo.Create(txCtx, tx, conn); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.SetPartner(txCtx, tx, accountAID, accountBID, now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.SetPartner(txCtx, tx, accountBID, accountAID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return conn, nil
}

// GetConnection retrieves a connection by ID.
func (uc *AccountUseCase) GetConnection(ctx context.Context, id string) (*domain.Connection, error) {
	return uc.connectionRepo.GetByID(ctx, id)
}

// ConsistencyResult reports one account's cached balance against the sum of
// its transaction log, the system's core consistency check.
type ConsistencyResult struct {
	AccountID         string `json:"account_id"`
	CachedBalance     int64  `json:"cached_balance"`
	ComputedBalance   int64  `json:"computed_balance"`
	Consistent        bool   `json:"consistent"`
	CheckedAtUnixNano int64  `json:"checked_at_unix_nano"`
}

// CheckConsistency recomputes every account balance from the transaction log
// and compares it with the cached value.
func (uc *AccountUseCase) CheckConsistency(ctx context.Context) ([]*ConsistencyResult, bool, error) {
	const pageSize = 500

	consistent := true

	var results []*ConsistencyResult

	for offset := 0; ; offset += pageSize {
		accounts, err := uc.accountRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, false, err
		}

		for _, account := range accounts {
			computed, err := uc.transactionRepo.SumPointsForAccount(ctx, account.ID)
			if err != nil {
				return nil, false, fmt.Errorf("sum points for %s: %w", account.ID, err)
			}

			result := &ConsistencyResult{
				AccountID:         account.ID,
				CachedBalance:     account.Balance,
				ComputedBalance:   computed,
				Consistent:        account.Balance == computed,
				CheckedAtUnixNano: time.Now().UnixNano(),
			}
			if !result.Consistent {
				consistent = false
			}

			results = append(results, result)
		}

		if len(accounts) < pageSize {
			break
		}
	}

	return results, consistent, nil
}
