package usecase

import (
	"context"
	"time"

	"github.com/iho/pairpoints/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByPairingCode(ctx context.Context, code string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
	UpdateLastTimeoutUsed(ctx context.Context, tx Transaction, id string, usedAt time.Time) error
	SetPartner(ctx context.Context, tx Transaction, id, partnerID string, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// ConnectionRepository defines data access for connections.
type ConnectionRepository interface {
	Create(ctx context.Context, tx Transaction, conn *domain.Connection) error
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	GetActiveByAccount(ctx context.Context, accountID string) (*domain.Connection, error)
}

// TransactionRepository defines data access for point transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByConnection(ctx context.Context, connectionID string, limit, offset int) ([]*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	// SumPointsForAccount is the source-of-truth balance: the sum of signed
	// points of all transactions naming the account as receiver.
	SumPointsForAccount(ctx context.Context, accountID string) (int64, error)
}

// TimeoutRepository defines data access for timeouts.
type TimeoutRepository interface {
	Create(ctx context.Context, tx Transaction, timeout *domain.Timeout) error
	GetByID(ctx context.Context, id string) (*domain.Timeout, error)
	// GetActiveByConnection returns the active=true row for the connection,
	// which may already be past its deadline, or domain.ErrTimeoutNotFound.
	GetActiveByConnection(ctx context.Context, connectionID string) (*domain.Timeout, error)
	GetActiveByConnectionForUpdate(ctx context.Context, tx Transaction, connectionID string) (*domain.Timeout, error)
	// Deactivate flips active to false iff the deadline has passed. Safe to
	// race: returns true only for the call that performed the flip.
	Deactivate(ctx context.Context, id string, now time.Time) (bool, error)
	DeactivateTx(ctx context.Context, tx Transaction, id string, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Timeout, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles store transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-attempts an operation on transient store failures with
// exponential backoff; permanent errors pass through on first occurrence.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Notifier is the external notification collaborator. Fire-and-forget:
// implementations must never block the caller or surface a failure.
type Notifier interface {
	Notify(ctx context.Context, accountID, kind string, payload any)
}

// Publisher publishes record snapshots on the change stream, keyed by topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, snapshot any) error
}

// TimeoutGuard is the narrow view of the timeout coordinator the ledger
// consults before a transfer.
type TimeoutGuard interface {
	TransactionsDisabled(ctx context.Context, connectionID string) (bool, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
