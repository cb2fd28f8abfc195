package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a store
	// transaction. Prevents long-running transactions from holding row locks.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
