package postgres

import (
	"context"
	"errors"
	"net"
	"time"

	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/pairpoints/internal/domain"
)

// PostgreSQL error codes the adapters classify.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
	pgErrClassConnection      = "08" // connection exception class
)

// Retrier implements usecase.Retrier with exponential backoff. Only
// transient store failures are retried; business-rule and validation errors
// pass through on first occurrence. An exhausted budget surfaces
// domain.ErrStoreUnavailable wrapping the last failure.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          *slog.Logger
	onRetry         func()
}

// NewRetrier creates a new PostgreSQL retrier with default settings.
func NewRetrier() *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          slog.Default(),
	}
}

// WithOnRetry sets a hook invoked once per retry, used for metrics.
func (r *Retrier) WithOnRetry(fn func()) *Retrier {
	r.onRetry = fn
	return r
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	var lastTransient error

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		lastTransient = err

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		if r.onRetry != nil {
			r.onRetry()
		}

		r.logger.Warn("retryable store error, retrying",
			"error", err,
			"retry", retryCount,
		)

		return err
	}, backoff.WithContext(b, ctx))

	if err != nil && lastTransient != nil && errors.Is(err, lastTransient) {
		return errors.Join(domain.ErrStoreUnavailable, err)
	}

	return err
}

// isRetryableError checks whether a store error should trigger a retry:
// optimistic collisions (deadlock, serialization failure) and connectivity
// failures. Everything else is permanent.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}

		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgErrClassConnection {
			return true
		}

		return false
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
