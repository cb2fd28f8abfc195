package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/infrastructure/metrics"
)

// TimeoutUseCase coordinates the per-connection cooldown state machine:
// IDLE -> ACTIVE on a successful request, ACTIVE -> IDLE automatically once
// the deadline passes. Expiry is computed from stored data on every
// observation; no background timer exists.
type TimeoutUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	connRepo    ConnectionRepository
	timeoutRepo TimeoutRepository
	idGen       IDGenerator
	retrier     Retrier
	notifier    Notifier
	publisher   Publisher
	cache       Cache
	location    *time.Location
	metrics     *metrics.Metrics
}

// NewTimeoutUseCase creates a new TimeoutUseCase. location sets the
// local-midnight boundary for the daily allowance; cache is optional.
func NewTimeoutUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	connRepo ConnectionRepository,
	timeoutRepo TimeoutRepository,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	publisher Publisher,
	cache Cache,
	location *time.Location,
	metrics *metrics.Metrics,
) *TimeoutUseCase {
	if location == nil {
		location = time.Local
	}

	return &TimeoutUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		connRepo:    connRepo,
		timeoutRepo: timeoutRepo,
		idGen:       idGen,
		retrier:     retrier,
		notifier:    notifier,
		publisher:   publisher,
		cache:       cache,
		location:    location,
		metrics:     metrics,
	}
}

// RequestTimeout starts a cooldown for the connection on behalf of userID.
// Fails without side effects on an exhausted daily allowance or an already
// active timeout.
func (uc *TimeoutUseCase) RequestTimeout(ctx context.Context, userID, connectionID string) (*domain.Timeout, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if !conn.Active {
		return nil, domain.ErrConnectionInactive
	}

	if !conn.HasMember(userID) {
		return nil, domain.ErrNotConnectionMember
	}

	var timeout *domain.Timeout

	err = uc.retrier.Retry(ctx, func() error {
		var createErr error
		timeout, createErr = uc.create(ctx, userID, connectionID)
		return createErr
	})
	if err != nil {
		uc.countDenied(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TimeoutsRequested.Inc()
	}

	uc.notifier.Notify(ctx, conn.PartnerOf(userID), domain.NotifyTimeoutStarted, domain.TimeoutStartedPayload{
		TimeoutID:       timeout.ID,
		RequestedBy:     userID,
		ConnectionID:    connectionID,
		DurationSeconds: int64(domain.TimeoutDuration.Seconds()),
	})
	uc.publish(ctx, domain.ConnectionTimeoutTopic(connectionID), timeout)
	uc.cachePut(ctx, timeout)

	return timeout, nil
}

func (uc *TimeoutUseCase) create(ctx context.Context, userID, connectionID string) (*domain.Timeout, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock the requester's row so concurrent requests from the same account
	// serialize on the allowance check.
	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if !domain.CanRequestTimeout(account.LastTimeoutUsedAt, now, uc.location) {
		return nil, domain.ErrDailyLimitExceeded
	}

	existing, err := uc.timeoutRepo.GetActiveByConnectionForUpdate(txCtx, tx, connectionID)
	switch {
	case err == nil:
		if existing.InEffect(now) {
			return nil, domain.ErrTimeoutAlreadyActive
		}
		// Stale active row past its deadline: flip it here so the store's
		// one-active-per-connection constraint admits the new timeout.
		if _, err := uc.timeoutRepo.DeactivateTx(txCtx, tx, existing.ID, now); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrTimeoutNotFound):
		// IDLE, proceed.
	default:
		return nil, err
	}

	timeout := &domain.Timeout{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		ConnectionID: connectionID,
		StartedAt:    now,
		Active:       true,
		CreatedAt:    now,
	}

	if err := uc.timeoutRepo.Create(txCtx, tx, timeout); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateLastTimeoutUsed(txCtx, tx, userID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return timeout, nil
}

// ActiveTimeout returns the connection's timeout while it is in effect,
// performing the lazy expiry flip when the stored row is past its deadline.
// Returns domain.ErrTimeoutNotFound when the connection is IDLE.
func (uc *TimeoutUseCase) ActiveTimeout(ctx context.Context, connectionID string) (*domain.Timeout, error) {
	now := time.Now().UTC()

	// Cache fast path. Safe because an active timeout is immutable until its
	// deadline; entries carry a TTL capped at the remaining cooldown, and
	// absence always falls through to the store.
	if cached, ok := uc.cacheGet(ctx, connectionID); ok {
		if cached.InEffect(now) {
			return cached, nil
		}
		uc.cacheDrop(ctx, connectionID)
	}

	timeout, err := uc.timeoutRepo.GetActiveByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if !timeout.Expired(now) {
		uc.cachePut(ctx, timeout)
		return timeout, nil
	}

	uc.expire(ctx, timeout, now)

	return nil, domain.ErrTimeoutNotFound
}

// TransactionsDisabled reports whether a timeout is in effect for the
// connection. This is the value the ledger's guard consults.
func (uc *TimeoutUseCase) TransactionsDisabled(ctx context.Context, connectionID string) (bool, error) {
	_, err := uc.ActiveTimeout(ctx, connectionID)
	if errors.Is(err, domain.ErrTimeoutNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Status returns the disabled flag together with the remaining cooldown for
// display.
func (uc *TimeoutUseCase) Status(ctx context.Context, connectionID string) (bool, time.Duration, error) {
	timeout, err := uc.ActiveTimeout(ctx, connectionID)
	if errors.Is(err, domain.ErrTimeoutNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	return true, domain.Remaining(time.Now().UTC(), timeout.StartedAt), nil
}

// expire flips a past-deadline timeout to inactive. Idempotent and safe to
// race: only the observer whose update took effect emits notifications.
func (uc *TimeoutUseCase) expire(ctx context.Context, timeout *domain.Timeout, now time.Time) {
	flipped, err := uc.timeoutRepo.Deactivate(ctx, timeout.ID, now)
	if err != nil {
		slog.Warn("timeout expiry flip failed", "timeout_id", timeout.ID, "error", err)
		return
	}

	if !flipped {
		return
	}

	if uc.metrics != nil {
		uc.metrics.TimeoutsExpired.Inc()
	}

	conn, err := uc.connRepo.GetByID(ctx, timeout.ConnectionID)
	if err != nil {
		slog.Warn("expired timeout connection lookup failed", "connection_id", timeout.ConnectionID, "error", err)
		return
	}

	payload := domain.TimeoutExpiredPayload{
		TimeoutID:    timeout.ID,
		ConnectionID: timeout.ConnectionID,
	}
	uc.notifier.Notify(ctx, conn.AccountAID, domain.NotifyTimeoutExpired, payload)
	uc.notifier.Notify(ctx, conn.AccountBID, domain.NotifyTimeoutExpired, payload)
	uc.publish(ctx, domain.ConnectionTimeoutTopic(timeout.ConnectionID), payload)
}

func timeoutCacheKey(connectionID string) string {
	return "timeout:" + connectionID
}

func (uc *TimeoutUseCase) cacheGet(ctx context.Context, connectionID string) (*domain.Timeout, bool) {
	if uc.cache == nil {
		return nil, false
	}

	raw, err := uc.cache.Get(ctx, timeoutCacheKey(connectionID))
	if err != nil || raw == "" {
		return nil, false
	}

	var timeout domain.Timeout
	if err := json.Unmarshal([]byte(raw), &timeout); err != nil {
		return nil, false
	}

	return &timeout, true
}

func (uc *TimeoutUseCase) cachePut(ctx context.Context, timeout *domain.Timeout) {
	if uc.cache == nil {
		return
	}

	ttl := domain.Remaining(time.Now().UTC(), timeout.StartedAt)
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(timeout)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, timeoutCacheKey(timeout.ConnectionID), string(raw), ttl); err != nil {
		slog.Debug("timeout cache set failed", "connection_id", timeout.ConnectionID, "error", err)
	}
}

func (uc *TimeoutUseCase) cacheDrop(ctx context.Context, connectionID string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, timeoutCacheKey(connectionID)); err != nil {
		slog.Debug("timeout cache delete failed", "connection_id", connectionID, "error", err)
	}
}

func (uc *TimeoutUseCase) publish(ctx context.Context, topic string, snapshot any) {
	if uc.publisher == nil {
		return
	}

	if err := uc.publisher.Publish(ctx, topic, snapshot); err != nil {
		slog.Warn("change stream publish failed", "topic", topic, "error", err)
	}
}

func (uc *TimeoutUseCase) countDenied(err error) {
	if uc.metrics == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		uc.metrics.TimeoutsDenied.WithLabelValues("daily_limit").Inc()
	case errors.Is(err, domain.ErrTimeoutAlreadyActive):
		uc.metrics.TimeoutsDenied.WithLabelValues("already_active").Inc()
	}
}

// Allowance reports whether userID may still request a timeout today, and
// the instant the allowance next becomes available.
func (uc *TimeoutUseCase) Allowance(ctx context.Context, userID string) (bool, time.Time, error) {
	account, err := uc.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return false, time.Time{}, err
	}

	now := time.Now().UTC()
	available := domain.CanRequestTimeout(account.LastTimeoutUsedAt, now, uc.location)

	return available, domain.NextAllowanceAt(account.LastTimeoutUsedAt, now, uc.location), nil
}

// ListTimeouts lists past timeouts requested by a user.
func (uc *TimeoutUseCase) ListTimeouts(ctx context.Context, userID string, limit, offset int) ([]*domain.Timeout, error) {
	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	return uc.timeoutRepo.ListByUser(ctx, userID, limit, offset)
}
