package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

const timeoutColumns = `id, user_id, connection_id, started_at, active, created_at`

// TimeoutRepository implements usecase.TimeoutRepository. The partial unique
// index on (connection_id) WHERE active makes concurrent creates for one
// connection collide at the store, and the deadline predicate in Deactivate
// makes the expiry flip idempotent under racing observers.
type TimeoutRepository struct {
	pool *pgxpool.Pool
}

// NewTimeoutRepository creates a new TimeoutRepository.
func NewTimeoutRepository(pool *pgxpool.Pool) *TimeoutRepository {
	return &TimeoutRepository{pool: pool}
}

// timeoutActiveConstraint is the partial unique index enforcing at most one
// active timeout per connection.
const timeoutActiveConstraint = "timeouts_one_active_per_connection"

// Create creates a new timeout. Two racing creates for one connection both
// pass the IDLE check before either row exists; the loser collides with the
// partial unique index and gets the already-active rejection.
func (r *TimeoutRepository) Create(ctx context.Context, tx usecase.Transaction, timeout *domain.Timeout) error {
	_, err := pgxTx(tx).Exec(ctx, `
		INSERT INTO timeouts (`+timeoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		timeout.ID,
		timeout.UserID,
		timeout.ConnectionID,
		timeout.StartedAt,
		timeout.Active,
		timeout.CreatedAt,
	)

	return mapTimeoutInsertError(err)
}

func mapTimeoutInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == pgErrUniqueViolation &&
		pgErr.ConstraintName == timeoutActiveConstraint {
		return domain.ErrTimeoutAlreadyActive
	}

	return err
}

// GetByID retrieves a timeout by ID.
func (r *TimeoutRepository) GetByID(ctx context.Context, id string) (*domain.Timeout, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+timeoutColumns+` FROM timeouts WHERE id = $1`, id)

	return scanTimeout(row)
}

// GetActiveByConnection returns the connection's active=true row, expired or
// not; expiry is the caller's derivation.
func (r *TimeoutRepository) GetActiveByConnection(ctx context.Context, connectionID string) (*domain.Timeout, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+timeoutColumns+` FROM timeouts
		WHERE connection_id = $1 AND active`, connectionID)

	return scanTimeout(row)
}

// GetActiveByConnectionForUpdate locks and returns the active row.
func (r *TimeoutRepository) GetActiveByConnectionForUpdate(ctx context.Context, tx usecase.Transaction, connectionID string) (*domain.Timeout, error) {
	row := pgxTx(tx).QueryRow(ctx, `
		SELECT `+timeoutColumns+` FROM timeouts
		WHERE connection_id = $1 AND active
		FOR UPDATE`, connectionID)

	return scanTimeout(row)
}

const deactivateSQL = `
	UPDATE timeouts SET active = FALSE
	WHERE id = $1 AND active AND started_at + make_interval(secs => $2) <= $3`

// Deactivate flips active to false once the deadline has passed. Multiple
// observers may race here; exactly one update takes effect and the rest see
// flipped=false.
func (r *TimeoutRepository) Deactivate(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, deactivateSQL, id, domain.TimeoutDuration.Seconds(), now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// DeactivateTx is Deactivate inside an existing store transaction.
func (r *TimeoutRepository) DeactivateTx(ctx context.Context, tx usecase.Transaction, id string, now time.Time) (bool, error) {
	tag, err := pgxTx(tx).Exec(ctx, deactivateSQL, id, domain.TimeoutDuration.Seconds(), now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// ListByUser lists timeouts requested by a user, newest first.
func (r *TimeoutRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Timeout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+timeoutColumns+` FROM timeouts
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timeouts []*domain.Timeout
	for rows.Next() {
		timeout, err := scanTimeout(rows)
		if err != nil {
			return nil, err
		}
		timeouts = append(timeouts, timeout)
	}

	return timeouts, rows.Err()
}

func scanTimeout(row pgx.Row) (*domain.Timeout, error) {
	var timeout domain.Timeout

	err := row.Scan(
		&timeout.ID,
		&timeout.UserID,
		&timeout.ConnectionID,
		&timeout.StartedAt,
		&timeout.Active,
		&timeout.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTimeoutNotFound
		}

		return nil, err
	}

	return &timeout, nil
}
