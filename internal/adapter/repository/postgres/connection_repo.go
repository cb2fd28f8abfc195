package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

const connectionColumns = `id, account_a_id, account_b_id, active, created_at`

// ConnectionRepository implements usecase.ConnectionRepository.
type ConnectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository creates a new ConnectionRepository.
func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

// Create creates a new connection.
func (r *ConnectionRepository) Create(ctx context.Context, tx usecase.Transaction, conn *domain.Connection) error {
	_, err := pgxTx(tx).Exec(ctx, `
		INSERT INTO connections (`+connectionColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		conn.ID,
		conn.AccountAID,
		conn.AccountBID,
		conn.Active,
		conn.CreatedAt,
	)

	return err
}

// GetByID retrieves a connection by ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id)

	return scanConnection(row)
}

// GetActiveByAccount retrieves the active connection an account belongs to.
func (r *ConnectionRepository) GetActiveByAccount(ctx context.Context, accountID string) (*domain.Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+` FROM connections
		WHERE active AND (account_a_id = $1 OR account_b_id = $1)`, accountID)

	conn, err := scanConnection(row)
	if errors.Is(err, domain.ErrConnectionNotFound) {
		return nil, domain.ErrNotPaired
	}

	return conn, err
}

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	var conn domain.Connection

	err := row.Scan(
		&conn.ID,
		&conn.AccountAID,
		&conn.AccountBID,
		&conn.Active,
		&conn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConnectionNotFound
		}

		return nil, err
	}

	return &conn, nil
}
