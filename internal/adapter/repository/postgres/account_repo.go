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

const accountColumns = `id, display_name, balance, pairing_code, partner_id, last_timeout_used_at, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// pairingCodeConstraint is the unique constraint on accounts.pairing_code.
const pairingCodeConstraint = "accounts_pairing_code_key"

// Create creates a new account. A pairing-code collision surfaces as
// domain.ErrPairingCodeTaken so the caller can mint a fresh code and retry.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID,
		account.DisplayName,
		account.Balance,
		account.PairingCode,
		account.PartnerID,
		account.LastTimeoutUsedAt,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return mapAccountInsertError(err)
}

func mapAccountInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == pgErrUniqueViolation &&
		pgErr.ConstraintName == pairingCodeConstraint {
		return domain.ErrPairingCodeTaken
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	return scanAccount(row)
}

// GetByPairingCode retrieves an account by its pairing code.
func (r *AccountRepository) GetByPairingCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE pairing_code = $1`, code)

	return scanAccount(row)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	row := pgxTx(tx).QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)

	return scanAccount(row)
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks.
// Callers pass ids sorted so concurrent transfers lock in the same order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := pgxTx(tx).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateBalance updates the cached balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	_, err := pgxTx(tx).Exec(ctx, `
		UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`,
		id, balance, updatedAt)

	return err
}

// UpdateLastTimeoutUsed stamps the account's daily allowance usage.
func (r *AccountRepository) UpdateLastTimeoutUsed(ctx context.Context, tx usecase.Transaction, id string, usedAt time.Time) error {
	_, err := pgxTx(tx).Exec(ctx, `
		UPDATE accounts SET last_timeout_used_at = $2, updated_at = $2 WHERE id = $1`,
		id, usedAt)

	return err
}

// SetPartner sets the partner reference on an account.
func (r *AccountRepository) SetPartner(ctx context.Context, tx usecase.Transaction, id, partnerID string, updatedAt time.Time) error {
	_, err := pgxTx(tx).Exec(ctx, `
		UPDATE accounts SET partner_id = $2, updated_at = $3 WHERE id = $1`,
		id, partnerID, updatedAt)

	return err
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account

	err := row.Scan(
		&account.ID,
		&account.DisplayName,
		&account.Balance,
		&account.PairingCode,
		&account.PartnerID,
		&account.LastTimeoutUsedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return &account, nil
}

// pgxTx unwraps the usecase transaction to its pgx.Tx.
func pgxTx(tx usecase.Transaction) pgx.Tx {
	return tx.(*Tx).PgxTx()
}
