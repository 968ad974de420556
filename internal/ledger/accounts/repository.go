package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qayd-app/qayd/internal/platform/db"
)

const accountColumns = `id, tenant_id, number, name, name_ar, type, normal_balance, level, path, parent_id,
opening_balance, current_balance, is_system, is_bank, is_active, created_at, updated_at`

// TxRepository exposes the account operations available inside a transaction.
type TxRepository interface {
	Count(ctx context.Context, tenantID int64) (int64, error)
	Insert(ctx context.Context, a Account) (Account, error)
	GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error)
}

// RepositoryPort abstracts account persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, tenantID int64) ([]Account, error)
	ListActive(ctx context.Context, tenantID int64) ([]Account, error)
	GetByID(ctx context.Context, tenantID, id int64) (Account, error)
	GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error)
	Deactivate(ctx context.Context, tenantID, id int64) error
}

// Repository persists accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger: account repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{q: tx})
	})
}

type txRepository struct {
	q querier
}

func (r *txRepository) Count(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM accounts WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}

func (r *txRepository) Insert(ctx context.Context, a Account) (Account, error) {
	row := r.q.QueryRow(ctx, `INSERT INTO accounts
(tenant_id, number, name, name_ar, type, normal_balance, level, path, parent_id, opening_balance, current_balance, is_system, is_bank, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING id, created_at, updated_at`,
		a.TenantID, a.Number, a.Name, a.NameAr, a.Type, a.NormalBalance, a.Level, a.Path, a.ParentID,
		a.OpeningBalance, a.CurrentBalance, a.IsSystemAccount, a.IsBankAccount, a.IsActive)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateNumber
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error) {
	return scanOne(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND number = $2`, tenantID, number))
}

func (r *Repository) List(ctx context.Context, tenantID int64) ([]Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 ORDER BY number`, tenantID)
}

func (r *Repository) ListActive(ctx context.Context, tenantID int64) ([]Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND is_active ORDER BY number`, tenantID)
}

func (r *Repository) list(ctx context.Context, sql string, args ...any) ([]Account, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (Account, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *Repository) GetByNumber(ctx context.Context, tenantID int64, number string) (Account, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND number = $2`, tenantID, number))
}

func (r *Repository) Deactivate(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanOne(row pgx.Row) (Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Number, &a.Name, &a.NameAr, &a.Type, &a.NormalBalance, &a.Level, &a.Path, &a.ParentID,
		&a.OpeningBalance, &a.CurrentBalance, &a.IsSystemAccount, &a.IsBankAccount, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
