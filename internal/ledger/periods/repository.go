package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `id, tenant_id, name, start_date, end_date, status, closed_at, locked_by, created_at, updated_at`

// RepositoryPort abstracts fiscal period persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, p FiscalPeriod) (FiscalPeriod, error)
	List(ctx context.Context, tenantID int64) ([]FiscalPeriod, error)
	GetByID(ctx context.Context, tenantID, id int64) (FiscalPeriod, error)
	FindByDate(ctx context.Context, tenantID int64, date time.Time) (FiscalPeriod, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status PeriodStatus, lockedBy *int64) error
}

// Repository persists fiscal periods in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, p FiscalPeriod) (FiscalPeriod, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO fiscal_periods (tenant_id, name, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
		p.TenantID, p.Name, p.StartDate, p.EndDate, p.Status)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return FiscalPeriod{}, err
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, tenantID int64) ([]FiscalPeriod, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE tenant_id = $1 ORDER BY start_date`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (FiscalPeriod, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalPeriod{}, ErrPeriodNotFound
		}
		return FiscalPeriod{}, err
	}
	return p, nil
}

func (r *Repository) FindByDate(ctx context.Context, tenantID int64, date time.Time) (FiscalPeriod, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods
WHERE tenant_id = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY start_date LIMIT 1`, tenantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalPeriod{}, ErrPeriodNotFound
		}
		return FiscalPeriod{}, err
	}
	return p, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id int64, status PeriodStatus, lockedBy *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fiscal_periods
SET status = $3,
    closed_at = CASE WHEN $3 <> 'OPEN' THEN NOW() ELSE NULL END,
    locked_by = $4,
    updated_at = NOW()
WHERE tenant_id = $1 AND id = $2`, tenantID, id, status, lockedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func scanPeriod(row pgx.Row) (FiscalPeriod, error) {
	var p FiscalPeriod
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
