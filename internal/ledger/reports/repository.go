package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort loads report inputs.
type RepositoryPort interface {
	ActiveBalances(ctx context.Context, tenantID int64) ([]BalanceRow, error)
	PostedActivity(ctx context.Context, tenantID int64, start, end time.Time) ([]ActivityRow, error)
}

// Repository reads report inputs from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ActiveBalances(ctx context.Context, tenantID int64) ([]BalanceRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT number, name, type, normal_balance, level, current_balance
FROM accounts WHERE tenant_id = $1 AND is_active ORDER BY number`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BalanceRow
	for rows.Next() {
		var b BalanceRow
		if err := rows.Scan(&b.Number, &b.Name, &b.Type, &b.NormalBalance, &b.Level, &b.Balance); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) PostedActivity(ctx context.Context, tenantID int64, start, end time.Time) ([]ActivityRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.account_number, l.account_name, a.type, l.debit, l.credit, l.branch_id
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.tenant_id = $1 AND e.status = 'POSTED' AND e.date BETWEEN $2 AND $3
ORDER BY l.account_number`, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActivityRow
	for rows.Next() {
		var a ActivityRow
		if err := rows.Scan(&a.AccountNumber, &a.AccountName, &a.Type, &a.Debit, &a.Credit, &a.BranchID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
