package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
	"github.com/qayd-app/qayd/internal/platform/db"
)

// TxRepository exposes transactional operations for posting.
type TxRepository interface {
	GetAccountsForUpdate(ctx context.Context, tenantID int64, ids []int64) (map[int64]accounts.Account, error)
	NextEntryNumber(ctx context.Context, tenantID int64, year int) (int64, error)
	InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	GetEntryWithLines(ctx context.Context, tenantID, entryID int64) (JournalEntry, error)
	MarkPosted(ctx context.Context, tenantID, entryID, postedBy int64, at time.Time) (bool, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) error
}

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, tenantID int64) ([]JournalEntry, error)
	Get(ctx context.Context, tenantID, entryID int64) (JournalEntry, error)
}

// Repository persists journal entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes fn within a repeatable-read transaction so that balance
// application is all-or-nothing.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger: journal repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetAccountsForUpdate(ctx context.Context, tenantID int64, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, number, name, type, normal_balance, is_active
FROM accounts WHERE tenant_id = $1 AND id = ANY($2) FOR UPDATE`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Number, &a.Name, &a.Type, &a.NormalBalance, &a.IsActive); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// NextEntryNumber performs a conditional atomic increment on the per-tenant
// per-year sequence row, unique even under concurrent callers.
func (r *txRepository) NextEntryNumber(ctx context.Context, tenantID int64, year int) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO document_sequences (tenant_id, branch_id, doc_type, year, last_value)
VALUES ($1, 0, 'journal_entry', $2, 1)
ON CONFLICT (tenant_id, branch_id, doc_type, year)
DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`, tenantID, year).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(tenant_id, number, date, memo, status, total_debit, total_credit, reference_kind, reference_id, created_by, posted_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id, created_at, updated_at`,
		e.TenantID, e.Number, e.Date, e.Memo, e.Status, e.TotalDebit, e.TotalCredit,
		e.Reference.Kind, nullUUID(e.Reference.ID), e.CreatedBy, e.PostedBy, e.PostedAt)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines
(entry_id, account_id, account_number, account_name, debit, credit, branch_id, cost_center, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			entryID, line.AccountID, line.AccountNumber, line.AccountName, line.Debit, line.Credit,
			line.BranchID, line.CostCenter, line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	return getEntryWithLines(ctx, r.tx, tenantID, entryID, true)
}

// MarkPosted flips draft to posted with a conditional update. Returning false
// means the entry was not draft at the time of the update, which makes
// double-posting structurally impossible.
func (r *txRepository) MarkPosted(ctx context.Context, tenantID, entryID, postedBy int64, at time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET status = $4, posted_by = $5, posted_at = $6, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2 AND status = $3`,
		tenantID, entryID, EntryStatusDraft, EntryStatusPosted, postedBy, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at = NOW() WHERE id = $1`, accountID, delta)
	return err
}

func (r *Repository) List(ctx context.Context, tenantID int64) ([]JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id = $1 ORDER BY number DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, entryID int64) (JournalEntry, error) {
	return getEntryWithLines(ctx, r.pool, tenantID, entryID, false)
}

const entryColumns = `id, tenant_id, number, date, memo, status, total_debit, total_credit,
reference_kind, reference_id, created_by, posted_by, posted_at, created_at, updated_at`

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntryWithLines(ctx context.Context, q rowQuerier, tenantID, entryID int64, forUpdate bool) (JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE tenant_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	entry, err := scanEntry(q.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, account_number, account_name, debit, credit, branch_id, cost_center, memo
FROM journal_lines WHERE entry_id = $1 ORDER BY id`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountNumber, &l.AccountName, &l.Debit, &l.Credit, &l.BranchID, &l.CostCenter, &l.Memo); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var refID *uuid.UUID
	err := row.Scan(&e.ID, &e.TenantID, &e.Number, &e.Date, &e.Memo, &e.Status, &e.TotalDebit, &e.TotalCredit,
		&e.Reference.Kind, &refID, &e.CreatedBy, &e.PostedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	if refID != nil {
		e.Reference.ID = *refID
	}
	return e, nil
}

func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
