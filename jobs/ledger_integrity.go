package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tolerance for float accumulation drift, one cent.
const integrityTolerance = 0.01

// ViolationCounter counts detected ledger violations. Optional.
type ViolationCounter interface {
	IntegrityViolation()
}

// BalanceCheck pairs an account's stored running balance with the balance
// recomputed from opening balance plus its posted lines.
type BalanceCheck struct {
	AccountNumber string
	Stored        float64
	Recomputed    float64
}

// IntegrityStore reads the figures the integrity check compares.
type IntegrityStore interface {
	Tenants(ctx context.Context) ([]int64, error)
	PostedTotals(ctx context.Context, tenantID int64) (debit, credit float64, err error)
	BalanceChecks(ctx context.Context, tenantID int64) ([]BalanceCheck, error)
}

// LedgerIntegrityJob verifies, per tenant, that posted debits equal posted
// credits and that every account's stored running balance matches the balance
// recomputed from its posted lines. Violations are logged and counted, never
// repaired automatically.
type LedgerIntegrityJob struct {
	store   IntegrityStore
	logger  *slog.Logger
	metrics ViolationCounter
}

// NewLedgerIntegrityJob constructs the job. metrics may be nil.
func NewLedgerIntegrityJob(store IntegrityStore, logger *slog.Logger, metrics ViolationCounter) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{store: store, logger: logger, metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tenants := []int64{payload.TenantID}
	if payload.TenantID == 0 {
		var err error
		if tenants, err = j.store.Tenants(ctx); err != nil {
			return err
		}
	}
	for _, tenantID := range tenants {
		if err := j.Run(ctx, tenantID); err != nil {
			return err
		}
	}
	return nil
}

// Run checks a single tenant's ledger.
func (j *LedgerIntegrityJob) Run(ctx context.Context, tenantID int64) error {
	totalDebit, totalCredit, err := j.store.PostedTotals(ctx, tenantID)
	if err != nil {
		return err
	}
	if math.Abs(totalDebit-totalCredit) > integrityTolerance {
		j.violation(tenantID, "posted debits and credits diverge",
			slog.Float64("debit", totalDebit),
			slog.Float64("credit", totalCredit))
	}

	checks, err := j.store.BalanceChecks(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, c := range checks {
		if math.Abs(c.Stored-c.Recomputed) > integrityTolerance {
			j.violation(tenantID, "stored balance drifted from posted lines",
				slog.String("account", c.AccountNumber),
				slog.Float64("stored", c.Stored),
				slog.Float64("recomputed", c.Recomputed))
		}
	}

	j.logger.Info("ledger integrity check completed", slog.Int64("tenant_id", tenantID))
	return nil
}

func (j *LedgerIntegrityJob) violation(tenantID int64, msg string, attrs ...any) {
	args := append([]any{slog.Int64("tenant_id", tenantID)}, attrs...)
	j.logger.Error("ledger integrity violation: "+msg, args...)
	if j.metrics != nil {
		j.metrics.IntegrityViolation()
	}
}

// PGIntegrityStore reads integrity figures from PostgreSQL.
type PGIntegrityStore struct {
	pool *pgxpool.Pool
}

// NewIntegrityStore constructs a PostgreSQL-backed store.
func NewIntegrityStore(pool *pgxpool.Pool) *PGIntegrityStore {
	return &PGIntegrityStore{pool: pool}
}

func (s *PGIntegrityStore) Tenants(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM accounts ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PGIntegrityStore) PostedTotals(ctx context.Context, tenantID int64) (float64, float64, error) {
	var debit, credit float64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.tenant_id = $1 AND e.status = 'POSTED'`, tenantID).Scan(&debit, &credit)
	return debit, credit, err
}

// BalanceChecks recomputes each active account's balance from posted lines
// only. Lines are pre-filtered through their entry's status so drafts never
// reach the sum.
func (s *PGIntegrityStore) BalanceChecks(ctx context.Context, tenantID int64) ([]BalanceCheck, error) {
	rows, err := s.pool.Query(ctx, `SELECT a.number, a.current_balance,
a.opening_balance + COALESCE(SUM(CASE WHEN a.normal_balance = 'DEBIT' THEN pl.debit - pl.credit ELSE pl.credit - pl.debit END), 0)
FROM accounts a
LEFT JOIN (
	SELECT l.account_id, l.debit, l.credit
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.entry_id
	WHERE e.tenant_id = $1 AND e.status = 'POSTED'
) pl ON pl.account_id = a.id
WHERE a.tenant_id = $1 AND a.is_active
GROUP BY a.id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BalanceCheck
	for rows.Next() {
		var c BalanceCheck
		if err := rows.Scan(&c.AccountNumber, &c.Stored, &c.Recomputed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
