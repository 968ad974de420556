package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/qayd-app/qayd/internal/ledger/reports"
)

// ReportsWarmupJob pre-builds the trial balance, current-month income
// statement and balance sheet for each tenant so the first dashboard view of
// the day hits a warm cache.
type ReportsWarmupJob struct {
	service *reports.Service
	pool    *pgxpool.Pool
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportsWarmupJob constructs the job.
func NewReportsWarmupJob(service *reports.Service, pool *pgxpool.Pool, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{service: service, pool: pool, logger: logger, now: time.Now}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tenants := []int64{payload.TenantID}
	if payload.TenantID == 0 {
		var err error
		tenants, err = activeTenants(ctx, j.pool)
		if err != nil {
			return err
		}
	}
	for _, tenantID := range tenants {
		if err := j.Run(ctx, tenantID); err != nil {
			j.logger.Warn("report warmup failed",
				slog.Int64("tenant_id", tenantID),
				slog.Any("error", err))
		}
	}
	return nil
}

// Run warms one tenant's report caches, building the three reports in parallel.
func (j *ReportsWarmupJob) Run(ctx context.Context, tenantID int64) error {
	now := j.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := j.service.TrialBalance(ctx, tenantID)
		return err
	})
	g.Go(func() error {
		_, err := j.service.IncomeStatement(ctx, tenantID, monthStart, now, nil)
		return err
	})
	g.Go(func() error {
		_, err := j.service.BalanceSheet(ctx, tenantID)
		return err
	})
	return g.Wait()
}

func activeTenants(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	rows, err := pool.Query(ctx, `SELECT DISTINCT tenant_id FROM accounts ORDER BY tenant_id`)
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
