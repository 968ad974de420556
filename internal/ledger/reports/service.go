package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service assembles financial reports, caching built payloads per tenant and
// deduplicating concurrent builds of the same report.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// TrialBalance builds the trial balance from current stored balances.
func (s *Service) TrialBalance(ctx context.Context, tenantID int64) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, tenantID, "reports", "tb", fmt.Sprint(tenantID))
	if err != nil {
		return TrialBalance{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var tb TrialBalance
		err := s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (any, error) {
			rows, err := s.repo.ActiveBalances(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			report := BuildTrialBalance(rows)
			if !report.Balanced {
				s.logger.Warn("trial balance out of balance",
					slog.Int64("tenant_id", tenantID),
					slog.Float64("debit", report.TotalDebit),
					slog.Float64("credit", report.TotalCredit))
			}
			return report, nil
		})
		return tb, err
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return v.(TrialBalance), nil
}

// IncomeStatement builds the income statement over posted activity in
// [start, end], optionally filtered per-line by branch.
func (s *Service) IncomeStatement(ctx context.Context, tenantID int64, start, end time.Time, branchID *int64) (IncomeStatement, error) {
	branch := "all"
	if branchID != nil {
		branch = fmt.Sprint(*branchID)
	}
	key, err := s.cache.BuildKey(ctx, tenantID, "reports", "is", fmt.Sprint(tenantID),
		start.Format("2006-01-02"), end.Format("2006-01-02"), branch)
	if err != nil {
		return IncomeStatement{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var is IncomeStatement
		err := s.cache.FetchJSON(ctx, key, &is, func(ctx context.Context) (any, error) {
			rows, err := s.repo.PostedActivity(ctx, tenantID, start, end)
			if err != nil {
				return nil, err
			}
			return BuildIncomeStatement(rows, branchID), nil
		})
		return is, err
	})
	if err != nil {
		return IncomeStatement{}, err
	}
	return v.(IncomeStatement), nil
}

// BalanceSheet builds the balance sheet from current stored balances.
func (s *Service) BalanceSheet(ctx context.Context, tenantID int64) (BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, tenantID, "reports", "bs", fmt.Sprint(tenantID))
	if err != nil {
		return BalanceSheet{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var bs BalanceSheet
		err := s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (any, error) {
			rows, err := s.repo.ActiveBalances(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			return BuildBalanceSheet(rows), nil
		})
		return bs, err
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	return v.(BalanceSheet), nil
}
