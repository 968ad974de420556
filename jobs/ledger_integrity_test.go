package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIntegrityStore struct {
	tenants []int64
	debit   map[int64]float64
	credit  map[int64]float64
	checks  map[int64][]BalanceCheck
	visited []int64
}

func (s *stubIntegrityStore) Tenants(ctx context.Context) ([]int64, error) {
	return s.tenants, nil
}

func (s *stubIntegrityStore) PostedTotals(ctx context.Context, tenantID int64) (float64, float64, error) {
	s.visited = append(s.visited, tenantID)
	return s.debit[tenantID], s.credit[tenantID], nil
}

func (s *stubIntegrityStore) BalanceChecks(ctx context.Context, tenantID int64) ([]BalanceCheck, error) {
	return s.checks[tenantID], nil
}

type countingViolations struct {
	count int
}

func (c *countingViolations) IntegrityViolation() { c.count++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunFlagsDivergingPostedTotals(t *testing.T) {
	store := &stubIntegrityStore{
		debit:  map[int64]float64{7: 115},
		credit: map[int64]float64{7: 100},
	}
	metrics := &countingViolations{}
	job := NewLedgerIntegrityJob(store, discardLogger(), metrics)

	require.NoError(t, job.Run(context.Background(), 7))

	assert.Equal(t, 1, metrics.count)
}

func TestRunFlagsBalanceDriftBeyondTolerance(t *testing.T) {
	store := &stubIntegrityStore{
		debit:  map[int64]float64{7: 115},
		credit: map[int64]float64{7: 115},
		checks: map[int64][]BalanceCheck{7: {
			{AccountNumber: "1111", Stored: 215, Recomputed: 115},
			{AccountNumber: "4100", Stored: 100, Recomputed: 100.005},
		}},
	}
	metrics := &countingViolations{}
	job := NewLedgerIntegrityJob(store, discardLogger(), metrics)

	require.NoError(t, job.Run(context.Background(), 7))

	// only the 100-riyal drift counts; sub-cent noise stays within tolerance
	assert.Equal(t, 1, metrics.count)
}

func TestRunCleanLedgerRaisesNothing(t *testing.T) {
	// an unposted draft must not disturb the check: its amounts appear in
	// neither the stored balance nor the posted-lines recompute
	store := &stubIntegrityStore{
		debit:  map[int64]float64{7: 115},
		credit: map[int64]float64{7: 115},
		checks: map[int64][]BalanceCheck{7: {
			{AccountNumber: "1111", Stored: 115, Recomputed: 115},
			{AccountNumber: "2121", Stored: 15, Recomputed: 15},
		}},
	}
	metrics := &countingViolations{}
	job := NewLedgerIntegrityJob(store, discardLogger(), metrics)

	require.NoError(t, job.Run(context.Background(), 7))

	assert.Zero(t, metrics.count)
}

func TestHandleScopesToPayloadTenant(t *testing.T) {
	store := &stubIntegrityStore{
		tenants: []int64{1, 2, 3},
		debit:   map[int64]float64{},
		credit:  map[int64]float64{},
	}
	job := NewLedgerIntegrityJob(store, discardLogger(), nil)

	task, err := NewLedgerIntegrityTask(LedgerIntegrityPayload{TenantID: 2})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []int64{2}, store.visited)
}

func TestHandleWalksAllTenantsByDefault(t *testing.T) {
	store := &stubIntegrityStore{
		tenants: []int64{1, 2},
		debit:   map[int64]float64{},
		credit:  map[int64]float64{},
	}
	job := NewLedgerIntegrityJob(store, discardLogger(), nil)

	task, err := NewLedgerIntegrityTask(LedgerIntegrityPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []int64{1, 2}, store.visited)
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	job := NewLedgerIntegrityJob(&stubIntegrityStore{}, discardLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrity, []byte("{")))

	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
