package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
)

func TestBuildTrialBalanceSplitsByNormalSide(t *testing.T) {
	rows := []BalanceRow{
		{Number: "1111", Name: "Cash on Hand", Type: accounts.AccountTypeAsset, NormalBalance: accounts.SideDebit, Level: 3, Balance: 115},
		{Number: "4100", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue, NormalBalance: accounts.SideCredit, Level: 2, Balance: 100},
		{Number: "2121", Name: "VAT Payable", Type: accounts.AccountTypeLiability, NormalBalance: accounts.SideCredit, Level: 3, Balance: 15},
	}

	tb := BuildTrialBalance(rows)

	require.Len(t, tb.Rows, 3)
	assert.Equal(t, "1111", tb.Rows[0].Number)
	assert.Equal(t, 115.0, tb.Rows[0].Debit)
	assert.Equal(t, 0.0, tb.Rows[0].Credit)
	assert.Equal(t, 15.0, tb.Rows[1].Credit)
	assert.Equal(t, 100.0, tb.Rows[2].Credit)
	assert.Equal(t, 115.0, tb.TotalDebit)
	assert.Equal(t, 115.0, tb.TotalCredit)
	assert.True(t, tb.Balanced)
}

func TestBuildTrialBalanceDetectsImbalance(t *testing.T) {
	rows := []BalanceRow{
		{Number: "1111", NormalBalance: accounts.SideDebit, Balance: 100},
		{Number: "4100", NormalBalance: accounts.SideCredit, Balance: 90},
	}
	tb := BuildTrialBalance(rows)
	assert.False(t, tb.Balanced)
}

func TestBuildIncomeStatementSplitsCOGS(t *testing.T) {
	rows := []ActivityRow{
		{AccountNumber: "4100", AccountName: "Sales Revenue", Type: accounts.AccountTypeRevenue, Credit: 1000},
		{AccountNumber: "4100", AccountName: "Sales Revenue", Type: accounts.AccountTypeRevenue, Debit: 50}, // refund
		{AccountNumber: "5100", AccountName: "Cost of Goods Sold", Type: accounts.AccountTypeExpense, Debit: 400},
		{AccountNumber: "5210", AccountName: "Rent", Type: accounts.AccountTypeExpense, Debit: 200},
		{AccountNumber: "1111", AccountName: "Cash on Hand", Type: accounts.AccountTypeAsset, Debit: 1000},
	}

	is := BuildIncomeStatement(rows, nil)

	assert.Equal(t, 950.0, is.TotalRevenue)
	assert.Equal(t, 400.0, is.CostOfGoods)
	assert.Equal(t, 550.0, is.GrossProfit)
	assert.Equal(t, 200.0, is.TotalExpenses)
	assert.Equal(t, 350.0, is.NetIncome)

	require.Len(t, is.Revenue, 1)
	assert.Equal(t, 950.0, is.Revenue[0].Amount)
	require.Len(t, is.Expenses, 1, "COGS is split out of expenses")
	assert.Equal(t, "5210", is.Expenses[0].Number)
}

func TestBuildIncomeStatementFiltersPerLine(t *testing.T) {
	branch1, branch2 := int64(1), int64(2)
	rows := []ActivityRow{
		{AccountNumber: "4100", AccountName: "Sales Revenue", Type: accounts.AccountTypeRevenue, Credit: 100, BranchID: &branch1},
		{AccountNumber: "4100", AccountName: "Sales Revenue", Type: accounts.AccountTypeRevenue, Credit: 200, BranchID: &branch2},
		{AccountNumber: "4100", AccountName: "Sales Revenue", Type: accounts.AccountTypeRevenue, Credit: 300},
	}

	is := BuildIncomeStatement(rows, &branch1)
	assert.Equal(t, 100.0, is.TotalRevenue, "untagged and foreign-branch lines skipped")

	all := BuildIncomeStatement(rows, nil)
	assert.Equal(t, 600.0, all.TotalRevenue)
}

func TestBuildBalanceSheetLeafAccountsOnly(t *testing.T) {
	rows := []BalanceRow{
		{Number: "1000", Name: "Assets", Type: accounts.AccountTypeAsset, Level: 1, Balance: 500},
		{Number: "1100", Name: "Current Assets", Type: accounts.AccountTypeAsset, Level: 2, Balance: 500},
		{Number: "1111", Name: "Cash on Hand", Type: accounts.AccountTypeAsset, Level: 3, Balance: 500},
		{Number: "1112", Name: "Bank", Type: accounts.AccountTypeAsset, Level: 3, Balance: 0},
		{Number: "2111", Name: "Accounts Payable", Type: accounts.AccountTypeLiability, Level: 3, Balance: 200},
		{Number: "3110", Name: "Owner Capital", Type: accounts.AccountTypeEquity, Level: 3, Balance: 300},
	}

	bs := BuildBalanceSheet(rows)

	require.Len(t, bs.Assets.Rows, 1, "parents and zero balances excluded")
	assert.Equal(t, "1111", bs.Assets.Rows[0].Number)
	assert.Equal(t, 500.0, bs.Assets.Total)
	assert.Equal(t, 200.0, bs.Liabilities.Total)
	assert.Equal(t, 300.0, bs.Equity.Total)
	assert.Equal(t, 500.0, bs.TotalLiabilitiesAndEquity)
}

type stubRepo struct {
	balances []BalanceRow
	activity []ActivityRow
	calls    int
}

func (s *stubRepo) ActiveBalances(ctx context.Context, tenantID int64) ([]BalanceRow, error) {
	s.calls++
	return s.balances, nil
}

func (s *stubRepo) PostedActivity(ctx context.Context, tenantID int64, start, end time.Time) ([]ActivityRow, error) {
	s.calls++
	return s.activity, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestServiceCachesUntilBump(t *testing.T) {
	repo := &stubRepo{balances: []BalanceRow{
		{Number: "1111", Name: "Cash on Hand", Type: accounts.AccountTypeAsset, NormalBalance: accounts.SideDebit, Level: 3, Balance: 100},
		{Number: "4100", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue, NormalBalance: accounts.SideCredit, Level: 2, Balance: 100},
	}}
	cache := newTestCache(t)
	svc := NewService(repo, cache, discardLogger())
	ctx := context.Background()

	first, err := svc.TrialBalance(ctx, 1)
	require.NoError(t, err)
	second, err := svc.TrialBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls, "second read served from cache")

	require.NoError(t, cache.Bump(ctx, 1))
	_, err = svc.TrialBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls, "bump invalidates the cached report")
}

func TestCacheVersionIsPerTenant(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	k1, err := cache.BuildKey(ctx, 1, "reports", "tb", "1")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx, 2))
	k1again, err := cache.BuildKey(ctx, 1, "reports", "tb", "1")
	require.NoError(t, err)
	assert.Equal(t, k1, k1again, "bumping tenant 2 leaves tenant 1 keys intact")
}
