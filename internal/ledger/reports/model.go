package reports

import "github.com/qayd-app/qayd/internal/ledger/accounts"

// BalanceRow is an active account with its stored running balance, the input
// for the trial balance and balance sheet builders.
type BalanceRow struct {
	Number        string
	Name          string
	Type          accounts.AccountType
	NormalBalance accounts.BalanceSide
	Level         int
	Balance       float64
}

// ActivityRow is one posted journal line joined with its account type, the
// input for the income statement builder.
type ActivityRow struct {
	AccountNumber string
	AccountName   string
	Type          accounts.AccountType
	Debit         float64
	Credit        float64
	BranchID      *int64
}
