package reports

import (
	"sort"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
)

// TrialBalanceRow places an account's stored balance in the debit or credit
// column according to its normal side.
type TrialBalanceRow struct {
	Number string  `json:"number"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Debit  float64 `json:"debit"`
	Credit float64 `json:"credit"`
}

// TrialBalance is the structured output of the trial balance report. It
// reflects current stored balances, not a reconstruction as of a past date;
// AsOf is the presentation date only.
type TrialBalance struct {
	AsOf        string            `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  float64           `json:"total_debit"`
	TotalCredit float64           `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// BuildTrialBalance converts account balances into trial balance rows sorted
// by account number.
func BuildTrialBalance(rows []BalanceRow) TrialBalance {
	out := TrialBalance{}
	for _, r := range rows {
		row := TrialBalanceRow{Number: r.Number, Name: r.Name, Type: string(r.Type)}
		if r.NormalBalance == accounts.SideDebit {
			row.Debit = r.Balance
		} else {
			row.Credit = r.Balance
		}
		out.Rows = append(out.Rows, row)
		out.TotalDebit += row.Debit
		out.TotalCredit += row.Credit
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].Number < out.Rows[j].Number })
	out.Balanced = round2(out.TotalDebit) == round2(out.TotalCredit)
	out.TotalDebit = round2(out.TotalDebit)
	out.TotalCredit = round2(out.TotalCredit)
	return out
}
