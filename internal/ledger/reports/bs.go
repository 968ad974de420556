package reports

import (
	"math"
	"sort"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
)

// leafLevel is the chart depth at which accounts hold postings rather than
// roll up children.
const leafLevel = 3

// BalanceSheetRow is one leaf account with a non-zero balance.
type BalanceSheetRow struct {
	Number  string  `json:"number"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// BalanceSheetSection groups rows of one account type.
type BalanceSheetSection struct {
	Rows  []BalanceSheetRow `json:"rows"`
	Total float64           `json:"total"`
}

// BalanceSheet is the structured output of the balance sheet report, built
// from current stored balances. AsOf is the presentation date only.
type BalanceSheet struct {
	AsOf                      string              `json:"as_of"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalLiabilitiesAndEquity float64             `json:"total_liabilities_and_equity"`
}

// BuildBalanceSheet groups active leaf accounts with non-zero balances into
// assets, liabilities and equity.
func BuildBalanceSheet(rows []BalanceRow) BalanceSheet {
	out := BalanceSheet{}
	for _, r := range rows {
		if r.Level < leafLevel || math.Abs(r.Balance) < 0.005 {
			continue
		}
		row := BalanceSheetRow{Number: r.Number, Name: r.Name, Balance: round2(r.Balance)}
		switch r.Type {
		case accounts.AccountTypeAsset:
			out.Assets.Rows = append(out.Assets.Rows, row)
			out.Assets.Total += row.Balance
		case accounts.AccountTypeLiability:
			out.Liabilities.Rows = append(out.Liabilities.Rows, row)
			out.Liabilities.Total += row.Balance
		case accounts.AccountTypeEquity:
			out.Equity.Rows = append(out.Equity.Rows, row)
			out.Equity.Total += row.Balance
		}
	}
	for _, section := range []*BalanceSheetSection{&out.Assets, &out.Liabilities, &out.Equity} {
		sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Number < section.Rows[j].Number })
		section.Total = round2(section.Total)
	}
	out.TotalLiabilitiesAndEquity = round2(out.Liabilities.Total + out.Equity.Total)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
