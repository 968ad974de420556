package reports

import (
	"sort"

	"github.com/qayd-app/qayd/internal/ledger/accounts"
)

// CostOfGoodsAccount is the fixed expense account split out of operating
// expenses into its own cost-of-goods total.
const CostOfGoodsAccount = "5100"

// IncomeStatementLine aggregates posted activity for one account.
type IncomeStatementLine struct {
	Number string  `json:"number"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// IncomeStatement is the structured output of the income statement report.
type IncomeStatement struct {
	Revenue       []IncomeStatementLine `json:"revenue"`
	TotalRevenue  float64               `json:"total_revenue"`
	CostOfGoods   float64               `json:"cost_of_goods"`
	GrossProfit   float64               `json:"gross_profit"`
	Expenses      []IncomeStatementLine `json:"expenses"`
	TotalExpenses float64               `json:"total_expenses"`
	NetIncome     float64               `json:"net_income"`
}

// BuildIncomeStatement aggregates posted journal lines into revenue and
// expense sections. Revenue accounts accumulate credit-debit, expense accounts
// debit-credit. Branch filtering is per-line: a line whose branch tag does not
// match is skipped while the rest of its entry still counts.
func BuildIncomeStatement(rows []ActivityRow, branchID *int64) IncomeStatement {
	revenue := make(map[string]*IncomeStatementLine)
	expenses := make(map[string]*IncomeStatementLine)
	out := IncomeStatement{}

	for _, r := range rows {
		if branchID != nil && (r.BranchID == nil || *r.BranchID != *branchID) {
			continue
		}
		switch r.Type {
		case accounts.AccountTypeRevenue:
			amount := r.Credit - r.Debit
			line := upsertLine(revenue, r)
			line.Amount += amount
			out.TotalRevenue += amount
		case accounts.AccountTypeExpense:
			amount := r.Debit - r.Credit
			if r.AccountNumber == CostOfGoodsAccount {
				out.CostOfGoods += amount
				continue
			}
			line := upsertLine(expenses, r)
			line.Amount += amount
			out.TotalExpenses += amount
		}
	}

	out.Revenue = sortLines(revenue)
	out.Expenses = sortLines(expenses)
	out.TotalRevenue = round2(out.TotalRevenue)
	out.CostOfGoods = round2(out.CostOfGoods)
	out.TotalExpenses = round2(out.TotalExpenses)
	out.GrossProfit = round2(out.TotalRevenue - out.CostOfGoods)
	out.NetIncome = round2(out.GrossProfit - out.TotalExpenses)
	return out
}

func upsertLine(m map[string]*IncomeStatementLine, r ActivityRow) *IncomeStatementLine {
	line, ok := m[r.AccountNumber]
	if !ok {
		line = &IncomeStatementLine{Number: r.AccountNumber, Name: r.AccountName}
		m[r.AccountNumber] = line
	}
	return line
}

func sortLines(m map[string]*IncomeStatementLine) []IncomeStatementLine {
	out := make([]IncomeStatementLine, 0, len(m))
	for _, line := range m {
		line.Amount = round2(line.Amount)
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
