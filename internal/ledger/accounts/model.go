package accounts

import (
	"errors"
	"time"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// BalanceSide is the side on which an account naturally increases.
type BalanceSide string

const (
	SideDebit  BalanceSide = "DEBIT"
	SideCredit BalanceSide = "CREDIT"
)

// NormalSideFor returns the normal balance side for an account type. Assets
// and expenses increase on debit; liabilities, equity, and revenue on credit.
func NormalSideFor(t AccountType) BalanceSide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account models a chart of accounts node. Number is unique per tenant; Level
// and Path are derived from the parent chain (root level is 1, Path is the
// slash-joined ancestor numbers including the account's own).
type Account struct {
	ID              int64
	TenantID        int64
	Number          string
	Name            string
	NameAr          string
	Type            AccountType
	NormalBalance   BalanceSide
	Level           int
	Path            string
	ParentID        *int64
	OpeningBalance  float64
	CurrentBalance  float64
	IsSystemAccount bool
	IsBankAccount   bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TreeNode is an account with its resolved children, for display and rollups.
type TreeNode struct {
	Account
	Children []*TreeNode
}

var (
	// ErrDuplicateNumber indicates the account number already exists for the tenant.
	ErrDuplicateNumber = errors.New("ledger: account number already exists")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrParentNotFound indicates the named parent account does not exist.
	ErrParentNotFound = errors.New("ledger: parent account not found")
	// ErrSystemAccount indicates the operation is forbidden on a system account.
	ErrSystemAccount = errors.New("ledger: system account is protected")
)
