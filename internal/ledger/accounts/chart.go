package accounts

// Well-known account numbers the auto-posting and reporting paths depend on.
// Seeded for every tenant by InitializeChart.
const (
	NumberCash               = "1111"
	NumberBank               = "1112"
	NumberAccountsReceivable = "1121"
	NumberInventory          = "1131"
	NumberAccountsPayable    = "2111"
	NumberVATPayable         = "2121"
	NumberSales              = "4100"
	NumberCOGS               = "5100"
)

// ChartEntry is one node of the default chart of accounts.
type ChartEntry struct {
	Number string
	Name   string
	NameAr string
	Type   AccountType
	Parent string
	System bool
	Bank   bool
}

// DefaultChart is the fixed hierarchy seeded for new tenants. Entries are
// ordered parents-first so a single pass can resolve parent references.
var DefaultChart = []ChartEntry{
	// Assets (1xxx)
	{Number: "1000", Name: "Assets", NameAr: "الأصول", Type: AccountTypeAsset, System: true},
	{Number: "1100", Name: "Current Assets", NameAr: "الأصول المتداولة", Type: AccountTypeAsset, Parent: "1000", System: true},
	{Number: NumberCash, Name: "Cash", NameAr: "النقدية", Type: AccountTypeAsset, Parent: "1100", System: true},
	{Number: NumberBank, Name: "Bank Accounts", NameAr: "الحسابات البنكية", Type: AccountTypeAsset, Parent: "1100", System: true, Bank: true},
	{Number: NumberAccountsReceivable, Name: "Accounts Receivable", NameAr: "الذمم المدينة", Type: AccountTypeAsset, Parent: "1100", System: true},
	{Number: NumberInventory, Name: "Inventory", NameAr: "المخزون", Type: AccountTypeAsset, Parent: "1100", System: true},
	{Number: "1200", Name: "Fixed Assets", NameAr: "الأصول الثابتة", Type: AccountTypeAsset, Parent: "1000"},
	{Number: "1211", Name: "Equipment", NameAr: "المعدات", Type: AccountTypeAsset, Parent: "1200"},
	{Number: "1221", Name: "Furniture", NameAr: "الأثاث", Type: AccountTypeAsset, Parent: "1200"},

	// Liabilities (2xxx)
	{Number: "2000", Name: "Liabilities", NameAr: "الالتزامات", Type: AccountTypeLiability, System: true},
	{Number: "2100", Name: "Current Liabilities", NameAr: "الالتزامات المتداولة", Type: AccountTypeLiability, Parent: "2000", System: true},
	{Number: NumberAccountsPayable, Name: "Accounts Payable", NameAr: "الذمم الدائنة", Type: AccountTypeLiability, Parent: "2100", System: true},
	{Number: NumberVATPayable, Name: "VAT Payable", NameAr: "ضريبة القيمة المضافة المستحقة", Type: AccountTypeLiability, Parent: "2100", System: true},
	{Number: "2131", Name: "Accrued Salaries", NameAr: "الرواتب المستحقة", Type: AccountTypeLiability, Parent: "2100"},

	// Equity (3xxx)
	{Number: "3000", Name: "Equity", NameAr: "حقوق الملكية", Type: AccountTypeEquity, System: true},
	{Number: "3100", Name: "Owner Equity", NameAr: "حقوق المالك", Type: AccountTypeEquity, Parent: "3000", System: true},
	{Number: "3110", Name: "Capital", NameAr: "رأس المال", Type: AccountTypeEquity, Parent: "3100", System: true},
	{Number: "3120", Name: "Retained Earnings", NameAr: "الأرباح المحتجزة", Type: AccountTypeEquity, Parent: "3100", System: true},

	// Revenue (4xxx)
	{Number: "4000", Name: "Revenue", NameAr: "الإيرادات", Type: AccountTypeRevenue, System: true},
	{Number: NumberSales, Name: "Sales Revenue", NameAr: "إيرادات المبيعات", Type: AccountTypeRevenue, Parent: "4000", System: true},
	{Number: "4200", Name: "Other Revenue", NameAr: "إيرادات أخرى", Type: AccountTypeRevenue, Parent: "4000"},

	// Expenses (5xxx)
	{Number: "5000", Name: "Expenses", NameAr: "المصروفات", Type: AccountTypeExpense, System: true},
	{Number: NumberCOGS, Name: "Cost of Goods Sold", NameAr: "تكلفة البضاعة المباعة", Type: AccountTypeExpense, Parent: "5000", System: true},
	{Number: "5200", Name: "Operating Expenses", NameAr: "مصروفات التشغيل", Type: AccountTypeExpense, Parent: "5000"},
	{Number: "5210", Name: "Salaries", NameAr: "الرواتب", Type: AccountTypeExpense, Parent: "5200"},
	{Number: "5220", Name: "Rent", NameAr: "الإيجار", Type: AccountTypeExpense, Parent: "5200"},
	{Number: "5230", Name: "Utilities", NameAr: "المرافق", Type: AccountTypeExpense, Parent: "5200"},
}
