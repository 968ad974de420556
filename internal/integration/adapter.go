package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/qayd-app/qayd/internal/invoicing"
	"github.com/qayd-app/qayd/internal/ledger/accounts"
	"github.com/qayd-app/qayd/internal/ledger/journals"
	"github.com/qayd-app/qayd/internal/zatca"
)

// AccountLookup resolves chart accounts by number.
type AccountLookup interface {
	GetByNumber(ctx context.Context, tenantID int64, number string) (accounts.Account, error)
}

// JournalPoster records and posts journal entries.
type JournalPoster interface {
	Create(ctx context.Context, tenantID int64, in journals.CreateInput) (journals.JournalEntry, error)
}

// InvoiceIssuer issues invoices from orders.
type InvoiceIssuer interface {
	CreateFromOrder(ctx context.Context, tenantID int64, in invoicing.OrderInput) (invoicing.Invoice, error)
}

// PostingResult is the outcome of translating an order into a journal entry.
// A skipped result is not an error: a missing accounting configuration must
// never block a sale, so callers get an explicit reason to investigate
// instead of a failure.
type PostingResult struct {
	Posted     bool
	Entry      *journals.JournalEntry
	SkipReason string
}

// Adapter translates completed sales orders into ledger postings and invoices.
type Adapter struct {
	accounts AccountLookup
	journals JournalPoster
	invoices InvoiceIssuer
	logger   *slog.Logger
}

// NewAdapter constructs Adapter. invoices may be nil when invoice issuance is
// handled elsewhere.
func NewAdapter(accounts AccountLookup, journals JournalPoster, invoices InvoiceIssuer, logger *slog.Logger) *Adapter {
	return &Adapter{accounts: accounts, journals: journals, invoices: invoices, logger: logger}
}

// PostOrderJournal builds and immediately posts a balanced entry for the
// order: debit cash for the VAT-inclusive total, credit sales for the net,
// credit VAT payable for the tax, and when the order carries a cost of goods,
// debit COGS and credit inventory for it. The required accounts are cash,
// sales and VAT payable; if any of them is missing the result is a logged
// skip, not an error.
func (a *Adapter) PostOrderJournal(ctx context.Context, order Order, createdBy int64) (PostingResult, error) {
	required := map[string]string{
		accounts.NumberCash:       "cash",
		accounts.NumberSales:      "sales",
		accounts.NumberVATPayable: "vat payable",
	}
	resolved := make(map[string]accounts.Account, 5)
	for number, label := range required {
		acct, err := a.accounts.GetByNumber(ctx, order.TenantID, number)
		if err != nil {
			if errors.Is(err, accounts.ErrAccountNotFound) {
				reason := fmt.Sprintf("%s account %s not configured", label, number)
				a.logger.Warn("order posting skipped",
					slog.Int64("tenant_id", order.TenantID),
					slog.String("order_id", order.ID.String()),
					slog.String("reason", reason))
				return PostingResult{SkipReason: reason}, nil
			}
			return PostingResult{}, err
		}
		resolved[number] = acct
	}

	net := round2(order.TotalAmount / (1 + zatca.VATRate))
	vat := round2(order.TotalAmount - net)

	branchID := order.BranchID
	lines := []journals.LineInput{
		{AccountID: resolved[accounts.NumberCash].ID, Debit: order.TotalAmount, BranchID: &branchID},
		{AccountID: resolved[accounts.NumberSales].ID, Credit: net, BranchID: &branchID},
		{AccountID: resolved[accounts.NumberVATPayable].ID, Credit: vat, BranchID: &branchID},
	}

	if order.CostOfGoods > 0 {
		cogs, inventory, err := a.costAccounts(ctx, order.TenantID)
		if err != nil {
			return PostingResult{}, err
		}
		if cogs != nil && inventory != nil {
			lines = append(lines,
				journals.LineInput{AccountID: cogs.ID, Debit: order.CostOfGoods, BranchID: &branchID},
				journals.LineInput{AccountID: inventory.ID, Credit: order.CostOfGoods, BranchID: &branchID},
			)
		} else {
			a.logger.Warn("cost of goods not posted, accounts missing",
				slog.Int64("tenant_id", order.TenantID),
				slog.String("order_id", order.ID.String()))
		}
	}

	entry, err := a.journals.Create(ctx, order.TenantID, journals.CreateInput{
		Date:      order.CreatedAt,
		Memo:      fmt.Sprintf("Sales order %s (%s)", order.ID, order.PaymentMethod),
		Reference: journals.Reference{Kind: journals.ReferenceOrder, ID: order.ID},
		CreatedBy: createdBy,
		AutoPost:  true,
		Lines:     lines,
	})
	if err != nil {
		return PostingResult{}, err
	}
	return PostingResult{Posted: true, Entry: &entry}, nil
}

// InvoiceOrder issues an invoice for the order through the standard pipeline.
func (a *Adapter) InvoiceOrder(ctx context.Context, order Order) (invoicing.Invoice, error) {
	if a.invoices == nil {
		return invoicing.Invoice{}, errors.New("integration: invoice issuer not configured")
	}
	items := make([]invoicing.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, invoicing.OrderItem{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return a.invoices.CreateFromOrder(ctx, order.TenantID, invoicing.OrderInput{
		OrderID:       order.ID,
		BranchID:      order.BranchID,
		CreatedAt:     order.CreatedAt,
		PaymentMethod: order.PaymentMethod,
		CustomerName:  order.CustomerName,
		Items:         items,
	})
}

// ProcessOrder posts the ledger entry and issues the invoice for a completed
// order. The invoice is issued even when the posting was skipped.
func (a *Adapter) ProcessOrder(ctx context.Context, order Order, createdBy int64) (PostingResult, invoicing.Invoice, error) {
	result, err := a.PostOrderJournal(ctx, order, createdBy)
	if err != nil {
		return PostingResult{}, invoicing.Invoice{}, err
	}
	inv, err := a.InvoiceOrder(ctx, order)
	if err != nil {
		return result, invoicing.Invoice{}, err
	}
	return result, inv, nil
}

func (a *Adapter) costAccounts(ctx context.Context, tenantID int64) (cogs, inventory *accounts.Account, err error) {
	c, err := a.accounts.GetByNumber(ctx, tenantID, accounts.NumberCOGS)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	i, err := a.accounts.GetByNumber(ctx, tenantID, accounts.NumberInventory)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &c, &i, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
