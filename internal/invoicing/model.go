package invoicing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceType enumerates document kinds.
type InvoiceType string

const (
	TypeSales      InvoiceType = "sales"
	TypeCreditNote InvoiceType = "credit_note"
)

// InvoiceStatus enumerates payment states.
type InvoiceStatus string

const (
	StatusIssued        InvoiceStatus = "issued"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusPaid          InvoiceStatus = "paid"
	StatusCancelled     InvoiceStatus = "cancelled"
)

// Invoice is a tenant+branch-scoped billing document. Customer fields are
// snapshots taken at issuance, not live references.
type Invoice struct {
	ID            int64
	TenantID      int64
	BranchID      int64
	Number        string
	Date          time.Time
	Type          InvoiceType
	Status        InvoiceStatus
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	CustomerVAT   string
	Lines         []InvoiceLine
	Subtotal      float64
	TotalDiscount float64
	TotalTax      float64
	GrandTotal    float64
	AmountPaid    float64
	AmountDue     float64
	Currency      string
	ExchangeRate  float64
	PaymentMethod string
	OrderID       *uuid.UUID
	ZATCAQRCode   string
	ZATCAHash     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceLine holds per-line amounts, each rounded to two decimals at
// computation time rather than derived from unrounded intermediates.
type InvoiceLine struct {
	ID              int64
	InvoiceID       int64
	Description     string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
	DiscountAmount  float64
	TaxRate         float64
	TaxAmount       float64
	LineTotal       float64
}

var (
	// ErrInvoiceNotFound indicates a missing invoice.
	ErrInvoiceNotFound = errors.New("invoicing: invoice not found")
	// ErrNoLines indicates an invoice without lines.
	ErrNoLines = errors.New("invoicing: invoice requires at least one line")
	// ErrInvalidLine indicates a line with non-positive quantity or negative
	// price or an out-of-range discount.
	ErrInvalidLine = errors.New("invoicing: invalid line")
	// ErrUnknownStatus indicates an unrecognised status value.
	ErrUnknownStatus = errors.New("invoicing: unknown status")
)

// InvoiceNumber formats a sequential invoice number, scoped per
// tenant+branch+year.
func InvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%06d", year, seq)
}
