package invoicing

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/qayd-app/qayd/internal/zatca"
)

// TimestampLayout is the invoice timestamp format embedded in QR payloads.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Seller holds the legal identity stamped into QR payloads. A zero value
// means no seller VAT configuration: invoices are issued with empty QR
// fields rather than failing, a missing tax configuration must never block
// a sale.
type Seller struct {
	Name      string
	VATNumber string
}

// Configured reports whether the seller identity is usable for QR payloads.
func (s Seller) Configured() bool {
	return s.Name != "" && zatca.ValidVATNumber(s.VATNumber)
}

// Counter counts issued invoices. Optional.
type Counter interface {
	InvoiceIssued()
}

// LineInput describes one invoice line request.
type LineInput struct {
	Description     string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
}

// CreateInput groups fields required to issue an invoice.
type CreateInput struct {
	BranchID      int64
	Date          time.Time
	Type          InvoiceType
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	CustomerVAT   string
	Currency      string
	ExchangeRate  float64
	PaymentMethod string
	OrderID       *uuid.UUID
	Lines         []LineInput
}

// Service issues invoices and maintains their payment state.
type Service struct {
	repo    RepositoryPort
	seller  Seller
	logger  *slog.Logger
	metrics Counter
	now     func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, seller Seller, logger *slog.Logger) *Service {
	return &Service{repo: repo, seller: seller, logger: logger, now: time.Now}
}

// WithMetrics attaches an issuance counter.
func (s *Service) WithMetrics(m Counter) *Service {
	s.metrics = m
	return s
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create issues an invoice. Each line's discount, taxable base, tax and total
// are rounded to two decimals as they are computed, and the invoice totals
// are sums of those rounded lines, so the stored document always satisfies
// grandTotal == sum(lineTotal) exactly.
func (s *Service) Create(ctx context.Context, tenantID int64, in CreateInput) (Invoice, error) {
	if len(in.Lines) == 0 {
		return Invoice{}, ErrNoLines
	}
	lines := make([]InvoiceLine, 0, len(in.Lines))
	var subtotal, discount, tax, grand float64
	for idx, li := range in.Lines {
		line, err := ComputeLine(li)
		if err != nil {
			return Invoice{}, fmt.Errorf("line %d: %w", idx, err)
		}
		lines = append(lines, line)
		subtotal = round2(subtotal + round2(li.Quantity*li.UnitPrice))
		discount = round2(discount + line.DiscountAmount)
		tax = round2(tax + line.TaxAmount)
		grand = round2(grand + line.LineTotal)
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	invType := in.Type
	if invType == "" {
		invType = TypeSales
	}
	currency := in.Currency
	if currency == "" {
		currency = "SAR"
	}
	rate := in.ExchangeRate
	if rate == 0 {
		rate = 1
	}

	inv := Invoice{
		TenantID:      tenantID,
		BranchID:      in.BranchID,
		Date:          date,
		Type:          invType,
		Status:        StatusIssued,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		CustomerVAT:   in.CustomerVAT,
		Subtotal:      subtotal,
		TotalDiscount: discount,
		TotalTax:      tax,
		GrandTotal:    grand,
		AmountPaid:    0,
		AmountDue:     grand,
		Currency:      currency,
		ExchangeRate:  rate,
		PaymentMethod: in.PaymentMethod,
		OrderID:       in.OrderID,
	}

	if s.seller.Configured() {
		hash, qr, err := s.buildQR(date, grand, tax)
		if err != nil {
			return Invoice{}, err
		}
		inv.ZATCAHash = hash
		inv.ZATCAQRCode = qr
	} else {
		s.logger.Warn("seller VAT not configured, invoice issued without QR",
			slog.Int64("tenant_id", tenantID))
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextInvoiceNumber(ctx, tenantID, in.BranchID, date.Year())
		if err != nil {
			return err
		}
		inv.Number = InvoiceNumber(date.Year(), seq)
		inv, err = tx.Insert(ctx, inv)
		if err != nil {
			return err
		}
		return tx.InsertLines(ctx, inv.ID, lines)
	})
	if err != nil {
		return Invoice{}, err
	}
	for i := range lines {
		lines[i].InvoiceID = inv.ID
	}
	inv.Lines = lines

	if s.metrics != nil {
		s.metrics.InvoiceIssued()
	}
	s.logger.Info("invoice issued",
		slog.Int64("tenant_id", tenantID),
		slog.String("number", inv.Number),
		slog.Float64("grand_total", inv.GrandTotal))
	return inv, nil
}

// UpdateStatus applies a payment or explicit status change. AmountDue is
// recomputed from the recorded payment, and paid/partially_paid are derived
// from amountPaid against the grand total; other explicit statuses are
// accepted as given. The read and write happen under a row lock so two
// concurrent recordings cannot clobber each other.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus, amountPaid *float64) (Invoice, error) {
	switch status {
	case StatusIssued, StatusPartiallyPaid, StatusPaid, StatusCancelled:
	default:
		return Invoice{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	var out Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		inv.Status = status
		if amountPaid != nil {
			inv.AmountPaid = round2(*amountPaid)
			inv.AmountDue = round2(inv.GrandTotal - inv.AmountPaid)
			switch {
			case inv.AmountPaid >= inv.GrandTotal:
				inv.Status = StatusPaid
			case inv.AmountPaid > 0:
				inv.Status = StatusPartiallyPaid
			}
		}
		if err := tx.UpdatePayment(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return out, nil
}

// List returns the tenant's invoices, newest first.
func (s *Service) List(ctx context.Context, tenantID int64) ([]Invoice, error) {
	return s.repo.List(ctx, tenantID)
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	return s.repo.Get(ctx, tenantID, invoiceID)
}

func (s *Service) buildQR(date time.Time, grand, tax float64) (hash, qr string, err error) {
	payload := zatca.Payload{
		SellerName: s.seller.Name,
		VATNumber:  s.seller.VATNumber,
		Timestamp:  date.UTC().Format(TimestampLayout),
		Total:      zatca.Amount(grand),
		VAT:        zatca.Amount(tax),
	}
	hash, err = zatca.Encode(payload)
	if err != nil {
		return "", "", err
	}
	png, err := zatca.QRPNG(hash, zatca.QRSize)
	if err != nil {
		return "", "", err
	}
	return hash, base64.StdEncoding.EncodeToString(png), nil
}

// ComputeLine derives the monetary fields for one line, rounding each value
// at computation time.
func ComputeLine(in LineInput) (InvoiceLine, error) {
	if in.Quantity <= 0 || in.UnitPrice < 0 || in.DiscountPercent < 0 || in.DiscountPercent > 100 {
		return InvoiceLine{}, ErrInvalidLine
	}
	gross := round2(in.Quantity * in.UnitPrice)
	discount := round2(gross * in.DiscountPercent / 100)
	taxable := round2(gross - discount)
	tax := round2(taxable * zatca.VATRate)
	total := round2(taxable + tax)
	return InvoiceLine{
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: in.DiscountPercent,
		DiscountAmount:  discount,
		TaxRate:         zatca.VATRate,
		TaxAmount:       tax,
		LineTotal:       total,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
