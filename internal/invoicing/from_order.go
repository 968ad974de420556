package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderItem is one sold item from an external order.
type OrderItem struct {
	Description     string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
}

// OrderInput is the slice of an external order the issuer needs.
type OrderInput struct {
	OrderID       uuid.UUID
	BranchID      int64
	CreatedAt     time.Time
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
	Items         []OrderItem
}

// CreateFromOrder issues an invoice sourced from an order's items, through
// the same computation pipeline as Create. When seller VAT configuration is
// absent the QR fields are left empty rather than failing the issuance.
func (s *Service) CreateFromOrder(ctx context.Context, tenantID int64, in OrderInput) (Invoice, error) {
	lines := make([]LineInput, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, LineInput{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	orderID := in.OrderID
	return s.Create(ctx, tenantID, CreateInput{
		BranchID:      in.BranchID,
		Date:          in.CreatedAt,
		Type:          TypeSales,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		PaymentMethod: in.PaymentMethod,
		OrderID:       &orderID,
		Lines:         lines,
	})
}
