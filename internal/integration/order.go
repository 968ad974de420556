package integration

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one line of an external sales order.
type OrderItem struct {
	Description     string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
}

// Order is the slice of the external order collaborator the adapter consumes.
// TotalAmount is VAT-inclusive; CostOfGoods is optional and zero when the
// platform does not track inventory costing for the order.
type Order struct {
	ID            uuid.UUID
	TenantID      int64
	BranchID      int64
	TotalAmount   float64
	CostOfGoods   float64
	PaymentMethod string
	CustomerName  string
	CreatedAt     time.Time
	Items         []OrderItem
}
