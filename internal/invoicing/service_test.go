package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qayd-app/qayd/internal/zatca"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	invoices map[int64]*Invoice
	seqs     map[string]int64
	txCalls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, invoices: make(map[int64]*Invoice), seqs: make(map[string]int64)}
}

// WithTx serialises callers the way the row lock does in PostgreSQL.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	return fn(ctx, m)
}

func (m *memoryRepo) NextInvoiceNumber(ctx context.Context, tenantID, branchID int64, year int) (int64, error) {
	key := fmt.Sprintf("%d-%d-%d", tenantID, branchID, year)
	m.seqs[key]++
	return m.seqs[key], nil
}

func (m *memoryRepo) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = m.nextID
	m.nextID++
	cp := inv
	m.invoices[inv.ID] = &cp
	return inv, nil
}

func (m *memoryRepo) InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	inv := m.invoices[invoiceID]
	for i := range lines {
		lines[i].InvoiceID = invoiceID
	}
	inv.Lines = append([]InvoiceLine{}, lines...)
	return nil
}

func (m *memoryRepo) List(ctx context.Context, tenantID int64) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, ErrInvoiceNotFound
	}
	return *inv, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	return m.Get(ctx, tenantID, invoiceID)
}

func (m *memoryRepo) UpdatePayment(ctx context.Context, inv Invoice) error {
	stored, ok := m.invoices[inv.ID]
	if !ok || stored.TenantID != inv.TenantID {
		return ErrInvoiceNotFound
	}
	stored.Status = inv.Status
	stored.AmountPaid = inv.AmountPaid
	stored.AmountDue = inv.AmountDue
	return nil
}

var testSeller = Seller{Name: "ACME", VATNumber: "300000000000003"}

func testService(repo *memoryRepo, seller Seller) *Service {
	svc := NewService(repo, seller, slog.New(slog.DiscardHandler))
	return svc.WithNow(func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	})
}

func TestComputeLineRoundsAtEachStep(t *testing.T) {
	line, err := ComputeLine(LineInput{Description: "Latte", Quantity: 2, UnitPrice: 20, DiscountPercent: 10})
	require.NoError(t, err)

	assert.Equal(t, 4.00, line.DiscountAmount)
	assert.Equal(t, 5.40, line.TaxAmount)
	assert.Equal(t, 41.40, line.LineTotal)
	assert.Equal(t, 0.15, line.TaxRate)
}

func TestComputeLineRejectsInvalidInput(t *testing.T) {
	cases := []LineInput{
		{Quantity: 0, UnitPrice: 10},
		{Quantity: -1, UnitPrice: 10},
		{Quantity: 1, UnitPrice: -5},
		{Quantity: 1, UnitPrice: 10, DiscountPercent: 150},
	}
	for _, in := range cases {
		_, err := ComputeLine(in)
		assert.ErrorIs(t, err, ErrInvalidLine)
	}
}

func TestCreateAggregatesRoundedLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)

	inv, err := svc.Create(context.Background(), 1, CreateInput{
		BranchID:     2,
		CustomerName: "Walk-in",
		Lines: []LineInput{
			{Description: "Latte", Quantity: 2, UnitPrice: 20, DiscountPercent: 10},
			{Description: "Croissant", Quantity: 1, UnitPrice: 12},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-000001", inv.Number)
	assert.Equal(t, StatusIssued, inv.Status)
	assert.Equal(t, 52.00, inv.Subtotal)
	assert.Equal(t, 4.00, inv.TotalDiscount)
	assert.Equal(t, 7.20, inv.TotalTax)
	assert.Equal(t, 55.20, inv.GrandTotal)
	assert.Equal(t, 55.20, inv.AmountDue)
	assert.Equal(t, 0.0, inv.AmountPaid)
	assert.Equal(t, "SAR", inv.Currency)
	assert.Equal(t, 1.0, inv.ExchangeRate)

	var lineSum, taxSum float64
	for _, l := range inv.Lines {
		lineSum += l.LineTotal
		taxSum += l.TaxAmount
	}
	assert.Equal(t, inv.GrandTotal, lineSum)
	assert.Equal(t, inv.TotalTax, taxSum)
}

func TestCreateEmbedsDecodableQR(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)

	inv, err := svc.Create(context.Background(), 1, CreateInput{
		Lines: []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, inv.ZATCAHash)
	require.NotEmpty(t, inv.ZATCAQRCode)

	payload, err := zatca.Decode(inv.ZATCAHash)
	require.NoError(t, err)
	assert.Equal(t, "ACME", payload.SellerName)
	assert.Equal(t, "300000000000003", payload.VATNumber)
	assert.Equal(t, "115.00", payload.Total)
	assert.Equal(t, "15.00", payload.VAT)
	assert.Equal(t, "2026-03-15T12:00:00.000Z", payload.Timestamp)
}

func TestCreateSoftSkipsQRWithoutSellerConfig(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, Seller{})

	inv, err := svc.Create(context.Background(), 1, CreateInput{
		Lines: []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err, "missing tax configuration must not block a sale")
	assert.Empty(t, inv.ZATCAHash)
	assert.Empty(t, inv.ZATCAQRCode)
}

func TestCreateRejectsEmptyInvoice(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)

	_, err := svc.Create(context.Background(), 1, CreateInput{})
	require.ErrorIs(t, err, ErrNoLines)
}

func TestInvoiceNumbersSequencePerBranchAndYear(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)
	ctx := context.Background()

	mk := func(branchID int64) Invoice {
		inv, err := svc.Create(ctx, 1, CreateInput{
			BranchID: branchID,
			Lines:    []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 10}},
		})
		require.NoError(t, err)
		return inv
	}

	assert.Equal(t, "INV-2026-000001", mk(1).Number)
	assert.Equal(t, "INV-2026-000002", mk(1).Number)
	assert.Equal(t, "INV-2026-000001", mk(2).Number, "sequence is scoped per branch")
}

func TestCreateFromOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)
	orderID := uuid.New()

	inv, err := svc.CreateFromOrder(context.Background(), 1, OrderInput{
		OrderID:       orderID,
		BranchID:      3,
		CreatedAt:     time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		PaymentMethod: "cash",
		Items: []OrderItem{
			{Description: "Latte", Quantity: 2, UnitPrice: 20, DiscountPercent: 10},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, inv.OrderID)
	assert.Equal(t, orderID, *inv.OrderID)
	assert.Equal(t, 41.40, inv.GrandTotal)
	assert.Equal(t, TypeSales, inv.Type)
}

func TestUpdateStatusDerivesPaymentState(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 1, CreateInput{
		Lines: []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	partial := 50.0
	updated, err := svc.UpdateStatus(ctx, 1, inv.ID, StatusIssued, &partial)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, updated.Status)
	assert.Equal(t, 65.00, updated.AmountDue)

	full := 115.0
	updated, err = svc.UpdateStatus(ctx, 1, inv.ID, StatusIssued, &full)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, 0.0, updated.AmountDue)
}

func TestUpdateStatusExplicitOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 1, CreateInput{
		Lines: []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, 1, inv.ID, StatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	_, err = svc.UpdateStatus(ctx, 1, inv.ID, "refunded", nil)
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = svc.UpdateStatus(ctx, 2, inv.ID, StatusPaid, nil)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestUpdateStatusSerialisesConcurrentPayments(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, testSeller)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 1, CreateInput{
		Lines: []LineInput{{Description: "Order", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	txBefore := repo.txCalls

	var wg sync.WaitGroup
	for _, amount := range []float64{50, 115} {
		wg.Add(1)
		go func(paid float64) {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, 1, inv.ID, StatusIssued, &paid)
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	// both recordings ran inside their own locked transaction, and the
	// stored row reflects exactly one of them, never a mix
	assert.Equal(t, txBefore+2, repo.txCalls)
	stored, err := svc.Get(ctx, 1, inv.ID)
	require.NoError(t, err)
	switch stored.AmountPaid {
	case 50.0:
		assert.Equal(t, StatusPartiallyPaid, stored.Status)
		assert.Equal(t, 65.00, stored.AmountDue)
	case 115.0:
		assert.Equal(t, StatusPaid, stored.Status)
		assert.Equal(t, 0.0, stored.AmountDue)
	default:
		t.Fatalf("unexpected amount paid %v", stored.AmountPaid)
	}
}
