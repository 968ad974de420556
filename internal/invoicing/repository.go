package invoicing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qayd-app/qayd/internal/platform/db"
)

// TxRepository exposes transactional operations for issuance and payment
// recording.
type TxRepository interface {
	NextInvoiceNumber(ctx context.Context, tenantID, branchID int64, year int) (int64, error)
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error
	GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error)
	UpdatePayment(ctx context.Context, inv Invoice) error
}

// RepositoryPort abstracts invoice persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, tenantID int64) ([]Invoice, error)
	Get(ctx context.Context, tenantID, invoiceID int64) (Invoice, error)
}

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextInvoiceNumber(ctx context.Context, tenantID, branchID int64, year int) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO document_sequences (tenant_id, branch_id, doc_type, year, last_value)
VALUES ($1, $2, 'invoice', $3, 1)
ON CONFLICT (tenant_id, branch_id, doc_type, year)
DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`, tenantID, branchID, year).Scan(&seq)
	return seq, err
}

func (r *txRepository) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoices
(tenant_id, branch_id, number, date, type, status,
 customer_name, customer_phone, customer_email, customer_vat,
 subtotal, total_discount, total_tax, grand_total, amount_paid, amount_due,
 currency, exchange_rate, payment_method, order_id, zatca_qr_code, zatca_hash)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
RETURNING id, created_at, updated_at`,
		inv.TenantID, inv.BranchID, inv.Number, inv.Date, inv.Type, inv.Status,
		inv.CustomerName, inv.CustomerPhone, inv.CustomerEmail, inv.CustomerVAT,
		inv.Subtotal, inv.TotalDiscount, inv.TotalTax, inv.GrandTotal, inv.AmountPaid, inv.AmountDue,
		inv.Currency, inv.ExchangeRate, inv.PaymentMethod, inv.OrderID, inv.ZATCAQRCode, inv.ZATCAHash)
	if err := row.Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines
(invoice_id, description, quantity, unit_price, discount_percent, discount_amount, tax_rate, tax_amount, line_total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			invoiceID, line.Description, line.Quantity, line.UnitPrice, line.DiscountPercent,
			line.DiscountAmount, line.TaxRate, line.TaxAmount, line.LineTotal); err != nil {
			return err
		}
	}
	return nil
}

const invoiceColumns = `id, tenant_id, branch_id, number, date, type, status,
customer_name, customer_phone, customer_email, customer_vat,
subtotal, total_discount, total_tax, grand_total, amount_paid, amount_due,
currency, exchange_rate, payment_method, order_id, zatca_qr_code, zatca_hash,
created_at, updated_at`

func (r *Repository) List(ctx context.Context, tenantID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 ORDER BY number DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	return getInvoice(ctx, r.pool, tenantID, invoiceID, false)
}

// GetForUpdate locks the invoice row for the duration of the transaction so
// concurrent payment recordings serialise instead of losing updates.
func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, error) {
	return getInvoice(ctx, r.tx, tenantID, invoiceID, true)
}

func (r *txRepository) UpdatePayment(ctx context.Context, inv Invoice) error {
	tag, err := r.tx.Exec(ctx, `UPDATE invoices
SET status = $3, amount_paid = $4, amount_due = $5, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2`, inv.TenantID, inv.ID, inv.Status, inv.AmountPaid, inv.AmountDue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getInvoice(ctx context.Context, q querier, tenantID, invoiceID int64, lock bool) (Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	rows, err := q.Query(ctx, `SELECT id, invoice_id, description, quantity, unit_price, discount_percent, discount_amount, tax_rate, tax_amount, line_total
FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.DiscountAmount, &l.TaxRate, &l.TaxAmount, &l.LineTotal); err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.BranchID, &inv.Number, &inv.Date, &inv.Type, &inv.Status,
		&inv.CustomerName, &inv.CustomerPhone, &inv.CustomerEmail, &inv.CustomerVAT,
		&inv.Subtotal, &inv.TotalDiscount, &inv.TotalTax, &inv.GrandTotal, &inv.AmountPaid, &inv.AmountDue,
		&inv.Currency, &inv.ExchangeRate, &inv.PaymentMethod, &inv.OrderID, &inv.ZATCAQRCode, &inv.ZATCAHash,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}
