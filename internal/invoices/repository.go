package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/salesdesk/internal/platform/db"
	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

// SaleProduct is the slice of a product the invoice workflow needs. A nil
// Stock means the product is not stock tracked.
type SaleProduct struct {
	ID    string
	Name  string
	Unit  string
	Price float64
	Stock *int64
}

// TxPort is the set of operations available inside one invoice transaction.
type TxPort interface {
	Customer(ctx context.Context, id string) (*InvoiceCustomer, error)
	Creator(ctx context.Context, id string) (*InvoiceCreator, error)
	ProductForSale(ctx context.Context, id string) (*SaleProduct, error)
	NextSequence(ctx context.Context, day time.Time) (int64, error)
	InsertInvoice(ctx context.Context, inv Invoice) error
	DecrementStock(ctx context.Context, productID string, qty int64) (bool, error)
}

// RepositoryPort abstracts invoice persistence for the service.
type RepositoryPort interface {
	InTx(ctx context.Context, fn func(TxPort) error) error
	List(ctx context.Context, creatorID string) ([]Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
}

// PGRepository provides PostgreSQL backed persistence for invoices.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// InTx runs fn in a repeatable read transaction. Numbering, invoice insert
// and stock decrements share the transaction so a failure rolls everything
// back.
func (r *PGRepository) InTx(ctx context.Context, fn func(TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Customer(ctx context.Context, id string) (*InvoiceCustomer, error) {
	var c InvoiceCustomer
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, phone, address FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) Creator(ctx context.Context, id string) (*InvoiceCreator, error) {
	var u InvoiceCreator
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, email, role FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) ProductForSale(ctx context.Context, id string) (*SaleProduct, error) {
	var p SaleProduct
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, unit, price, stock FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Unit, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// NextSequence atomically claims the next per-day sequence number. The upsert
// makes concurrent claimants serialize on the counter row, so two invoices
// issued the same day can never share a number.
func (t *pgTx) NextSequence(ctx context.Context, day time.Time) (int64, error) {
	var seq int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = invoice_counters.seq + 1
		RETURNING seq
	`, day.Format("2006-01-02")).Scan(&seq)
	return seq, err
}

func (t *pgTx) InsertInvoice(ctx context.Context, inv Invoice) error {
	var discountType *string
	if inv.DiscountType != "" {
		discountType = &inv.DiscountType
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoices (id, invoice_id, customer_id, subtotal, discount_type, discount_value, discount_amount, total_amount, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, inv.ID, inv.InvoiceID, inv.Customer.ID, inv.Subtotal, discountType, inv.DiscountValue, inv.DiscountAmount, inv.Total, inv.CreatedBy.ID, inv.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range inv.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, product_id, name, unit, price, quantity, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, inv.ID, item.ProductID, item.Name, item.Unit, item.Price, item.Quantity, item.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

// DecrementStock conditionally reduces stock. It reports false when the
// product does not hold enough stock; products with tracking disabled are
// never passed here.
func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock IS NOT NULL AND stock >= $2
	`, productID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const invoiceColumns = `
	i.id, i.invoice_id, c.id, c.name, c.phone, c.address, i.subtotal,
	COALESCE(i.discount_type, ''), i.discount_value, i.discount_amount,
	i.total_amount, u.id, u.name, u.email, u.role, i.created_at
`

// List returns invoices newest first with the customer and creator records
// resolved. An empty creatorID returns all invoices.
func (r *PGRepository) List(ctx context.Context, creatorID string) ([]Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices i
		JOIN customers c ON i.customer_id = c.id
		JOIN users u ON i.created_by = u.id
	`
	var args []interface{}
	if creatorID != "" {
		query += ` WHERE i.created_by = $1`
		args = append(args, creatorID)
	}
	query += ` ORDER BY i.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Invoice{}
	ids := []string{}
	for rows.Next() {
		var inv Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, err
		}
		result = append(result, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for idx := range result {
		result[idx].Items = items[result[idx].ID]
	}
	return result, nil
}

// Get fetches one invoice with its line items.
func (r *PGRepository) Get(ctx context.Context, id string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices i
		JOIN customers c ON i.customer_id = c.id
		JOIN users u ON i.created_by = u.id
		WHERE i.id = $1
	`, id)

	var inv Invoice
	if err := scanInvoice(row, &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	items, err := r.itemsFor(ctx, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return &inv, nil
}

func (r *PGRepository) itemsFor(ctx context.Context, invoiceIDs []string) (map[string][]LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT invoice_id, product_id, name, unit, price, quantity, amount
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY id
	`, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string][]LineItem{}
	for rows.Next() {
		var invoiceID string
		var item LineItem
		if err := rows.Scan(&invoiceID, &item.ProductID, &item.Name, &item.Unit, &item.Price, &item.Quantity, &item.Amount); err != nil {
			return nil, err
		}
		result[invoiceID] = append(result[invoiceID], item)
	}
	return result, rows.Err()
}

func scanInvoice(row pgx.Row, inv *Invoice) error {
	return row.Scan(
		&inv.ID, &inv.InvoiceID,
		&inv.Customer.ID, &inv.Customer.Name, &inv.Customer.Phone, &inv.Customer.Address,
		&inv.Subtotal, &inv.DiscountType, &inv.DiscountValue, &inv.DiscountAmount, &inv.Total,
		&inv.CreatedBy.ID, &inv.CreatedBy.Name, &inv.CreatedBy.Email, &inv.CreatedBy.Role,
		&inv.CreatedAt,
	)
}
