package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts the aggregate queries behind the dashboard.
type RepositoryPort interface {
	CountProducts(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (float64, error)
	RevenueByType(ctx context.Context) ([]TypeRevenue, error)
}

// Repository runs dashboard aggregates against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}

// RevenueBetween sums invoice totals whose creation time falls inside the
// inclusive window.
func (r *Repository) RevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE created_at >= $1 AND created_at <= $2
	`, from, to).Scan(&sum)
	return sum, err
}

// RevenueByType sums line item amounts per product type. Only line items
// whose product still resolves to a type contribute; types without sales are
// absent from the result.
func (r *Repository) RevenueByType(ctx context.Context) ([]TypeRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.name, COALESCE(SUM(ii.amount), 0)
		FROM invoice_items ii
		JOIN products p ON ii.product_id = p.id
		JOIN product_types t ON p.type_id = t.id
		GROUP BY t.name
		ORDER BY 2 DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TypeRevenue{}
	for rows.Next() {
		var tr TypeRevenue
		if err := rows.Scan(&tr.Name, &tr.Value); err != nil {
			return nil, err
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}
