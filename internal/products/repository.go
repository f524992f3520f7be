package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns products, optionally filtered by type, with the type name resolved.
func (r *Repository) List(ctx context.Context, typeID string) ([]Product, error) {
	query := `
		SELECT p.id, p.name, p.price, p.unit, p.type_id, t.name, p.stock, p.created_by, p.created_at
		FROM products p
		JOIN product_types t ON p.type_id = t.id
	`
	var args []interface{}
	if typeID != "" {
		query += ` WHERE p.type_id = $1`
		args = append(args, typeID)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.TypeID, &p.TypeName, &p.Stock, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Get fetches one product by id.
func (r *Repository) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.price, p.unit, p.type_id, t.name, p.stock, p.created_by, p.created_at
		FROM products p
		JOIN product_types t ON p.type_id = t.id
		WHERE p.id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.TypeID, &p.TypeName, &p.Stock, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// TypeExists reports whether a product type row exists.
func (r *Repository) TypeExists(ctx context.Context, typeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM product_types WHERE id = $1)`, typeID).Scan(&exists)
	return exists, err
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, price, unit, type_id, stock, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.Price, p.Unit, p.TypeID, p.Stock, p.CreatedBy, p.CreatedAt)
	return err
}

// Update persists product changes.
func (r *Repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET name = $2, price = $3, unit = $4, type_id = $5, stock = $6 WHERE id = $1
	`, p.ID, p.Name, p.Price, p.Unit, p.TypeID, p.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
