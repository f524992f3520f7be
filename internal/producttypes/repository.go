package producttypes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/salesdesk/internal/platform/db"
	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for product types.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all product types sorted by name.
func (r *Repository) List(ctx context.Context) ([]ProductType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at FROM product_types ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []ProductType{}
	for rows.Next() {
		var pt ProductType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Description, &pt.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

// Get fetches one product type by id.
func (r *Repository) Get(ctx context.Context, id string) (*ProductType, error) {
	var pt ProductType
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM product_types WHERE id = $1
	`, id).Scan(&pt.ID, &pt.Name, &pt.Description, &pt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &pt, nil
}

// Create inserts a new product type.
func (r *Repository) Create(ctx context.Context, pt ProductType) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_types (id, name, description, created_at) VALUES ($1, $2, $3, $4)
	`, pt.ID, pt.Name, pt.Description, pt.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: product type %q already exists", httpx.ErrDuplicate, pt.Name)
	}
	return err
}

// Update renames a product type.
func (r *Repository) Update(ctx context.Context, pt ProductType) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE product_types SET name = $2, description = $3 WHERE id = $1
	`, pt.ID, pt.Name, pt.Description)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: product type %q already exists", httpx.ErrDuplicate, pt.Name)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a product type.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
