package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
	StatsByUser(ctx context.Context, userID string) (UserStats, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, last_login, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.LastLogin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record.
func (r *PGRepository) Create(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	return err
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Update persists profile changes.
func (r *PGRepository) Update(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, email = $3, password_hash = $4 WHERE id = $1
	`, user.ID, user.Name, user.Email, user.PasswordHash)
	return err
}

// TouchLastLogin records a successful login.
func (r *PGRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}

// CountActiveSince counts users who logged in or were created since the given instant.
func (r *PGRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE last_login >= $1 OR created_at >= $1
	`, since).Scan(&count)
	return count, err
}

// StatsByUser counts invoices, customers and products created by one user.
func (r *PGRepository) StatsByUser(ctx context.Context, userID string) (UserStats, error) {
	var stats UserStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM invoices WHERE created_by = $1),
			(SELECT COUNT(*) FROM customers WHERE created_by = $1),
			(SELECT COUNT(*) FROM products WHERE created_by = $1)
	`, userID).Scan(&stats.InvoicesCreated, &stats.CustomersAdded, &stats.ProductsManaged)
	return stats, err
}

var _ Repository = (*PGRepository)(nil)
