package auth

import (
	"time"

	"github.com/salesdesk/salesdesk/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	LastLogin    *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// RegisterRequest carries a new account registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin supervisor"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries partial profile changes. A password change
// requires the current password.
type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty" validate:"omitempty,min=6"`
}

// UserStats summarises records created by one user.
type UserStats struct {
	InvoicesCreated int64 `json:"invoicesCreated"`
	CustomersAdded  int64 `json:"customersAdded"`
	ProductsManaged int64 `json:"productsManaged"`
}
