package products

import "time"

// Product is a sellable catalog item. Stock is nil when stock tracking is
// disabled for the product; such products are exempt from availability checks.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Unit      string    `json:"unit"`
	TypeID    string    `json:"type"`
	TypeName  string    `json:"typeName,omitempty"`
	Stock     *int64    `json:"stock,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest carries a new product.
type CreateRequest struct {
	Name   string  `json:"name" validate:"required,max=200"`
	Price  float64 `json:"price" validate:"gte=0"`
	Unit   string  `json:"unit" validate:"required,max=50"`
	TypeID string  `json:"type" validate:"required"`
	Stock  *int64  `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// UpdateRequest carries partial product changes.
type UpdateRequest struct {
	Name   *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Unit   *string  `json:"unit,omitempty" validate:"omitempty,max=50"`
	TypeID *string  `json:"type,omitempty"`
	Stock  *int64   `json:"stock,omitempty" validate:"omitempty,gte=0"`
}
