package producttypes

import "time"

// ProductType categorises products for the catalog and dashboard breakdowns.
type ProductType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest carries a new product type.
type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
}

// UpdateRequest carries product type changes.
type UpdateRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
}
