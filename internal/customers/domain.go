package customers

import "time"

// Customer is a party invoices are issued to. Phone numbers are unique.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   *string   `json:"address,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest carries the payload for registering a customer.
type CreateRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Phone   string  `json:"phone" validate:"required,max=30"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// UpdateRequest carries partial customer changes.
type UpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}
