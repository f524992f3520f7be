package invoices

import (
	"fmt"
	"time"
)

// Discount types accepted on an invoice.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// LineItem is a snapshot of a product at the moment of sale. Later price or
// name changes on the product do not affect issued invoices.
type LineItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Amount    float64 `json:"amount"`
}

// InvoiceCustomer is the customer record resolved onto an invoice.
type InvoiceCustomer struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address *string `json:"address,omitempty"`
}

// InvoiceCreator is the issuing user resolved onto an invoice. The password
// hash never leaves the users table.
type InvoiceCreator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invoice is an issued sales document.
type Invoice struct {
	ID             string          `json:"id"`
	InvoiceID      string          `json:"invoiceId"`
	Customer       InvoiceCustomer `json:"customer"`
	Items          []LineItem      `json:"items"`
	Subtotal       float64         `json:"subtotal"`
	DiscountType   string          `json:"discountType,omitempty"`
	DiscountValue  float64         `json:"discountValue"`
	DiscountAmount float64         `json:"discountAmount"`
	Total          float64         `json:"total"`
	CreatedBy      InvoiceCreator  `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ItemRequest selects a product and quantity for a new invoice. Price, when
// set, overrides the catalog price for this sale.
type ItemRequest struct {
	ProductID string   `json:"product" validate:"required"`
	Quantity  int64    `json:"quantity" validate:"required,gt=0"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
}

// DiscountRequest carries an optional invoice level discount.
type DiscountRequest struct {
	Type  string  `json:"type" validate:"required,oneof=percentage fixed"`
	Value float64 `json:"value" validate:"gte=0"`
}

// CreateRequest carries the payload for issuing an invoice.
type CreateRequest struct {
	CustomerID string           `json:"customer" validate:"required"`
	Items      []ItemRequest    `json:"items" validate:"required,min=1,dive"`
	Discount   *DiscountRequest `json:"discount" validate:"omitempty"`
}

// FormatInvoiceID renders the human readable invoice number for a day and a
// per-day sequence, e.g. INV-20260830-007.
func FormatInvoiceID(day time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%03d", day.Format("20060102"), seq)
}
