package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest selects a product and its quantity.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Shipping is the shipping and contact block of an order.
type Shipping struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
}

// ShippingPatch carries only the shipping fields to change.
type ShippingPatch struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Country     *string `json:"country"`
	PostalCode  *string `json:"postal_code"`
}

// CreateOrderRequest describes order creation payload.
type CreateOrderRequest struct {
	Items    []OrderItemRequest `json:"items"`
	Currency string             `json:"currency"`
	Shipping Shipping           `json:"shipping"`
}

// UpdateOrderRequest describes a partial order update. Items, when present,
// replace the whole item set.
type UpdateOrderRequest struct {
	Status   *string            `json:"status"`
	Items    []OrderItemRequest `json:"items"`
	Shipping *ShippingPatch     `json:"shipping"`
}

// OrderItemResponse is an order line with its captured price.
type OrderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the full order representation.
type OrderResponse struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"user_id"`
	Status        string              `json:"status"`
	Currency      string              `json:"currency"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItemResponse `json:"items"`
	Shipping      Shipping            `json:"shipping"`
	Payment       *PaymentResponse    `json:"payment,omitempty"`
	LoyaltyPoints *int64              `json:"loyalty_points,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
