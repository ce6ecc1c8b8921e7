package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the append-only settlement record of an order.
type Payment struct {
	ID                int64
	OrderID           int64
	ProviderName      string
	ProviderPaymentID string
	Amount            decimal.Decimal
	Currency          string
	CreatedAt         time.Time
}

// Settlement is the outcome of a successful payment.
type Settlement struct {
	Payment    Payment
	ReceiptURL string
	Points     int64
}

// ReceiptLine is a single line printed on the receipt.
type ReceiptLine struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// Receipt is the finalized payment snapshot handed to the renderer.
type Receipt struct {
	OrderID           int64
	PaymentID         int64
	ProviderName      string
	ProviderPaymentID string
	Currency          string
	Lines             []ReceiptLine
	Total             decimal.Decimal
	Customer          OrderDetail
	PaidAt            time.Time
}

// NotificationStatus describes receipt delivery state.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSending NotificationStatus = "SENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// ReceiptNotification is an outbox entry for receipt e-mail delivery.
type ReceiptNotification struct {
	ID          int64
	OrderID     int64
	PaymentID   int64
	Email       string
	DocumentURL string
	Status      NotificationStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
