package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest describes a settlement attempt.
type PaymentRequest struct {
	ProviderName string          `json:"provider_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// PaymentResponse describes a recorded payment.
type PaymentResponse struct {
	ID                int64           `json:"id"`
	ProviderName      string          `json:"provider_name"`
	ProviderPaymentID string          `json:"provider_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SettlementResponse is returned after a successful payment.
type SettlementResponse struct {
	Payment       PaymentResponse `json:"payment"`
	ReceiptURL    string          `json:"receipt_url"`
	LoyaltyPoints int64           `json:"loyalty_points"`
}
