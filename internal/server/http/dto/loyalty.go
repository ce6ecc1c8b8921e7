package dto

import "time"

// LoyaltyBalanceResponse represents summary of loyalty points.
type LoyaltyBalanceResponse struct {
	Current  int64 `json:"current"`
	Redeemed int64 `json:"redeemed"`
}

// LoyaltyTransactionResponse describes a ledger entry.
type LoyaltyTransactionResponse struct {
	ID        int64     `json:"id"`
	OrderID   *int64    `json:"order_id,omitempty"`
	Kind      string    `json:"kind"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// RedeemRequest spends points, optionally against an order.
type RedeemRequest struct {
	OrderID int64 `json:"order_id"`
	Points  int64 `json:"points"`
}
