package model

import "time"

// LoyaltyKind distinguishes ledger entry direction.
type LoyaltyKind string

const (
	LoyaltyKindAccrual    LoyaltyKind = "ACCRUAL"
	LoyaltyKindRedemption LoyaltyKind = "REDEMPTION"
)

// LoyaltyTransaction is an append-only loyalty ledger entry.
type LoyaltyTransaction struct {
	ID        int64
	UserID    int64
	OrderID   int64
	Kind      LoyaltyKind
	Points    int64
	CreatedAt time.Time
}

// LoyaltyBalance aggregates current and redeemed loyalty points.
type LoyaltyBalance struct {
	Current  int64
	Redeemed int64
}
