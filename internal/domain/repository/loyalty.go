package repository

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// LoyaltyRepository manages the points ledger and its balance cache.
type LoyaltyRepository interface {
	Accrue(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error)
	Redeem(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error)
	Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error)
	ListByUser(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error)
	AccrualByOrder(ctx context.Context, orderID int64) (*model.LoyaltyTransaction, error)
}
