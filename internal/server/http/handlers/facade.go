package handlers

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, email, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (model.Requester, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, req usecase.CreateOrderRequest) (*model.Order, error)
	Order(ctx context.Context, requester model.Requester, id int64) (*model.Order, error)
	Orders(ctx context.Context, requester model.Requester) ([]model.Order, error)
	UpdateOrder(ctx context.Context, requester model.Requester, id int64, req usecase.UpdateOrderRequest) (*model.Order, error)
	DeleteOrder(ctx context.Context, requester model.Requester, id int64) error
}

// PaymentFacade settles orders.
type PaymentFacade interface {
	Pay(ctx context.Context, req usecase.PaymentRequest) (*model.Settlement, error)
}

// LoyaltyFacade provides loyalty ledger operations.
type LoyaltyFacade interface {
	Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error)
	LoyaltyHistory(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error)
	Redeem(ctx context.Context, requester model.Requester, orderID, points int64) (*model.LoyaltyTransaction, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	OrderFacade
	PaymentFacade
	LoyaltyFacade
}

// HealthChecker reports storage availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
