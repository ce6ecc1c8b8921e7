package app

import (
	"context"
	"errors"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// MarketplaceFacade is the single entry point used by transport and workers.
type MarketplaceFacade struct {
	auth        *usecase.AuthUseCase
	orders      *usecase.OrderUseCase
	payments    *usecase.PaymentUseCase
	loyalty     *usecase.LoyaltyUseCase
	receipts    repository.ReceiptRepository
	notifier    usecase.Notifier
	maxAttempts int
}

func NewMarketplaceFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	payments *usecase.PaymentUseCase,
	loyalty *usecase.LoyaltyUseCase,
	receipts repository.ReceiptRepository,
	notifier usecase.Notifier,
	maxAttempts int,
) *MarketplaceFacade {
	return &MarketplaceFacade{
		auth:        auth,
		orders:      orders,
		payments:    payments,
		loyalty:     loyalty,
		receipts:    receipts,
		notifier:    notifier,
		maxAttempts: maxAttempts,
	}
}

func (f *MarketplaceFacade) Register(ctx context.Context, login, email, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, email, password)
	return token, err
}

func (f *MarketplaceFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *MarketplaceFacade) ParseToken(token string) (model.Requester, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketplaceFacade) CreateOrder(ctx context.Context, req usecase.CreateOrderRequest) (*model.Order, error) {
	return f.orders.Create(ctx, req)
}

func (f *MarketplaceFacade) Order(ctx context.Context, requester model.Requester, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, requester, id)
}

func (f *MarketplaceFacade) Orders(ctx context.Context, requester model.Requester) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, requester)
}

func (f *MarketplaceFacade) UpdateOrder(ctx context.Context, requester model.Requester, id int64, req usecase.UpdateOrderRequest) (*model.Order, error) {
	return f.orders.Update(ctx, requester, id, req)
}

func (f *MarketplaceFacade) DeleteOrder(ctx context.Context, requester model.Requester, id int64) error {
	return f.orders.Delete(ctx, requester, id)
}

func (f *MarketplaceFacade) Pay(ctx context.Context, req usecase.PaymentRequest) (*model.Settlement, error) {
	return f.payments.Process(ctx, req)
}

func (f *MarketplaceFacade) Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error) {
	balance, err := f.loyalty.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return &model.LoyaltyBalance{}, nil
		}
		return nil, err
	}
	return balance, nil
}

func (f *MarketplaceFacade) LoyaltyHistory(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	return f.loyalty.History(ctx, userID)
}

func (f *MarketplaceFacade) Redeem(ctx context.Context, requester model.Requester, orderID, points int64) (*model.LoyaltyTransaction, error) {
	return f.loyalty.Redeem(ctx, requester, orderID, points)
}

func (f *MarketplaceFacade) ClaimReceipts(ctx context.Context, limit int) ([]model.ReceiptNotification, error) {
	return f.receipts.ClaimPending(ctx, limit)
}

func (f *MarketplaceFacade) DeliverReceipt(ctx context.Context, n model.ReceiptNotification) error {
	return f.notifier.SendReceipt(ctx, n)
}

func (f *MarketplaceFacade) MarkReceiptSent(ctx context.Context, id int64) error {
	return f.receipts.MarkSent(ctx, id)
}

func (f *MarketplaceFacade) MarkReceiptFailed(ctx context.Context, id int64, reason string) error {
	return f.receipts.MarkFailed(ctx, id, reason, f.maxAttempts)
}
