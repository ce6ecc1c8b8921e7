package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn func(context.Context, usecase.CreateOrderRequest) (*model.Order, error)
	OrderFn  func(context.Context, model.Requester, int64) (*model.Order, error)
	OrdersFn func(context.Context, model.Requester) ([]model.Order, error)
	UpdateFn func(context.Context, model.Requester, int64, usecase.UpdateOrderRequest) (*model.Order, error)
	DeleteFn func(context.Context, model.Requester, int64) error
}

// CreateOrder delegates to provided function or echoes a NEW order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, req usecase.CreateOrderRequest) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	return &model.Order{ID: 1, UserID: req.BuyerID, Status: model.OrderStatusNew, Currency: req.Currency, Detail: req.Shipping}, nil
}

// Order returns a single order.
func (s OrderFacadeStub) Order(ctx context.Context, requester model.Requester, id int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, requester, id)
	}
	return &model.Order{ID: id, UserID: requester.UserID, Status: model.OrderStatusNew}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, requester model.Requester) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, requester)
	}
	return []model.Order{{ID: 1, UserID: requester.UserID, Status: model.OrderStatusNew}}, nil
}

// UpdateOrder applies configured update behaviour.
func (s OrderFacadeStub) UpdateOrder(ctx context.Context, requester model.Requester, id int64, req usecase.UpdateOrderRequest) (*model.Order, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, requester, id, req)
	}
	order := &model.Order{ID: id, UserID: requester.UserID, Status: model.OrderStatusNew}
	if req.Status != nil {
		order.Status = *req.Status
	}
	return order, nil
}

// DeleteOrder executes configured delete handler.
func (s OrderFacadeStub) DeleteOrder(ctx context.Context, requester model.Requester, id int64) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, requester, id)
	}
	return nil
}

// PaymentFacadeStub simulates settlement.
type PaymentFacadeStub struct {
	PayFn func(context.Context, usecase.PaymentRequest) (*model.Settlement, error)
}

// Pay returns configured settlement or a default one.
func (s PaymentFacadeStub) Pay(ctx context.Context, req usecase.PaymentRequest) (*model.Settlement, error) {
	if s.PayFn != nil {
		return s.PayFn(ctx, req)
	}
	return &model.Settlement{
		Payment: model.Payment{
			ID:                1,
			OrderID:           req.OrderID,
			ProviderName:      req.ProviderName,
			ProviderPaymentID: "pay-1",
			Amount:            req.Amount,
			Currency:          req.Currency,
			CreatedAt:         time.Unix(0, 0),
		},
		ReceiptURL: "https://receipts.local/1.pdf",
		Points:     req.Amount.Mul(decimal.RequireFromString("0.05")).Floor().IntPart(),
	}, nil
}

// LoyaltyFacadeStub simulates loyalty ledger operations.
type LoyaltyFacadeStub struct {
	BalanceFn func(context.Context, int64) (*model.LoyaltyBalance, error)
	HistoryFn func(context.Context, int64) ([]model.LoyaltyTransaction, error)
	RedeemFn  func(context.Context, model.Requester, int64, int64) (*model.LoyaltyTransaction, error)
}

// Balance returns stored balance or default data.
func (s LoyaltyFacadeStub) Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, userID)
	}
	return &model.LoyaltyBalance{Current: 10, Redeemed: 5}, nil
}

// LoyaltyHistory returns preconfigured ledger entries.
func (s LoyaltyFacadeStub) LoyaltyHistory(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, userID)
	}
	return []model.LoyaltyTransaction{{ID: 1, UserID: userID, OrderID: 1, Kind: model.LoyaltyKindAccrual, Points: 10, CreatedAt: time.Unix(0, 0)}}, nil
}

// Redeem executes configured redemption handler.
func (s LoyaltyFacadeStub) Redeem(ctx context.Context, requester model.Requester, orderID, points int64) (*model.LoyaltyTransaction, error) {
	if s.RedeemFn != nil {
		return s.RedeemFn(ctx, requester, orderID, points)
	}
	return &model.LoyaltyTransaction{ID: 2, UserID: requester.UserID, OrderID: orderID, Kind: model.LoyaltyKindRedemption, Points: points}, nil
}

// ReceiptUpdate stores information about outbox status changes.
type ReceiptUpdate struct {
	ID     int64
	Sent   bool
	Reason string
}

// WorkerFacadeStub mimics dispatcher interactions with the marketplace facade.
type WorkerFacadeStub struct {
	Batches    [][]model.ReceiptNotification
	ClaimFn    func(context.Context, int) ([]model.ReceiptNotification, error)
	DeliverFn  func(context.Context, model.ReceiptNotification) error
	Updates    []ReceiptUpdate
	Delivered  []int64
	mu         sync.Mutex
	claimCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// ClaimReceipts returns batches from configured queue.
func (s *WorkerFacadeStub) ClaimReceipts(ctx context.Context, limit int) ([]model.ReceiptNotification, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.claimCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// DeliverReceipt records delivery attempts.
func (s *WorkerFacadeStub) DeliverReceipt(ctx context.Context, n model.ReceiptNotification) error {
	s.mu.Lock()
	s.Delivered = append(s.Delivered, n.ID)
	s.mu.Unlock()
	if s.DeliverFn != nil {
		return s.DeliverFn(ctx, n)
	}
	return nil
}

// MarkReceiptSent records a successful delivery.
func (s *WorkerFacadeStub) MarkReceiptSent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, ReceiptUpdate{ID: id, Sent: true})
	return nil
}

// MarkReceiptFailed records a failed delivery.
func (s *WorkerFacadeStub) MarkReceiptFailed(ctx context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, ReceiptUpdate{ID: id, Reason: reason})
	return nil
}

// RendererStub records rendered receipts.
type RendererStub struct {
	mu       sync.Mutex
	Receipts []model.Receipt
	Err      error
}

// Render returns a deterministic document URL.
func (r *RendererStub) Render(ctx context.Context, receipt model.Receipt) (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Receipts = append(r.Receipts, receipt)
	return "https://receipts.local/" + receipt.ProviderPaymentID + ".pdf", nil
}

// NotifierStub records sent notifications.
type NotifierStub struct {
	mu   sync.Mutex
	Sent []model.ReceiptNotification
	Err  error
	// OnSend runs before the outcome is decided.
	OnSend func(ctx context.Context, notification model.ReceiptNotification)
}

// SendReceipt records the notification unless configured to fail.
func (n *NotifierStub) SendReceipt(ctx context.Context, notification model.ReceiptNotification) error {
	if n.OnSend != nil {
		n.OnSend(ctx, notification)
	}
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, notification)
	return nil
}

// Count returns number of recorded notifications.
func (n *NotifierStub) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// GuardStub controls settlement guard outcome.
type GuardStub struct {
	Err      error
	Acquired int32
	Released int32
}

// Acquire returns configured error or a release func counting releases.
func (g *GuardStub) Acquire(ctx context.Context, orderID int64) (func(), error) {
	if g.Err != nil {
		return nil, g.Err
	}
	atomic.AddInt32(&g.Acquired, 1)
	return func() { atomic.AddInt32(&g.Released, 1) }, nil
}

var (
	_ usecase.ReceiptRenderer = (*RendererStub)(nil)
	_ usecase.Notifier        = (*NotifierStub)(nil)
	_ usecase.SettlementGuard = (*GuardStub)(nil)
)
