package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
	"github.com/polkiloo/marketplace/internal/pkg/metrics"
)

// ReceiptRenderer turns a receipt snapshot into a stored document and returns its URL.
type ReceiptRenderer interface {
	Render(ctx context.Context, receipt model.Receipt) (string, error)
}

// Notifier delivers the receipt link to the buyer.
type Notifier interface {
	SendReceipt(ctx context.Context, n model.ReceiptNotification) error
}

// SettlementGuard serializes settlement attempts for one order across instances.
// Acquire returns ErrConflict when another attempt holds the guard.
type SettlementGuard interface {
	Acquire(ctx context.Context, orderID int64) (release func(), err error)
}

// NopGuard never blocks.
type NopGuard struct{}

// Acquire always succeeds.
func (NopGuard) Acquire(context.Context, int64) (func(), error) { return func() {}, nil }

// PaymentRequest describes a settlement attempt.
type PaymentRequest struct {
	Requester    model.Requester
	OrderID      int64
	ProviderName string
	Amount       decimal.Decimal
	Currency     string
}

// PaymentUseCase settles orders exactly once.
type PaymentUseCase struct {
	uow         repository.UnitOfWork
	renderer    ReceiptRenderer
	notifier    Notifier
	guard       SettlementGuard
	loyaltyRate decimal.Decimal
	maxAttempts int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// PaymentOptions carries optional collaborators of PaymentUseCase.
type PaymentOptions struct {
	Guard       SettlementGuard
	LoyaltyRate decimal.Decimal
	// MaxAttempts bounds receipt delivery attempts, the inline one included.
	MaxAttempts int
	Metrics     *metrics.Metrics
}

const defaultMaxAttempts = 5

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(uow repository.UnitOfWork, renderer ReceiptRenderer, notifier Notifier, logger *slog.Logger, opts PaymentOptions) *PaymentUseCase {
	guard := opts.Guard
	if guard == nil {
		guard = NopGuard{}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &PaymentUseCase{
		uow:         uow,
		renderer:    renderer,
		notifier:    notifier,
		guard:       guard,
		loyaltyRate: opts.LoyaltyRate,
		maxAttempts: maxAttempts,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Process settles the order: stock is decremented, the payment recorded,
// loyalty points accrued and a receipt rendered within one transaction.
// The receipt link is sent after commit; the outbox row is written already leased
// so the dispatcher leaves it alone unless the inline send fails or stalls.
func (u *PaymentUseCase) Process(ctx context.Context, req PaymentRequest) (settlement *model.Settlement, err error) {
	started := time.Now()
	defer func() {
		u.metrics.ObserveSettlement(settlementOutcome(err), time.Since(started))
	}()

	code, err := validatePayment(req)
	if err != nil {
		return nil, err
	}

	release, err := u.guard.Acquire(ctx, req.OrderID)
	switch {
	case errors.Is(err, domainErrors.ErrConflict):
		return nil, err
	case err != nil:
		u.logger.Warn("settlement guard unavailable", slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		release = func() {}
	}
	defer release()

	var notification model.ReceiptNotification
	err = u.uow.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		order, err := repos.Orders().GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if !req.Requester.CanAccess(order.UserID) {
			return domainErrors.ErrForbidden
		}
		if err := checkPayable(ctx, repos, order); err != nil {
			return err
		}

		total := order.Total()
		var errs []error
		if code != order.Currency {
			errs = append(errs, domainErrors.NewValidation("currency",
				fmt.Sprintf("payment currency %s does not match order currency %s", code, order.Currency)))
		}
		if !req.Amount.Equal(total) {
			errs = append(errs, domainErrors.NewValidation("amount",
				fmt.Sprintf("amount %s does not match order total %s", req.Amount.StringFixed(2), total.StringFixed(2))))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}

		products, err := reserveStock(ctx, repos, order)
		if err != nil {
			return err
		}

		if err := repos.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPaid); err != nil {
			return err
		}
		payment := model.Payment{
			OrderID:           order.ID,
			ProviderName:      strings.TrimSpace(req.ProviderName),
			ProviderPaymentID: uuid.NewString(),
			Amount:            req.Amount,
			Currency:          code,
		}
		if err := repos.Payments().Create(ctx, &payment); err != nil {
			return err
		}

		points := req.Amount.Mul(u.loyaltyRate).Floor().IntPart()
		if points > 0 {
			if _, err := repos.Loyalty().Accrue(ctx, order.UserID, order.ID, points); err != nil {
				return err
			}
		}

		buyer, err := repos.Users().GetByID(ctx, order.UserID)
		if err != nil {
			return err
		}

		url, err := u.renderer.Render(ctx, buildReceipt(order, payment, products))
		if err != nil {
			return &domainErrors.ReceiptGenerationError{Err: err}
		}

		notification = model.ReceiptNotification{
			OrderID:     order.ID,
			PaymentID:   payment.ID,
			Email:       buyer.Email,
			DocumentURL: url,
			Status:      model.NotificationStatusSending,
		}
		if err := repos.Receipts().Enqueue(ctx, &notification); err != nil {
			return err
		}

		settlement = &model.Settlement{Payment: payment, ReceiptURL: url, Points: points}
		return nil
	})
	if err != nil {
		u.logger.Info("settlement rejected",
			slog.Int64("order_id", req.OrderID),
			slog.Int64("user_id", req.Requester.UserID),
			slog.Any("error", err),
		)
		return nil, err
	}

	u.logger.Info("order settled",
		slog.Int64("order_id", req.OrderID),
		slog.Int64("payment_id", settlement.Payment.ID),
		slog.String("amount", settlement.Payment.Amount.StringFixed(2)),
		slog.String("currency", settlement.Payment.Currency),
		slog.Int64("points", settlement.Points),
	)
	u.deliver(ctx, notification)
	return settlement, nil
}

func (u *PaymentUseCase) deliver(ctx context.Context, n model.ReceiptNotification) {
	if err := u.notifier.SendReceipt(ctx, n); err != nil {
		u.logger.Warn("receipt notification deferred",
			slog.Int64("order_id", n.OrderID),
			slog.Int64("notification_id", n.ID),
			slog.Any("error", err),
		)
		u.metrics.ObserveDelivery(metrics.DeliveryDeferred)
		if markErr := u.uow.Receipts().MarkFailed(ctx, n.ID, err.Error(), u.maxAttempts); markErr != nil {
			u.logger.Error("release receipt lease", slog.Int64("notification_id", n.ID), slog.Any("error", markErr))
		}
		return
	}
	u.metrics.ObserveDelivery(metrics.DeliverySent)
	if err := u.uow.Receipts().MarkSent(ctx, n.ID); err != nil {
		u.logger.Error("mark receipt sent", slog.Int64("notification_id", n.ID), slog.Any("error", err))
	}
}

func validatePayment(req PaymentRequest) (string, error) {
	var errs []error
	if strings.TrimSpace(req.ProviderName) == "" {
		errs = append(errs, domainErrors.NewValidation("provider_name", "must not be blank"))
	}
	if !req.Amount.IsPositive() {
		errs = append(errs, domainErrors.NewValidation("amount", "must be positive"))
	}
	code, err := NormalizeCurrency(req.Currency)
	if err != nil {
		errs = append(errs, err)
	}
	return code, errors.Join(errs...)
}

func checkPayable(ctx context.Context, repos repository.Factory, order *model.Order) error {
	if order.Status.Settled() {
		return domainErrors.ErrAlreadyPaid
	}
	if order.Status == model.OrderStatusCancelled {
		return &domainErrors.InvalidStateError{Status: string(order.Status), Op: "pay"}
	}
	if _, err := repos.Payments().GetByOrder(ctx, order.ID); err == nil {
		return domainErrors.ErrAlreadyPaid
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return err
	}
	if len(order.Items) == 0 {
		return &domainErrors.InvalidStateError{Status: string(order.Status), Op: "pay", Reason: "order has no items"}
	}
	return nil
}

// reserveStock locks product rows, reports every shortage at once and
// decrements stock when all items are available.
func reserveStock(ctx context.Context, repos repository.Factory, order *model.Order) (map[int64]model.Product, error) {
	locked, err := repos.Products().LockForUpdate(ctx, order.ProductIDs())
	if err != nil {
		return nil, err
	}
	products := make(map[int64]model.Product, len(locked))
	for _, p := range locked {
		products[p.ID] = p
	}

	var shortages []domainErrors.StockShortage
	for _, item := range order.Items {
		available := products[item.ProductID].StockQuantity
		if available < item.Quantity {
			shortages = append(shortages, domainErrors.StockShortage{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &domainErrors.InsufficientStockError{Items: shortages}
	}

	for _, item := range order.Items {
		if err := repos.Products().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func buildReceipt(order *model.Order, payment model.Payment, products map[int64]model.Product) model.Receipt {
	lines := make([]model.ReceiptLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, model.ReceiptLine{
			ProductID: item.ProductID,
			Name:      products[item.ProductID].Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
		})
	}
	return model.Receipt{
		OrderID:           order.ID,
		PaymentID:         payment.ID,
		ProviderName:      payment.ProviderName,
		ProviderPaymentID: payment.ProviderPaymentID,
		Currency:          payment.Currency,
		Lines:             lines,
		Total:             order.Total(),
		Customer:          order.Detail,
		PaidAt:            payment.CreatedAt,
	}
}

func settlementOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domainErrors.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, domainErrors.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, domainErrors.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domainErrors.ErrAlreadyPaid):
		return metrics.OutcomeAlreadyPaid
	case errors.Is(err, domainErrors.ErrInvalidState):
		return metrics.OutcomeInvalidState
	case errors.Is(err, domainErrors.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, domainErrors.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, domainErrors.ErrReceiptGeneration):
		return metrics.OutcomeReceiptFailed
	}
	return metrics.OutcomeError
}
