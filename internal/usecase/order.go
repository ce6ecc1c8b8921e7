package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// CreateOrderRequest describes a new order built from a product selection.
type CreateOrderRequest struct {
	BuyerID  int64
	Products map[int64]int
	Currency string
	Shipping model.OrderDetail
}

// UpdateOrderRequest carries optional changes. A nil Items map leaves items
// untouched; a non-nil map is the complete target item set.
type UpdateOrderRequest struct {
	Status   *model.OrderStatus
	Items    map[int64]int
	Shipping *model.ShippingPatch
}

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(uow repository.UnitOfWork, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{uow: uow, logger: logger}
}

// Create validates the request and stores a NEW order with prices captured
// from the catalog. Stock is not touched.
func (u *OrderUseCase) Create(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	errs := validateQuantities(req.Products)
	code, err := NormalizeCurrency(req.Currency)
	if err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateShipping(req.Shipping)...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var created *model.Order
	err = u.uow.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		if _, err := repos.Users().GetByID(ctx, req.BuyerID); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return fmt.Errorf("buyer %d: %w", req.BuyerID, domainErrors.ErrNotFound)
			}
			return err
		}

		ids := sortedKeys(req.Products)
		active, err := repos.Products().GetActive(ctx, ids)
		if err != nil {
			return err
		}
		catalog, err := resolveProducts(active, ids, code)
		if err != nil {
			return err
		}

		order := &model.Order{
			UserID:   req.BuyerID,
			Status:   model.OrderStatusNew,
			Currency: code,
			Detail:   req.Shipping,
			Items:    make([]model.OrderItem, 0, len(ids)),
		}
		for _, id := range ids {
			product := catalog[id]
			order.Items = append(order.Items, model.OrderItem{
				ProductID: id,
				Quantity:  req.Products[id],
				Price:     product.Price,
				Currency:  product.Currency,
			})
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.Recalculate()
	u.logger.Info("order created",
		slog.Int64("order_id", created.ID),
		slog.Int64("user_id", created.UserID),
		slog.String("total", created.TotalAmount.StringFixed(2)),
		slog.String("currency", created.Currency),
	)
	return created, nil
}

// Get returns the order with payment and loyalty data when the requester may see it.
func (u *OrderUseCase) Get(ctx context.Context, requester model.Requester, orderID int64) (*model.Order, error) {
	order, err := u.uow.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(order.UserID) {
		return nil, domainErrors.ErrForbidden
	}
	if err := hydrate(ctx, u.uow, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the requester's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, requester model.Requester) ([]model.Order, error) {
	orders, err := u.uow.Orders().ListByUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Recalculate()
	}
	return orders, nil
}

// Update applies status, item and shipping changes in one transaction.
func (u *OrderUseCase) Update(ctx context.Context, requester model.Requester, orderID int64, req UpdateOrderRequest) (*model.Order, error) {
	var errs []error
	if req.Items != nil {
		errs = append(errs, validateQuantities(req.Items)...)
	}
	if req.Status != nil && !req.Status.Valid() {
		errs = append(errs, domainErrors.NewValidation("status", fmt.Sprintf("unknown status %q", *req.Status)))
	}
	if req.Shipping != nil {
		errs = append(errs, validateShippingPatch(*req.Shipping)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var updated *model.Order
	err := u.uow.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		order, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !requester.CanAccess(order.UserID) {
			return domainErrors.ErrForbidden
		}

		editsContent := req.Items != nil || (req.Shipping != nil && !req.Shipping.Empty())
		if editsContent && !order.Status.Editable() {
			return &domainErrors.InvalidStateError{Status: string(order.Status), Op: "edit"}
		}

		if req.Items != nil {
			if err := reconcileItems(ctx, repos, order, req.Items); err != nil {
				return err
			}
		}
		if req.Shipping != nil && !req.Shipping.Empty() {
			if err := repos.Orders().UpdateDetail(ctx, order.ID, req.Shipping.Apply(order.Detail)); err != nil {
				return err
			}
		}
		if req.Status != nil {
			if err := applyStatus(ctx, repos, order, *req.Status); err != nil {
				return err
			}
		}

		updated, err = repos.Orders().Get(ctx, order.ID)
		if err != nil {
			return err
		}
		return hydrate(ctx, repos, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an order in a deletable status together with its items and detail.
func (u *OrderUseCase) Delete(ctx context.Context, requester model.Requester, orderID int64) error {
	return u.uow.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		order, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !requester.CanAccess(order.UserID) {
			return domainErrors.ErrForbidden
		}
		if !order.Status.Deletable() {
			return &domainErrors.InvalidStateError{Status: string(order.Status), Op: "delete"}
		}
		return repos.Orders().Delete(ctx, order.ID)
	})
}

func reconcileItems(ctx context.Context, repos repository.Factory, order *model.Order, target map[int64]int) error {
	current := make(map[int64]model.OrderItem, len(order.Items))
	for _, item := range order.Items {
		current[item.ProductID] = item
		if _, keep := target[item.ProductID]; !keep {
			if err := repos.Orders().DeleteItem(ctx, item.ID); err != nil {
				return err
			}
		}
	}

	ids := sortedKeys(target)
	var added []int64
	for _, id := range ids {
		if _, ok := current[id]; !ok {
			added = append(added, id)
		}
	}
	var catalog map[int64]model.Product
	if len(added) > 0 {
		active, err := repos.Products().GetActive(ctx, added)
		if err != nil {
			return err
		}
		catalog, err = resolveProducts(active, added, order.Currency)
		if err != nil {
			return err
		}
	}

	for _, id := range ids {
		qty := target[id]
		if item, ok := current[id]; ok {
			if item.Quantity != qty {
				if err := repos.Orders().UpdateItemQuantity(ctx, item.ID, qty); err != nil {
					return err
				}
			}
			continue
		}
		product := catalog[id]
		item := &model.OrderItem{
			OrderID:   order.ID,
			ProductID: id,
			Quantity:  qty,
			Price:     product.Price,
			Currency:  product.Currency,
		}
		if err := repos.Orders().AddItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func applyStatus(ctx context.Context, repos repository.Factory, order *model.Order, target model.OrderStatus) error {
	if target == model.OrderStatusPaid {
		if _, err := repos.Payments().GetByOrder(ctx, order.ID); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return &domainErrors.InvalidStateError{
					Status: string(order.Status),
					Op:     "complete",
					Reason: "cannot complete an unpaid order",
				}
			}
			return err
		}
		if order.Status.Settled() {
			return nil
		}
		return repos.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPaid)
	}

	if target == order.Status {
		return nil
	}
	if !order.Status.CanTransitionTo(target) {
		return &domainErrors.InvalidStateError{Status: string(order.Status), Op: "move to " + string(target)}
	}
	return repos.Orders().UpdateStatus(ctx, order.ID, target)
}

// hydrate attaches payment and loyalty accrual to the order when present.
func hydrate(ctx context.Context, repos repository.Factory, order *model.Order) error {
	payment, err := repos.Payments().GetByOrder(ctx, order.ID)
	switch {
	case err == nil:
		order.Payment = payment
	case !errors.Is(err, domainErrors.ErrNotFound):
		return err
	}

	accrual, err := repos.Loyalty().AccrualByOrder(ctx, order.ID)
	switch {
	case err == nil:
		order.Loyalty = accrual
	case !errors.Is(err, domainErrors.ErrNotFound):
		return err
	}

	order.Recalculate()
	return nil
}
