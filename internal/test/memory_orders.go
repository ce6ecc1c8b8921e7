package test

import (
	"context"
	"slices"
	"sort"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

type memOrders struct{ memoryView }

func (v memOrders) Create(ctx context.Context, order *model.Order) error {
	return v.with("Orders.Create", func(d *memoryData) error {
		if _, ok := d.users[order.UserID]; !ok {
			return domainErrors.ErrNotFound
		}
		now := time.Now()
		order.ID = d.id()
		order.CreatedAt, order.UpdatedAt = now, now
		for i := range order.Items {
			if _, ok := d.products[order.Items[i].ProductID]; !ok {
				return domainErrors.ErrNotFound
			}
			order.Items[i].ID = d.id()
			order.Items[i].OrderID = order.ID
			order.Items[i].CreatedAt, order.Items[i].UpdatedAt = now, now
		}
		order.Recalculate()
		stored := *order
		stored.Items = slices.Clone(order.Items)
		stored.Payment, stored.Loyalty = nil, nil
		d.orders[order.ID] = stored
		return nil
	})
}

func (v memOrders) Get(ctx context.Context, id int64) (*model.Order, error) {
	return v.get("Orders.Get", id)
}

func (v memOrders) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return v.get("Orders.GetForUpdate", id)
}

func (v memOrders) get(op string, id int64) (*model.Order, error) {
	var found *model.Order
	err := v.with(op, func(d *memoryData) error {
		o, ok := d.orders[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		found = copyOrder(o)
		return nil
	})
	return found, err
}

func (v memOrders) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	var out []model.Order
	err := v.with("Orders.ListByUser", func(d *memoryData) error {
		for _, o := range d.orders {
			if o.UserID == userID {
				out = append(out, *copyOrder(o))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return out, err
}

func (v memOrders) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	return v.update("Orders.UpdateStatus", id, func(o *model.Order) { o.Status = status })
}

func (v memOrders) UpdateDetail(ctx context.Context, id int64, detail model.OrderDetail) error {
	return v.update("Orders.UpdateDetail", id, func(o *model.Order) { o.Detail = detail })
}

func (v memOrders) update(op string, id int64, fn func(o *model.Order)) error {
	return v.with(op, func(d *memoryData) error {
		o, ok := d.orders[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		fn(&o)
		o.UpdatedAt = time.Now()
		d.orders[id] = o
		return nil
	})
}

func (v memOrders) AddItem(ctx context.Context, item *model.OrderItem) error {
	return v.with("Orders.AddItem", func(d *memoryData) error {
		o, ok := d.orders[item.OrderID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		if _, exists := o.ItemByProduct(item.ProductID); exists {
			return domainErrors.ErrAlreadyExists
		}
		now := time.Now()
		item.ID = d.id()
		item.CreatedAt, item.UpdatedAt = now, now
		o.Items = append(slices.Clone(o.Items), *item)
		d.orders[o.ID] = o
		return nil
	})
}

func (v memOrders) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return v.with("Orders.UpdateItemQuantity", func(d *memoryData) error {
		o, idx := findItem(d, itemID)
		if idx < 0 {
			return domainErrors.ErrNotFound
		}
		o.Items = slices.Clone(o.Items)
		o.Items[idx].Quantity = quantity
		o.Items[idx].UpdatedAt = time.Now()
		d.orders[o.ID] = o
		return nil
	})
}

func (v memOrders) DeleteItem(ctx context.Context, itemID int64) error {
	return v.with("Orders.DeleteItem", func(d *memoryData) error {
		o, idx := findItem(d, itemID)
		if idx < 0 {
			return domainErrors.ErrNotFound
		}
		o.Items = slices.Delete(slices.Clone(o.Items), idx, idx+1)
		d.orders[o.ID] = o
		return nil
	})
}

func (v memOrders) Delete(ctx context.Context, id int64) error {
	return v.with("Orders.Delete", func(d *memoryData) error {
		if _, ok := d.orders[id]; !ok {
			return domainErrors.ErrNotFound
		}
		if _, paid := d.payments[id]; paid {
			return &domainErrors.ConflictError{Reason: "order is referenced by other records"}
		}
		for _, tx := range d.loyalty {
			if tx.OrderID == id {
				return &domainErrors.ConflictError{Reason: "order is referenced by other records"}
			}
		}
		delete(d.orders, id)
		return nil
	})
}

func findItem(d *memoryData, itemID int64) (model.Order, int) {
	for _, o := range d.orders {
		for i, item := range o.Items {
			if item.ID == itemID {
				return o, i
			}
		}
	}
	return model.Order{}, -1
}

func copyOrder(o model.Order) *model.Order {
	o.Items = slices.Clone(o.Items)
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ProductID < o.Items[j].ProductID })
	o.Recalculate()
	return &o
}

type memProducts struct{ memoryView }

func (v memProducts) GetActive(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	err := v.with("Products.GetActive", func(d *memoryData) error {
		for _, id := range uniqueSorted(ids) {
			if p, ok := d.products[id]; ok && p.Active {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (v memProducts) LockForUpdate(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	err := v.with("Products.LockForUpdate", func(d *memoryData) error {
		for _, id := range uniqueSorted(ids) {
			if p, ok := d.products[id]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (v memProducts) DecrementStock(ctx context.Context, id int64, quantity int) error {
	return v.with("Products.DecrementStock", func(d *memoryData) error {
		p, ok := d.products[id]
		if !ok || p.StockQuantity < quantity {
			return domainErrors.ErrInsufficientStock
		}
		p.StockQuantity -= quantity
		p.UpdatedAt = time.Now()
		d.products[id] = p
		return nil
	})
}

func uniqueSorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

type memPayments struct{ memoryView }

func (v memPayments) Create(ctx context.Context, payment *model.Payment) error {
	return v.with("Payments.Create", func(d *memoryData) error {
		if _, ok := d.orders[payment.OrderID]; !ok {
			return domainErrors.ErrNotFound
		}
		if _, exists := d.payments[payment.OrderID]; exists {
			return domainErrors.ErrAlreadyPaid
		}
		payment.ID = d.id()
		payment.CreatedAt = time.Now()
		d.payments[payment.OrderID] = *payment
		return nil
	})
}

func (v memPayments) GetByOrder(ctx context.Context, orderID int64) (*model.Payment, error) {
	var found *model.Payment
	err := v.with("Payments.GetByOrder", func(d *memoryData) error {
		p, ok := d.payments[orderID]
		if !ok {
			return domainErrors.ErrNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

type memLoyalty struct{ memoryView }

func (v memLoyalty) Accrue(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error) {
	var tx *model.LoyaltyTransaction
	err := v.with("Loyalty.Accrue", func(d *memoryData) error {
		b := d.balances[userID]
		b.Current += points
		d.balances[userID] = b
		tx = appendLoyalty(d, userID, orderID, model.LoyaltyKindAccrual, points)
		return nil
	})
	return tx, err
}

func (v memLoyalty) Redeem(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error) {
	var tx *model.LoyaltyTransaction
	err := v.with("Loyalty.Redeem", func(d *memoryData) error {
		b := d.balances[userID]
		if b.Current < points {
			return domainErrors.ErrInsufficientPoints
		}
		b.Current -= points
		b.Redeemed += points
		d.balances[userID] = b
		tx = appendLoyalty(d, userID, orderID, model.LoyaltyKindRedemption, points)
		return nil
	})
	return tx, err
}

func appendLoyalty(d *memoryData, userID, orderID int64, kind model.LoyaltyKind, points int64) *model.LoyaltyTransaction {
	tx := model.LoyaltyTransaction{
		ID:        d.id(),
		UserID:    userID,
		OrderID:   orderID,
		Kind:      kind,
		Points:    points,
		CreatedAt: time.Now(),
	}
	d.loyalty = append(d.loyalty, tx)
	return &tx
}

func (v memLoyalty) Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error) {
	var b model.LoyaltyBalance
	err := v.with("Loyalty.Balance", func(d *memoryData) error {
		b = d.balances[userID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (v memLoyalty) ListByUser(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	err := v.with("Loyalty.ListByUser", func(d *memoryData) error {
		for i := len(d.loyalty) - 1; i >= 0; i-- {
			if d.loyalty[i].UserID == userID {
				out = append(out, d.loyalty[i])
			}
		}
		return nil
	})
	return out, err
}

func (v memLoyalty) AccrualByOrder(ctx context.Context, orderID int64) (*model.LoyaltyTransaction, error) {
	var found *model.LoyaltyTransaction
	err := v.with("Loyalty.AccrualByOrder", func(d *memoryData) error {
		for _, tx := range d.loyalty {
			if tx.OrderID == orderID && tx.Kind == model.LoyaltyKindAccrual {
				found = &tx
				return nil
			}
		}
		return domainErrors.ErrNotFound
	})
	return found, err
}

// SendingLease mirrors how long a claimed notification stays hidden from other claims.
const SendingLease = 5 * time.Minute

type memReceipts struct{ memoryView }

func (v memReceipts) Enqueue(ctx context.Context, n *model.ReceiptNotification) error {
	return v.with("Receipts.Enqueue", func(d *memoryData) error {
		now := time.Now()
		n.ID = d.id()
		if n.Status == "" {
			n.Status = model.NotificationStatusPending
		}
		n.CreatedAt, n.UpdatedAt = now, now
		d.notifications[n.ID] = *n
		return nil
	})
}

func (v memReceipts) ClaimPending(ctx context.Context, limit int) ([]model.ReceiptNotification, error) {
	var out []model.ReceiptNotification
	err := v.with("Receipts.ClaimPending", func(d *memoryData) error {
		staleBefore := time.Now().Add(-SendingLease)
		ids := make([]int64, 0, len(d.notifications))
		for id, n := range d.notifications {
			stale := n.Status == model.NotificationStatusSending && n.UpdatedAt.Before(staleBefore)
			if n.Status == model.NotificationStatusPending || stale {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		if len(ids) > limit {
			ids = ids[:limit]
		}
		for _, id := range ids {
			n := d.notifications[id]
			n.Status = model.NotificationStatusSending
			n.UpdatedAt = time.Now()
			d.notifications[id] = n
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

func (v memReceipts) MarkSent(ctx context.Context, id int64) error {
	return v.with("Receipts.MarkSent", func(d *memoryData) error {
		n, ok := d.notifications[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		n.Status = model.NotificationStatusSent
		n.Attempts++
		n.UpdatedAt = time.Now()
		d.notifications[id] = n
		return nil
	})
}

func (v memReceipts) MarkFailed(ctx context.Context, id int64, reason string, maxAttempts int) error {
	return v.with("Receipts.MarkFailed", func(d *memoryData) error {
		n, ok := d.notifications[id]
		if !ok {
			return domainErrors.ErrNotFound
		}
		n.Attempts++
		n.LastError = reason
		n.Status = model.NotificationStatusPending
		if n.Attempts >= maxAttempts {
			n.Status = model.NotificationStatusFailed
		}
		n.UpdatedAt = time.Now()
		d.notifications[id] = n
		return nil
	})
}
