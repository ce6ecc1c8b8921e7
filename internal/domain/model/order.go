package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "NEW"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// transitions lists statuses reachable from each status. PAID is entered
// only by settlement and therefore is not a target here.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusShipped, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Valid reports whether status belongs to the closed set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether a manual status change from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Editable reports whether items and shipping details may still change.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusNew || s == OrderStatusProcessing
}

// Deletable reports whether an order in this status may be removed.
func (s OrderStatus) Deletable() bool {
	return s == OrderStatusNew || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Settled reports whether the order has already gone through payment.
func (s OrderStatus) Settled() bool {
	switch s {
	case OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is the aggregate root owning items, shipping detail, payment and
// the loyalty accrual issued for it.
type Order struct {
	ID          int64
	UserID      int64
	Status      OrderStatus
	Currency    string
	Items       []OrderItem
	Detail      OrderDetail
	Payment     *Payment
	Loyalty     *LoyaltyTransaction
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Total sums captured item prices. It is never read from storage.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Recalculate refreshes TotalAmount from current items.
func (o *Order) Recalculate() {
	o.TotalAmount = o.Total()
}

// ItemByProduct returns the line for given product, if any.
func (o *Order) ItemByProduct(productID int64) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// ProductIDs lists product identifiers referenced by the order items.
func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// OrderItem is a single purchasable line. Price and currency are captured at creation.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal returns price multiplied by quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetail is the shipping and contact snapshot of an order.
type OrderDetail struct {
	FullName    string
	PhoneNumber string
	Country     string
	PostalCode  string
}

// ShippingPatch carries optional shipping fields; nil fields are left untouched.
type ShippingPatch struct {
	FullName    *string
	PhoneNumber *string
	Country     *string
	PostalCode  *string
}

// Apply returns detail with non-nil patch fields applied.
func (p ShippingPatch) Apply(detail OrderDetail) OrderDetail {
	if p.FullName != nil {
		detail.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		detail.PhoneNumber = *p.PhoneNumber
	}
	if p.Country != nil {
		detail.Country = *p.Country
	}
	if p.PostalCode != nil {
		detail.PostalCode = *p.PostalCode
	}
	return detail
}

// Empty reports whether the patch changes nothing.
func (p ShippingPatch) Empty() bool {
	return p.FullName == nil && p.PhoneNumber == nil && p.Country == nil && p.PostalCode == nil
}
