package repository

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// OrderRepository describes persistence operations with orders, their items
// and shipping details.
type OrderRepository interface {
	// Create inserts order, detail and items, filling generated identifiers.
	Create(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, id int64) (*model.Order, error)
	// GetForUpdate loads the order and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
	UpdateDetail(ctx context.Context, id int64, detail model.OrderDetail) error
	AddItem(ctx context.Context, item *model.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	Delete(ctx context.Context, id int64) error
}

// ProductRepository is the catalog view used by orders and settlement.
type ProductRepository interface {
	// GetActive returns the active subset of ids.
	GetActive(ctx context.Context, ids []int64) ([]model.Product, error)
	// LockForUpdate locks product rows in ascending id order.
	LockForUpdate(ctx context.Context, ids []int64) ([]model.Product, error)
	DecrementStock(ctx context.Context, id int64, quantity int) error
}
