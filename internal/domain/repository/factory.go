package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Orders() OrderRepository
	Products() ProductRepository
	Payments() PaymentRepository
	Loyalty() LoyaltyRepository
	Receipts() ReceiptRepository
}

// UnitOfWork runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Factory
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Factory) error) error
}
