package repository

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// PaymentRepository stores append-only payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByOrder(ctx context.Context, orderID int64) (*model.Payment, error)
}

// ReceiptRepository is the receipt notification outbox.
type ReceiptRepository interface {
	Enqueue(ctx context.Context, n *model.ReceiptNotification) error
	// ClaimPending moves up to limit deliverable entries to SENDING and returns them.
	ClaimPending(ctx context.Context, limit int) ([]model.ReceiptNotification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string, maxAttempts int) error
}
