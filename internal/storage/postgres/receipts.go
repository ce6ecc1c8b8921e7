package postgres

import (
	"cmp"
	"context"
	"slices"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

// sendingLease is how long a claimed notification stays invisible to other dispatchers.
const sendingLease = 5 * time.Minute

type receiptRepository struct {
	db querier
}

func (r *receiptRepository) Enqueue(ctx context.Context, n *model.ReceiptNotification) error {
	const query = `INSERT INTO receipt_notifications (order_id, payment_id, email, document_url, status)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, attempts, created_at, updated_at`
	if n.Status == "" {
		n.Status = model.NotificationStatusPending
	}
	return r.db.QueryRow(ctx, query, n.OrderID, n.PaymentID, n.Email, n.DocumentURL, n.Status).
		Scan(&n.ID, &n.Attempts, &n.CreatedAt, &n.UpdatedAt)
}

// ClaimPending leases up to limit due notifications in a single statement so
// the row locks taken by SKIP LOCKED are held until the status flip commits.
func (r *receiptRepository) ClaimPending(ctx context.Context, limit int) ([]model.ReceiptNotification, error) {
	const query = `UPDATE receipt_notifications SET status=$1, updated_at=NOW()
                   WHERE id IN (
                       SELECT id FROM receipt_notifications
                       WHERE status=$2 OR (status=$1 AND updated_at < $3)
                       ORDER BY id
                       LIMIT $4
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING id, order_id, payment_id, email, document_url, status, attempts, last_error, created_at, updated_at`

	staleBefore := time.Now().Add(-sendingLease)
	rows, err := r.db.Query(ctx, query, model.NotificationStatusSending, model.NotificationStatusPending, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ReceiptNotification
	for rows.Next() {
		var n model.ReceiptNotification
		if err := rows.Scan(&n.ID, &n.OrderID, &n.PaymentID, &n.Email, &n.DocumentURL, &n.Status,
			&n.Attempts, &n.LastError, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b model.ReceiptNotification) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

func (r *receiptRepository) MarkSent(ctx context.Context, id int64) error {
	const query = `UPDATE receipt_notifications
                   SET status=$1, attempts=attempts+1, last_error='', updated_at=NOW()
                   WHERE id=$2`
	tag, err := r.db.Exec(ctx, query, model.NotificationStatusSent, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *receiptRepository) MarkFailed(ctx context.Context, id int64, reason string, maxAttempts int) error {
	const query = `UPDATE receipt_notifications
                   SET attempts=attempts+1,
                       last_error=$1,
                       status=CASE WHEN attempts+1 >= $2 THEN $3 ELSE $4 END,
                       updated_at=NOW()
                   WHERE id=$5`
	tag, err := r.db.Exec(ctx, query, reason, maxAttempts, model.NotificationStatusFailed, model.NotificationStatusPending, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
