package postgres

import (
	"context"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

type paymentRepository struct {
	db querier
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	const query = `INSERT INTO payments (order_id, provider_name, provider_payment_id, amount, currency)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, p.OrderID, p.ProviderName, p.ProviderPaymentID, p.Amount, p.Currency).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domainErrors.ErrAlreadyPaid
		}
		return err
	}
	return nil
}

func (r *paymentRepository) GetByOrder(ctx context.Context, orderID int64) (*model.Payment, error) {
	const query = `SELECT id, order_id, provider_name, provider_payment_id, amount, currency, created_at
                   FROM payments WHERE order_id=$1`
	var p model.Payment
	err := r.db.QueryRow(ctx, query, orderID).
		Scan(&p.ID, &p.OrderID, &p.ProviderName, &p.ProviderPaymentID, &p.Amount, &p.Currency, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
