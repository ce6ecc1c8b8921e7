package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

type loyaltyRepository struct {
	db querier
}

func (r *loyaltyRepository) Accrue(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error) {
	const updateBalance = `INSERT INTO loyalty_balances (user_id, current, redeemed)
                           VALUES ($1, $2, 0)
                           ON CONFLICT (user_id) DO UPDATE SET current = loyalty_balances.current + EXCLUDED.current`
	if _, err := r.db.Exec(ctx, updateBalance, userID, points); err != nil {
		return nil, err
	}
	return r.insert(ctx, userID, orderID, model.LoyaltyKindAccrual, points)
}

// Redeem expects to run inside a transaction so the balance row lock holds.
func (r *loyaltyRepository) Redeem(ctx context.Context, userID, orderID, points int64) (*model.LoyaltyTransaction, error) {
	const balanceQuery = `SELECT current FROM loyalty_balances WHERE user_id=$1 FOR UPDATE`
	var current int64
	err := r.db.QueryRow(ctx, balanceQuery, userID).Scan(&current)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		current = 0
	}
	if current < points {
		return nil, domainErrors.ErrInsufficientPoints
	}

	const updateBalance = `UPDATE loyalty_balances SET current = current - $2, redeemed = redeemed + $2 WHERE user_id=$1`
	if _, err := r.db.Exec(ctx, updateBalance, userID, points); err != nil {
		return nil, err
	}
	return r.insert(ctx, userID, orderID, model.LoyaltyKindRedemption, points)
}

func (r *loyaltyRepository) insert(ctx context.Context, userID, orderID int64, kind model.LoyaltyKind, points int64) (*model.LoyaltyTransaction, error) {
	const query = `INSERT INTO loyalty_transactions (user_id, order_id, kind, points) VALUES ($1, $2, $3, $4)
                   RETURNING id, created_at`
	orderRef := pgtype.Int8{Int64: orderID, Valid: orderID != 0}
	txn := model.LoyaltyTransaction{UserID: userID, OrderID: orderID, Kind: kind, Points: points}
	if err := r.db.QueryRow(ctx, query, userID, orderRef, kind, points).Scan(&txn.ID, &txn.CreatedAt); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *loyaltyRepository) Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error) {
	const query = `SELECT current, redeemed FROM loyalty_balances WHERE user_id=$1`
	var b model.LoyaltyBalance
	err := r.db.QueryRow(ctx, query, userID).Scan(&b.Current, &b.Redeemed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.LoyaltyBalance{}, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *loyaltyRepository) ListByUser(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	const query = `SELECT id, user_id, order_id, kind, points, created_at
                   FROM loyalty_transactions WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LoyaltyTransaction
	for rows.Next() {
		t, err := scanLoyalty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *loyaltyRepository) AccrualByOrder(ctx context.Context, orderID int64) (*model.LoyaltyTransaction, error) {
	const query = `SELECT id, user_id, order_id, kind, points, created_at
                   FROM loyalty_transactions WHERE order_id=$1 AND kind=$2`
	t, err := scanLoyalty(r.db.QueryRow(ctx, query, orderID, model.LoyaltyKindAccrual))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func scanLoyalty(row pgx.Row) (*model.LoyaltyTransaction, error) {
	var (
		t        model.LoyaltyTransaction
		orderRef pgtype.Int8
	)
	if err := row.Scan(&t.ID, &t.UserID, &orderRef, &t.Kind, &t.Points, &t.CreatedAt); err != nil {
		return nil, err
	}
	if orderRef.Valid {
		t.OrderID = orderRef.Int64
	}
	return &t, nil
}
