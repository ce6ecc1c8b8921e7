package postgres

import (
	"context"
	"slices"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

type productRepository struct {
	db querier
}

const selectProducts = `SELECT id, name, price, currency, stock_quantity, active, updated_at FROM products`

func (r *productRepository) GetActive(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, selectProducts+` WHERE id = ANY($1) AND active ORDER BY id`, sortedIDs(ids))
}

func (r *productRepository) LockForUpdate(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// Locks are taken in ascending id order.
	return r.list(ctx, selectProducts+` WHERE id = ANY($1) ORDER BY id FOR UPDATE`, sortedIDs(ids))
}

func (r *productRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	const query = `UPDATE products SET stock_quantity = stock_quantity - $1, updated_at=NOW()
                   WHERE id=$2 AND stock_quantity >= $1`
	tag, err := r.db.Exec(ctx, query, quantity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) list(ctx context.Context, query string, ids []int64) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.StockQuantity, &p.Active, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
