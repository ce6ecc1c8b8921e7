package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

type orderRepository struct {
	db querier
}

const selectOrder = `SELECT o.id, o.user_id, o.status, o.currency, o.created_at, o.updated_at,
                            d.full_name, d.phone_number, d.country, d.postal_code
                     FROM orders o JOIN order_details d ON d.order_id = o.id`

const selectItems = `SELECT id, order_id, product_id, quantity, price, currency, created_at, updated_at
                     FROM order_items`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	const insertOrder = `INSERT INTO orders (user_id, status, currency) VALUES ($1, $2, $3)
                         RETURNING id, created_at, updated_at`
	if order.Status == "" {
		order.Status = model.OrderStatusNew
	}
	err := r.db.QueryRow(ctx, insertOrder, order.UserID, order.Status, order.Currency).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return domainErrors.ErrNotFound
		}
		return err
	}

	const insertDetail = `INSERT INTO order_details (order_id, full_name, phone_number, country, postal_code)
                          VALUES ($1, $2, $3, $4, $5)`
	d := order.Detail
	if _, err := r.db.Exec(ctx, insertDetail, order.ID, d.FullName, d.PhoneNumber, d.Country, d.PostalCode); err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := r.AddItem(ctx, &order.Items[i]); err != nil {
			return err
		}
	}
	order.Recalculate()
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(ctx, selectOrder+` WHERE o.id=$1`, id)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(ctx, selectOrder+` WHERE o.id=$1 FOR UPDATE OF o`, id)
}

func (r *orderRepository) get(ctx context.Context, query string, id int64) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := r.db.Query(ctx, selectItems+` WHERE order_id=$1 ORDER BY product_id`, id)
	if err != nil {
		return nil, err
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.Recalculate()
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, selectOrder+` WHERE o.user_id=$1 ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	index := make(map[int64]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(result)
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]int64, 0, len(result))
	for _, o := range result {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.db.Query(ctx, selectItems+` WHERE order_id = ANY($1) ORDER BY order_id, product_id`, ids)
	if err != nil {
		return nil, err
	}
	items, err := scanItems(itemRows)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			result[i].Items = append(result[i].Items, item)
		}
	}
	for i := range result {
		result[i].Recalculate()
	}
	return result, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	const query = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateDetail(ctx context.Context, id int64, d model.OrderDetail) error {
	const query = `UPDATE order_details SET full_name=$1, phone_number=$2, country=$3, postal_code=$4 WHERE order_id=$5`
	tag, err := r.db.Exec(ctx, query, d.FullName, d.PhoneNumber, d.Country, d.PostalCode, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	if _, err := r.db.Exec(ctx, `UPDATE orders SET updated_at=NOW() WHERE id=$1`, id); err != nil {
		return err
	}
	return nil
}

func (r *orderRepository) AddItem(ctx context.Context, item *model.OrderItem) error {
	const query = `INSERT INTO order_items (order_id, product_id, quantity, price, currency)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Price, item.Currency).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	const query = `UPDATE order_items SET quantity=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.db.Exec(ctx, query, quantity, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, itemID); err != nil {
		return err
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return &domainErrors.ConflictError{Reason: "order is referenced by other records"}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
		&o.Detail.FullName, &o.Detail.PhoneNumber, &o.Detail.Country, &o.Detail.PostalCode)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItems(rows pgx.Rows) ([]model.OrderItem, error) {
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Currency, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
