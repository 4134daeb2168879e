package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) (Order, error) {
	const q = `
	INSERT INTO orders (code, user_id, customer_name, customer_email, customer_phone,
	                    pickup_time, status, total, note, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING order_id`

	var id int64
	err := db.QueryRowxContext(ctx, q,
		ord.Code, ord.UserID, ord.CustomerName, ord.CustomerEmail, ord.CustomerPhone,
		ord.PickupTime, ord.Status, ord.Total, ord.Note, ord.CreatedAt, ord.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return Order{}, fmt.Errorf("inserting order: %w", err)
	}

	ord.ID = id
	return ord, nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at)
	VALUES (:order_id, :product_id, :quantity, :unit_price, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order[%d]: %w", id, err)
	}
	return ord, nil
}

// FetchByCode resolves an order code, used to verify review eligibility.
func FetchByCode(ctx context.Context, db sqlx.ExtContext, code string) (Order, error) {
	const q = `SELECT * FROM orders WHERE code = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order by code: %w", err)
	}
	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]ItemView, error) {
	const q = `
	SELECT i.*, p.name, p.image_url
	FROM order_items i
	JOIN products p USING (product_id)
	WHERE i.order_id = $1
	ORDER BY i.product_id`

	items := []ItemView{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("fetching items of order[%d]: %w", orderID, err)
	}
	return items, nil
}

func fetchViews(ctx context.Context, db sqlx.ExtContext, orders []Order) ([]OrderView, error) {
	views := make([]OrderView, 0, len(orders))
	for _, ord := range orders {
		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, OrderView{Order: ord, Items: items})
	}
	return views, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]OrderView, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, fmt.Errorf("fetching orders of user[%s]: %w", userID, err)
	}
	return fetchViews(ctx, db, orders)
}

func FetchAll(ctx context.Context, db sqlx.ExtContext, status Status) ([]OrderView, error) {
	q := `SELECT * FROM orders`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, args...); err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}
	return fetchViews(ctx, db, orders)
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id int64, status Status) error {
	const q = `UPDATE orders SET status = $2, updated_at = $3 WHERE order_id = $1`

	res, err := db.ExecContext(ctx, q, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating status of order[%d]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func FetchStats(ctx context.Context, db sqlx.ExtContext) (Stats, error) {
	const q = `
	SELECT COUNT(*) AS total,
	       COUNT(*) FILTER (WHERE status = 'pending')   AS pending,
	       COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
	       COUNT(*) FILTER (WHERE status = 'preparing') AS preparing,
	       COUNT(*) FILTER (WHERE status = 'ready')     AS ready,
	       COUNT(*) FILTER (WHERE status = 'completed') AS completed,
	       COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
	FROM orders`

	var st Stats
	if err := sqlx.GetContext(ctx, db, &st, q); err != nil {
		return Stats{}, fmt.Errorf("fetching order stats: %w", err)
	}
	return st, nil
}
