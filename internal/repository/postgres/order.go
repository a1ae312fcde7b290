package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mahir9011/Cupid-Crochy/internal/domain"
	"github.com/Mahir9011/Cupid-Crochy/pkg/database"
	apperrors "github.com/Mahir9011/Cupid-Crochy/pkg/errors"
)

const (
	orderColumns = `id, order_number, email, name, address, phone, city, notes,
	subtotal::text, shipping::text, total::text, status, date`
	orderItemColumns = `order_id, product_id, name, price::text, image, quantity`
)

const (
	insertOrderSQL = `
		INSERT INTO orders (order_number, email, name, address, phone, city, notes,
			subtotal, shipping, total, status, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	insertOrderItemSQL = `
		INSERT INTO order_items (order_id, product_id, name, price, image, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`
	getOrderSQL          = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	listOrdersSQL        = `SELECT ` + orderColumns + ` FROM orders ORDER BY date DESC`
	itemsByOrderSQL      = `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id`
	itemsByOrdersSQL     = `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY id`
	updateOrderStatusSQL = `UPDATE orders SET status = $1 WHERE order_number = $2`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its items in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "orders.create", insertOrderSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}

	if err = insertOrder(ctx, tx, o); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	err := tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber,
		o.Email,
		o.Name,
		o.Address,
		o.Phone,
		o.City,
		o.Notes,
		o.Subtotal.String(),
		o.Shipping.String(),
		o.Total.String(),
		o.Status,
		o.Date,
	).Scan(&o.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "order_number", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price.String(),
			item.Image,
			item.Quantity,
		); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}
	return nil
}

// GetByNumber returns the order with its items.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.get", getOrderSQL)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, getOrderSQL, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", orderNumber)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx, itemsByOrderSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

// List returns all orders with their items, newest first.
func (r *OrderRepository) List(ctx context.Context) (_ []domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "orders.list", listOrdersSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	itemRows, err := r.pool.Query(ctx, itemsByOrdersSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	items, err := collectItems(itemRows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderNumber, status string) (err error) {
	ctx, end := database.TraceQuery(ctx, "orders.update_status", updateOrderStatusSQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, updateOrderStatusSQL, status, orderNumber)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderNumber)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                         domain.Order
		subtotal, shipping, total string
	)
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Email,
		&o.Name,
		&o.Address,
		&o.Phone,
		&o.City,
		&o.Notes,
		&subtotal,
		&shipping,
		&total,
		&o.Status,
		&o.Date,
	)
	if err != nil {
		return nil, err
	}
	if err := scanMoney(subtotal, &o.Subtotal); err != nil {
		return nil, err
	}
	if err := scanMoney(shipping, &o.Shipping); err != nil {
		return nil, err
	}
	if err := scanMoney(total, &o.Total); err != nil {
		return nil, err
	}
	o.Synced = true
	return &o, nil
}

// collectItems drains rows into items grouped by order ID and closes rows.
func collectItems(rows pgx.Rows) (map[int64][]domain.OrderItem, error) {
	defer rows.Close()

	out := make(map[int64][]domain.OrderItem)
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &price, &item.Image, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if err := scanMoney(price, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return out, nil
}
