package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"spirits-storefront/model"
)

const (
	orderColumns           = `id, user_id, status, subtotal_cents, shipping_cents, tax_cents, total_cents, shipping_address, created_at, updated_at`
	queryGetOrder          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	queryListOrdersByUser  = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	queryListOrders        = `SELECT ` + orderColumns + ` FROM orders WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC, id DESC`
	queryOrderItems        = `SELECT order_id, product_id, name, quantity, unit_price_cents FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, product_id`
	queryUpdateOrderStatus = `UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`
	orderResource          = "order"
)

func scanOrder(row scanner) (model.Order, error) {
	var (
		o       model.Order
		address []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.SubtotalCents, &o.ShippingCents, &o.TaxCents,
		&o.TotalCents, &address, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return o, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return o, fmt.Errorf("decode shipping address of order %d: %w", o.ID, err)
		}
	}
	o.Items = []model.OrderItem{}
	return o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	o, err := scanOrder(s.DB.QueryRowContext(ctx, queryGetOrder, id))
	if errors.Is(err, sql.ErrNoRows) {
		return o, notFound(orderResource, "id", id)
	}
	if err != nil {
		return o, err
	}
	orders := []model.Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return o, err
	}
	return orders[0], nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.queryOrders(ctx, queryListOrdersByUser, userID)
}

// ListOrders returns every order, or only those with the given status.
func (s *PostgresStore) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.queryOrders(ctx, queryListOrders, string(status))
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of all given orders with one query.
func (s *PostgresStore) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := s.DB.QueryContext(ctx, queryOrderItems, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID int64
			it      model.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

// UpdateOrderStatus moves an order from one status to another. The update
// only applies while the order is still in from; otherwise ErrConflict is
// returned. Cancelling puts the order's units back in stock.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id int64, from, to model.OrderStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, queryUpdateOrderStatus, id, from, to)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: order %d is no longer %s", ErrConflict, id, from)
		}
		if to == model.OrderCancelled {
			if _, err := tx.ExecContext(ctx, queryRestockForOrder, id); err != nil {
				return err
			}
		}
		return nil
	})
}
