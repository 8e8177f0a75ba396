package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	queryLockCartForCheckout = `SELECT ci.product_id, p.name, ci.quantity, p.price_cents, p.active FROM cart_items ci JOIN products p ON p.id = ci.product_id WHERE ci.cart_id = $1 ORDER BY p.id FOR UPDATE`
	queryInsertOrder         = `INSERT INTO orders (user_id, status, subtotal_cents, shipping_cents, tax_cents, total_cents, shipping_address) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`
	queryInsertOrderItem     = `INSERT INTO order_items (order_id, product_id, name, quantity, unit_price_cents) VALUES ($1,$2,$3,$4,$5)`
	queryClearCart           = `DELETE FROM cart_items WHERE cart_id = $1`
)

// Checkout turns the user's cart into a placed order. Lines are priced at
// the current product price, pricer adds shipping and tax, and shipTo is
// stored as a JSON snapshot so later address edits leave the order alone.
// Stock was reserved when each line was added, so products.stock is not
// touched here. Archived products fail the checkout with
// ErrProductUnavailable.
func (s *PostgresStore) Checkout(ctx context.Context, userID uuid.UUID, shipTo model.Address, pricer Pricer) (model.Order, error) {
	var order model.Order

	unlock := s.lockForUser(userID.String())
	defer unlock()

	address, err := json.Marshal(shipTo)
	if err != nil {
		return order, fmt.Errorf("encode shipping address: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		// lock rows in product order so concurrent checkouts cannot deadlock
		items, err := lockCartForCheckout(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		order = model.Order{
			UserID:          userID,
			Status:          model.OrderPlaced,
			Items:           items,
			Totals:          pricer.Price(items),
			ShippingAddress: shipTo,
		}
		if err := tx.QueryRowContext(ctx, queryInsertOrder,
			userID, order.Status, order.SubtotalCents, order.ShippingCents, order.TaxCents, order.TotalCents, address,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, queryInsertOrderItem)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, order.ID, it.ProductID, it.Name, it.Quantity, it.UnitPriceCents); err != nil {
				return err
			}
		}

		// stock already reserved when the items were added
		if _, err := tx.ExecContext(ctx, queryClearCart, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, queryDeleteCart, userID)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func lockCartForCheckout(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := tx.QueryContext(ctx, queryLockCartForCheckout, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var (
			it     model.OrderItem
			active bool
		)
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPriceCents, &active); err != nil {
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, it.Name)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
