package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	queryEnsureCart     = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	queryLockCart       = `SELECT user_id FROM carts WHERE user_id = $1 FOR UPDATE`
	queryUpsertCartItem = `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3) ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	queryLockCartItem   = `SELECT quantity FROM cart_items WHERE cart_id=$1 AND product_id=$2 FOR UPDATE`
	querySetCartItem    = `UPDATE cart_items SET quantity=$3 WHERE cart_id=$1 AND product_id=$2`
	queryDeleteCartItem = `DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2 RETURNING quantity`
	queryClearCartItems = `DELETE FROM cart_items WHERE cart_id = $1 RETURNING product_id, quantity`
	queryDeleteCart     = `DELETE FROM carts WHERE user_id = $1`
	queryGetCart        = `SELECT ci.product_id, p.name, p.slug, p.image_url, p.price_cents, ci.quantity, p.stock, p.active FROM cart_items ci JOIN products p ON p.id = ci.product_id WHERE ci.cart_id = $1 ORDER BY ci.added_at, ci.product_id`
	cartItemResource    = "cart item"
)

// AddToCart puts qty more units of a product in the user's cart. The units
// are reserved: products.stock drops by qty in the same transaction. When
// maxLine > 0 the line may not grow past maxLine units (ErrLineLimit); the
// check runs against the locked cart so concurrent adds cannot overshoot.
func (s *PostgresStore) AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty, maxLine int) error {
	if qty <= 0 {
		return errors.New("quantity must be > 0")
	}

	unlock := s.lockForUser(userID.String())
	defer unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, queryEnsureCart, userID); err != nil {
			return err
		}
		// serialises adds from other processes on the same cart
		if _, err := tx.ExecContext(ctx, queryLockCart, userID); err != nil {
			return err
		}

		var current int
		err := tx.QueryRowContext(ctx, queryLockCartItem, userID, productID).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if maxLine > 0 && current+qty > maxLine {
			return fmt.Errorf("%w: %d in cart, %d more requested, at most %d", ErrLineLimit, current, qty, maxLine)
		}

		stock, err := lockProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if stock < qty {
			return ErrInsufficientStock
		}
		if _, err := tx.ExecContext(ctx, queryUpsertCartItem, userID, productID, qty); err != nil {
			return err
		}
		return reserveStock(ctx, tx, productID, qty)
	})
}

// SetCartQuantity changes the quantity of an existing cart line and moves
// the difference between shelf and cart.
func (s *PostgresStore) SetCartQuantity(ctx context.Context, userID uuid.UUID, productID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be > 0")
	}

	unlock := s.lockForUser(userID.String())
	defer unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, queryLockCartItem, userID, productID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(cartItemResource, "product_id", productID)
		}
		if err != nil {
			return err
		}

		delta := qty - current
		if delta == 0 {
			return nil
		}
		if delta > 0 {
			stock, err := lockProduct(ctx, tx, productID)
			if err != nil {
				return err
			}
			if stock < delta {
				return ErrInsufficientStock
			}
		}
		if _, err := tx.ExecContext(ctx, querySetCartItem, userID, productID, qty); err != nil {
			return err
		}
		return reserveStock(ctx, tx, productID, delta)
	})
}

// RemoveFromCart drops a cart line and puts its units back on the shelf.
func (s *PostgresStore) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID int64) error {
	unlock := s.lockForUser(userID.String())
	defer unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var qty int
		err := tx.QueryRowContext(ctx, queryDeleteCartItem, userID, productID).Scan(&qty)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(cartItemResource, "product_id", productID)
		}
		if err != nil {
			return err
		}
		return restoreStock(ctx, tx, productID, qty)
	})
}

// ClearCart empties the cart, restoring every reserved unit.
func (s *PostgresStore) ClearCart(ctx context.Context, userID uuid.UUID) error {
	unlock := s.lockForUser(userID.String())
	defer unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, queryClearCartItems, userID)
		if err != nil {
			return err
		}
		var removed []model.CartItem
		for rows.Next() {
			var it model.CartItem
			if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
				rows.Close()
				return err
			}
			removed = append(removed, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, it := range removed {
			if err := restoreStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, queryDeleteCart, userID)
		return err
	})
}

// GetCart returns the cart lines joined with current product data.
func (s *PostgresStore) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	rows, err := s.DB.QueryContext(ctx, queryGetCart, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CartItem{}
	for rows.Next() {
		var c model.CartItem
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Slug, &c.ImageURL, &c.UnitPriceCents, &c.Quantity, &c.Available, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
