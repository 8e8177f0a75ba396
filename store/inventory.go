package store

import (
	"context"
	"database/sql"
	"errors"
)

const (
	queryUpdateStock     = `UPDATE products SET stock=$1, updated_at=now() WHERE id=$2`
	queryLockProduct     = `SELECT stock, active FROM products WHERE id = $1 FOR UPDATE`
	queryReserveStock    = `UPDATE products SET stock = stock - $1 WHERE id = $2`
	queryRestoreStock    = `UPDATE products SET stock = stock + $1 WHERE id = $2`
	queryRestockForOrder = `UPDATE products p SET stock = p.stock + oi.quantity FROM order_items oi WHERE oi.order_id = $1 AND p.id = oi.product_id`
)

// UpdateStock sets the absolute stock for a product (admin operation).
func (s *PostgresStore) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return errors.New("stock cannot be negative")
	}
	res, err := s.DB.ExecContext(ctx, queryUpdateStock, newStock, productID)
	if err != nil {
		return err
	}
	return expectOneRow(res, productResource, "id", productID)
}

// lockProduct locks the product row for the rest of tx and returns its
// available stock.
func lockProduct(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	var (
		stock  int
		active bool
	)
	err := tx.QueryRowContext(ctx, queryLockProduct, productID).Scan(&stock, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(productResource, "id", productID)
	}
	if err != nil {
		return 0, err
	}
	if !active {
		return 0, ErrProductUnavailable
	}
	return stock, nil
}

// reserveStock moves qty units from the shelf into a cart. A negative qty
// gives units back.
func reserveStock(ctx context.Context, tx *sql.Tx, productID int64, qty int) error {
	_, err := tx.ExecContext(ctx, queryReserveStock, qty, productID)
	return err
}

func restoreStock(ctx context.Context, tx *sql.Tx, productID int64, qty int) error {
	_, err := tx.ExecContext(ctx, queryRestoreStock, qty, productID)
	return err
}
