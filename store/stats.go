package store

import (
	"context"

	"spirits-storefront/model"
)

const (
	queryProductCounts = `SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM products`
	queryOrderCounts   = `SELECT status, COUNT(*), COALESCE(SUM(total_cents), 0) FROM orders GROUP BY status`
	queryOtherCounts   = `SELECT (SELECT COUNT(*) FROM reviews), (SELECT COUNT(*) FROM users WHERE role = 'customer')`
)

// Stats gathers the admin dashboard numbers. Revenue leaves out cancelled
// orders.
func (s *PostgresStore) Stats(ctx context.Context, lowStockThreshold int) (model.DashboardStats, error) {
	st := model.DashboardStats{OrdersByStatus: map[model.OrderStatus]int{}}
	for _, status := range model.OrderStatuses {
		st.OrdersByStatus[status] = 0
	}

	if err := s.DB.QueryRowContext(ctx, queryProductCounts).Scan(&st.Products, &st.ActiveProducts); err != nil {
		return st, err
	}

	rows, err := s.DB.QueryContext(ctx, queryOrderCounts)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var (
			status  model.OrderStatus
			count   int
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			rows.Close()
			return st, err
		}
		st.OrdersByStatus[status] = count
		if status != model.OrderCancelled {
			st.RevenueCents += revenue
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, err
	}

	if err := s.DB.QueryRowContext(ctx, queryOtherCounts).Scan(&st.Reviews, &st.Customers); err != nil {
		return st, err
	}

	st.LowStock, err = s.queryProducts(ctx, queryLowStockProducts, lowStockThreshold)
	return st, err
}
