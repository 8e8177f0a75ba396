package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	reviewColumns          = `id, product_id, user_id, author, rating, title, body, verified_purchase, created_at`
	queryInsertReview      = `INSERT INTO reviews (product_id, user_id, author, rating, title, body, verified_purchase) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`
	queryListReviews       = `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`
	queryListRecentReviews = `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC, id DESC LIMIT $1`
	queryDeleteReview      = `DELETE FROM reviews WHERE id = $1`
	queryHasPurchased      = `SELECT EXISTS (SELECT 1 FROM orders o JOIN order_items oi ON oi.order_id = o.id WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status <> 'cancelled')`
	reviewResource         = "review"
)

// CreateReview stores r. Each user may review a product once; a second
// review yields ErrConflict.
func (s *PostgresStore) CreateReview(ctx context.Context, r *model.Review) error {
	err := s.DB.QueryRowContext(ctx, queryInsertReview,
		r.ProductID, r.UserID, r.Author, r.Rating, r.Title, r.Body, r.VerifiedPurchase,
	).Scan(&r.ID, &r.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: product already reviewed", ErrConflict)
	case isForeignKeyViolation(err):
		return notFound(productResource, "id", r.ProductID)
	}
	return err
}

func (s *PostgresStore) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	return s.queryReviews(ctx, queryListReviews, productID)
}

// ListRecentReviews feeds the moderation queue.
func (s *PostgresStore) ListRecentReviews(ctx context.Context, limit int) ([]model.Review, error) {
	return s.queryReviews(ctx, queryListRecentReviews, limit)
}

func (s *PostgresStore) queryReviews(ctx context.Context, query string, arg any) ([]model.Review, error) {
	rows, err := s.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Author, &r.Rating, &r.Title, &r.Body,
			&r.VerifiedPurchase, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, queryDeleteReview, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, reviewResource, "id", id)
}

// HasPurchased reports whether the user has a non-cancelled order that
// contains the product.
func (s *PostgresStore) HasPurchased(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	var ok bool
	err := s.DB.QueryRowContext(ctx, queryHasPurchased, userID, productID).Scan(&ok)
	return ok, err
}
