package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"spirits-storefront/model"
)

const (
	productColumns = `p.id, p.sku, p.slug, p.name, p.brand, p.category, p.region, p.description, ` +
		`p.price_cents, p.abv, p.volume_ml, p.age_years, p.image_url, p.tags, p.stock, p.featured, p.active, ` +
		`COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0), p.created_at, p.updated_at`

	productFrom = `FROM products p LEFT JOIN (` +
		`SELECT product_id, ROUND(AVG(rating)::numeric, 1)::float8 AS avg_rating, COUNT(*) AS review_count ` +
		`FROM reviews GROUP BY product_id) r ON r.product_id = p.id`

	queryListProducts     = `SELECT ` + productColumns + ` ` + productFrom + ` WHERE p.active OR $1 ORDER BY p.id`
	queryGetProduct       = `SELECT ` + productColumns + ` ` + productFrom + ` WHERE p.id = $1`
	queryGetProductBySlug = `SELECT ` + productColumns + ` ` + productFrom + ` WHERE p.slug = $1`
	queryLowStockProducts = `SELECT ` + productColumns + ` ` + productFrom + ` WHERE p.active AND p.stock <= $1 ORDER BY p.stock, p.id`
	queryInsertProduct    = `INSERT INTO products (sku, slug, name, brand, category, region, description, price_cents, abv, volume_ml, age_years, image_url, tags, stock, featured, active) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16) RETURNING id, created_at, updated_at`
	queryUpdateProduct    = `UPDATE products SET sku=$2, slug=$3, name=$4, brand=$5, category=$6, region=$7, description=$8, price_cents=$9, abv=$10, volume_ml=$11, age_years=$12, image_url=$13, tags=$14, featured=$15, active=$16, updated_at=now() WHERE id=$1 RETURNING updated_at`
	queryArchiveProduct   = `UPDATE products SET active=false, updated_at=now() WHERE id=$1`
	productResource       = "product"
)

func scanProduct(row scanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Slug, &p.Name, &p.Brand, &p.Category, &p.Region, &p.Description,
		&p.PriceCents, &p.ABV, &p.VolumeML, &p.AgeYears, &p.ImageURL, pq.Array(&p.Tags), &p.Stock,
		&p.Featured, &p.Active, &p.RatingAvg, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, err
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product and returns its id. Stock is taken from
// p.Stock; later changes go through UpdateStock.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	err := s.DB.QueryRowContext(ctx, queryInsertProduct,
		p.SKU, p.Slug, p.Name, p.Brand, p.Category, p.Region, p.Description, p.PriceCents,
		p.ABV, p.VolumeML, p.AgeYears, p.ImageURL, pq.Array(p.Tags), p.Stock, p.Featured, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: sku or slug already in use", ErrConflict)
		}
		return 0, err
	}
	return p.ID, nil
}

// UpdateProduct overwrites the descriptive fields of a product. Stock is
// left alone so cart reservations stay consistent.
func (s *PostgresStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	err := s.DB.QueryRowContext(ctx, queryUpdateProduct,
		p.ID, p.SKU, p.Slug, p.Name, p.Brand, p.Category, p.Region, p.Description, p.PriceCents,
		p.ABV, p.VolumeML, p.AgeYears, p.ImageURL, pq.Array(p.Tags), p.Featured, p.Active,
	).Scan(&p.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return notFound(productResource, "id", p.ID)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: sku or slug already in use", ErrConflict)
	}
	return err
}

// ArchiveProduct hides a product from the storefront without deleting the
// rows that reference it.
func (s *PostgresStore) ArchiveProduct(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, queryArchiveProduct, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, productResource, "id", id)
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	p, err := scanProduct(s.DB.QueryRowContext(ctx, queryGetProduct, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFound(productResource, "id", id)
	}
	return p, err
}

func (s *PostgresStore) GetProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	p, err := scanProduct(s.DB.QueryRowContext(ctx, queryGetProductBySlug, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFound(productResource, "slug", slug)
	}
	return p, err
}

// ListProducts returns the catalog with rating aggregates, ordered by id.
func (s *PostgresStore) ListProducts(ctx context.Context, includeInactive bool) ([]model.Product, error) {
	return s.queryProducts(ctx, queryListProducts, includeInactive)
}
