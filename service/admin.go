package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spirits-storefront/auth"
	"spirits-storefront/catalog"
	"spirits-storefront/model"
	"spirits-storefront/store"
)

const (
	defaultModerationLimit = 50
	maxModerationLimit     = 200
)

func (s *Service) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	return s.store.Stats(ctx, s.shop.LowStockThreshold)
}

// AdminListProducts includes archived products.
func (s *Service) AdminListProducts(ctx context.Context) ([]model.Product, error) {
	return s.store.ListProducts(ctx, true)
}

// CreateProduct validates and stores a new, active product. A missing slug
// is derived from the name.
func (s *Service) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	normalizeProduct(&p)
	p.Active = true
	if err := catalog.ValidateProduct(p); err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.store.CreateProduct(ctx, &p); err != nil {
		return model.Product{}, err
	}
	s.logger.InfoContext(ctx, "product_created", "product_id", p.ID, "sku", p.SKU)
	return p, nil
}

// UpdateProduct overwrites a product's descriptive fields. Stock is
// changed through UpdateStock only and archiving through ArchiveProduct.
func (s *Service) UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error) {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	normalizeProduct(&p)
	p.ID, p.Stock, p.CreatedAt, p.Active = id, current.Stock, current.CreatedAt, current.Active
	if err := catalog.ValidateProduct(p); err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.store.UpdateProduct(ctx, &p); err != nil {
		return model.Product{}, err
	}
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ArchiveProduct(ctx context.Context, id int64) error {
	if err := s.store.ArchiveProduct(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product_archived", "product_id", id)
	return nil
}

func (s *Service) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return invalid("stock cannot be negative")
	}
	return s.store.UpdateStock(ctx, productID, newStock)
}

// ListOrders lists every order, or those in status when it is not empty.
func (s *Service) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	return s.store.ListOrders(ctx, status)
}

// UpdateOrderStatus moves an order along its lifecycle.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, to model.OrderStatus) (model.Order, error) {
	if !to.Valid() {
		return model.Order{}, invalid("unknown order status %q", to)
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	if !model.CanTransition(o.Status, to) {
		return model.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, o.Status, to); err != nil {
		return model.Order{}, err
	}
	s.logger.InfoContext(ctx, "order_status_changed", "order_id", id, "from", o.Status, "to", to)
	return s.store.GetOrder(ctx, id)
}

func (s *Service) ListRecentReviews(ctx context.Context, limit int) ([]model.Review, error) {
	if limit <= 0 {
		limit = defaultModerationLimit
	}
	limit = min(limit, maxModerationLimit)
	return s.store.ListRecentReviews(ctx, limit)
}

func (s *Service) DeleteReview(ctx context.Context, id int64) error {
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "review_deleted", "review_id", id)
	return nil
}

// CreateAdmin creates an admin account. Admins are staff and carry no
// birth date.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.User{}, err
	}
	if err := checkPassword(password); err != nil {
		return model.User{}, err
	}
	u := model.User{Email: email, FirstName: "Admin", Role: model.RoleAdmin}
	if u.PasswordHash, err = auth.HashPassword(password); err != nil {
		return model.User{}, err
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ImportProducts stores seed products, normalised the same way as
// CreateProduct. Products whose SKU or slug already exists are skipped, so
// an import can be re-run.
func (s *Service) ImportProducts(ctx context.Context, products []model.Product) (created, skipped int, err error) {
	for _, p := range products {
		normalizeProduct(&p)
		if err := catalog.ValidateProduct(p); err != nil {
			return created, skipped, fmt.Errorf("import %s: %w: %v", p.SKU, ErrInvalidInput, err)
		}
		if _, err := s.store.CreateProduct(ctx, &p); err != nil {
			if errors.Is(err, store.ErrConflict) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("import %s: %w", p.SKU, err)
		}
		created++
	}
	return created, skipped, nil
}

func normalizeProduct(p *model.Product) {
	p.Name = clean(p.Name)
	p.SKU = strings.ToUpper(clean(p.SKU))
	p.Brand = clean(p.Brand)
	p.Category = strings.ToLower(clean(p.Category))
	p.Region = clean(p.Region)
	p.Slug = catalog.Slugify(p.Slug)
	if p.Slug == "" {
		p.Slug = catalog.Slugify(p.Name)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
