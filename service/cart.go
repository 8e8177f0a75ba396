package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"spirits-storefront/model"
	"spirits-storefront/store"
)

// CartView is the cart with its estimated totals. Shipping and tax are
// computed the same way checkout will compute them.
type CartView struct {
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"item_count"`
	model.Totals
	// HasUnavailable is set when a line refers to an archived product;
	// checkout fails until it is removed.
	HasUnavailable bool `json:"has_unavailable"`
}

func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (CartView, error) {
	items, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return s.cartView(items), nil
}

func (s *Service) cartView(items []model.CartItem) CartView {
	v := CartView{Items: items}
	lines := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		v.ItemCount += it.Quantity
		if !it.Active {
			v.HasUnavailable = true
		}
		lines = append(lines, model.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPriceCents: it.UnitPriceCents})
	}
	v.Totals = s.pricer.Price(lines)
	return v
}

// AddToCart adds qty units, keeping the line within the shop's per-line
// cap. The store checks the cap against the locked cart line.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty int) (CartView, error) {
	if err := s.checkQuantity(qty); err != nil {
		return CartView{}, err
	}
	if err := s.store.AddToCart(ctx, userID, productID, qty, s.shop.MaxLineQuantity); err != nil {
		if errors.Is(err, store.ErrLineLimit) {
			return CartView{}, invalid("at most %d units per product", s.shop.MaxLineQuantity)
		}
		return CartView{}, err
	}
	return s.GetCart(ctx, userID)
}

func (s *Service) SetCartQuantity(ctx context.Context, userID uuid.UUID, productID int64, qty int) (CartView, error) {
	if err := s.checkQuantity(qty); err != nil {
		return CartView{}, err
	}
	if err := s.store.SetCartQuantity(ctx, userID, productID, qty); err != nil {
		return CartView{}, err
	}
	return s.GetCart(ctx, userID)
}

func (s *Service) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID int64) (CartView, error) {
	if err := s.store.RemoveFromCart(ctx, userID, productID); err != nil {
		return CartView{}, err
	}
	return s.GetCart(ctx, userID)
}

func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.store.ClearCart(ctx, userID)
}

func (s *Service) checkQuantity(qty int) error {
	if qty <= 0 {
		return invalid("quantity must be > 0")
	}
	if qty > s.shop.MaxLineQuantity {
		return invalid("at most %d units per product", s.shop.MaxLineQuantity)
	}
	return nil
}
