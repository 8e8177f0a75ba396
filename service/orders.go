package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"spirits-storefront/model"
	"spirits-storefront/store"
)

// CheckoutRequest names the shipping address: a saved address, an inline
// one, or neither to use the default saved address.
type CheckoutRequest struct {
	AddressID *int64         `json:"address_id,omitempty"`
	Address   *model.Address `json:"address,omitempty"`
}

// Checkout turns the cart into an order for a buyer of legal age.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (model.Order, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.Order{}, err
	}
	if err := s.checkLegalAge(u); err != nil {
		return model.Order{}, err
	}

	shipTo, err := s.shippingAddress(ctx, userID, req)
	if err != nil {
		return model.Order{}, err
	}

	order, err := s.store.Checkout(ctx, userID, shipTo, s.pricer)
	if err != nil {
		if errors.Is(err, store.ErrCartEmpty) {
			return model.Order{}, invalid("cart is empty")
		}
		return model.Order{}, err
	}
	s.logger.InfoContext(ctx, "order_placed", "order_id", order.ID, "user_id", userID, "total_cents", order.TotalCents)
	return order, nil
}

func (s *Service) shippingAddress(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (model.Address, error) {
	switch {
	case req.AddressID != nil:
		return s.store.GetAddress(ctx, userID, *req.AddressID)
	case req.Address != nil:
		a := *req.Address
		if err := normalizeAddress(&a); err != nil {
			return model.Address{}, err
		}
		a.ID, a.UserID, a.IsDefault = 0, userID, false
		return a, nil
	}

	saved, err := s.store.ListAddresses(ctx, userID)
	if err != nil {
		return model.Address{}, err
	}
	for _, a := range saved {
		if a.IsDefault {
			return a, nil
		}
	}
	return model.Address{}, invalid("shipping address required")
}

func (s *Service) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

// GetMyOrder returns the order only when it belongs to userID; someone
// else's order is reported as not found.
func (s *Service) GetMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != userID {
		return model.Order{}, notFound("order", id)
	}
	return o, nil
}

// CancelMyOrder cancels an order that has not been picked up for
// processing yet. Its units go back in stock.
func (s *Service) CancelMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error) {
	o, err := s.GetMyOrder(ctx, userID, id)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != model.OrderPlaced {
		return model.Order{}, fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, model.OrderPlaced, model.OrderCancelled); err != nil {
		return model.Order{}, err
	}
	s.logger.InfoContext(ctx, "order_cancelled", "order_id", id, "user_id", userID)
	return s.store.GetOrder(ctx, id)
}
