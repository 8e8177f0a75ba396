package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"spirits-storefront/config"
	"spirits-storefront/model"
	"spirits-storefront/store"
)

var (
	// ErrInvalidInput is wrapped with a description of the offending field.
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnderage           = errors.New("below the legal drinking age")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type Service struct {
	store  store.Store
	shop   config.ShopConfig
	pricer store.Pricer
	md     goldmark.Markdown
	logger *slog.Logger
	now    func() time.Time
}

func NewService(s store.Store, shop config.ShopConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  s,
		shop:   shop,
		pricer: NewPricer(shop),
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
		now:    time.Now,
	}
}

// ShopPricer prices an order from the shop settings: a flat shipping fee
// waived above a threshold, and tax on the subtotal.
type ShopPricer struct {
	ShippingFlatCents          int64
	FreeShippingThresholdCents int64
	TaxRate                    float64
}

func NewPricer(shop config.ShopConfig) ShopPricer {
	return ShopPricer{
		ShippingFlatCents:          shop.ShippingFlatCents,
		FreeShippingThresholdCents: shop.FreeShippingThresholdCents,
		TaxRate:                    shop.TaxRate,
	}
}

func (p ShopPricer) Price(items []model.OrderItem) model.Totals {
	var sub int64
	for _, it := range items {
		sub += it.UnitPriceCents * int64(it.Quantity)
	}
	t := model.Totals{SubtotalCents: sub}
	if sub > 0 && (p.FreeShippingThresholdCents == 0 || sub < p.FreeShippingThresholdCents) {
		t.ShippingCents = p.ShippingFlatCents
	}
	t.TaxCents = int64(math.Round(float64(sub) * p.TaxRate))
	t.TotalCents = t.SubtotalCents + t.ShippingCents + t.TaxCents
	return t
}

// notFound builds the same error the store returns for a missing row, for
// rows that exist but must not be visible to the caller.
func notFound(resource string, id int64) error {
	return &store.NotFoundError{Resource: resource, Key: "id", Value: fmt.Sprint(id)}
}

func clean(s string) string { return strings.TrimSpace(s) }

// checkLegalAge fails with ErrUnderage for users without a birth date or
// younger than the shop's legal age.
func (s *Service) checkLegalAge(u model.User) error {
	if u.AgeOn(s.now()) < s.shop.LegalAge {
		return ErrUnderage
	}
	return nil
}
