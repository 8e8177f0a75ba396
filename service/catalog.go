package service

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spirits-storefront/catalog"
	"spirits-storefront/model"
)

// ProductDetail is everything the product page shows.
type ProductDetail struct {
	model.Product
	DescriptionHTML string              `json:"description_html"`
	Rating          model.RatingSummary `json:"rating"`
	Reviews         []model.Review      `json:"reviews"`
	Related         []model.Product     `json:"related"`
}

// BrowseProducts filters, sorts, facets and pages the active catalog.
func (s *Service) BrowseProducts(ctx context.Context, f catalog.Filter) (catalog.Page, error) {
	products, err := s.store.ListProducts(ctx, false)
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.Apply(products, f), nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (ProductDetail, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	return s.productDetail(ctx, p)
}

func (s *Service) GetProductBySlug(ctx context.Context, slug string) (ProductDetail, error) {
	p, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	return s.productDetail(ctx, p)
}

// productDetail loads reviews, related products and the rendered
// description concurrently. Archived products are not found.
func (s *Service) productDetail(ctx context.Context, p model.Product) (ProductDetail, error) {
	if !p.Active {
		return ProductDetail{}, notFound("product", p.ID)
	}

	d := ProductDetail{Product: p}
	var reviews []model.Review

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reviews, err = s.store.ListReviews(gctx, p.ID)
		return err
	})
	g.Go(func() error {
		all, err := s.store.ListProducts(gctx, false)
		if err != nil {
			return err
		}
		d.Related = s.related(all, p)
		return nil
	})
	g.Go(func() error {
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(p.Description), &buf); err != nil {
			return fmt.Errorf("render description of product %d: %w", p.ID, err)
		}
		d.DescriptionHTML = buf.String()
		return nil
	})
	if err := g.Wait(); err != nil {
		return ProductDetail{}, err
	}

	d.Rating = model.Summarize(reviews)
	d.Reviews = reviews
	if n := s.shop.DetailReviews; n > 0 && len(d.Reviews) > n {
		d.Reviews = d.Reviews[:n]
	}
	return d, nil
}

// related picks the best rated products of the same category.
func (s *Service) related(all []model.Product, p model.Product) []model.Product {
	n := s.shop.RelatedProducts
	if n <= 0 {
		return []model.Product{}
	}
	f := catalog.DefaultFilter()
	f.Categories = []string{p.Category}
	f.Sort = catalog.SortRating
	f.PerPage = catalog.MaxPerPage

	out := make([]model.Product, 0, n)
	for _, c := range catalog.Apply(all, f).Items {
		if c.ID == p.ID {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}
