package catalog

import (
	"cmp"
	"slices"
	"strings"

	"spirits-storefront/model"
)

// FacetValue is one selectable entry in a facet list.
type FacetValue struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// PriceRange spans the prices of the products a facet list was built from.
type PriceRange struct {
	MinCents int64 `json:"min_cents"`
	MaxCents int64 `json:"max_cents"`
}

type Facets struct {
	Categories []FacetValue `json:"categories"`
	Brands     []FacetValue `json:"brands"`
	Regions    []FacetValue `json:"regions"`
	Price      PriceRange   `json:"price"`
}

// Page is one page of filtered products together with the facets.
type Page struct {
	Items   []model.Product `json:"items"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Pages   int             `json:"pages"`
	Facets  Facets          `json:"facets"`
}

type dimension int

const (
	dimNone dimension = iota
	dimCategory
	dimBrand
	dimRegion
)

// Apply filters, sorts, and pages products. Facet counts for a dimension
// ignore that dimension's own selection, so picking one brand still lists
// the other brands with their counts.
func Apply(products []model.Product, f Filter) Page {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	terms := strings.Fields(strings.ToLower(f.Query))

	var matched []model.Product
	for _, p := range products {
		if matches(p, f, terms, dimNone) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, f.Sort)

	page := Page{
		Total:   len(matched),
		Page:    f.Page,
		PerPage: f.PerPage,
		Pages:   (len(matched) + f.PerPage - 1) / f.PerPage,
		Items:   []model.Product{},
		Facets:  buildFacets(products, f, terms),
	}
	start := (f.Page - 1) * f.PerPage
	if start < len(matched) {
		end := min(start+f.PerPage, len(matched))
		page.Items = matched[start:end]
	}
	return page
}

func matches(p model.Product, f Filter, terms []string, skip dimension) bool {
	if skip != dimCategory && len(f.Categories) > 0 && !containsFold(f.Categories, p.Category) {
		return false
	}
	if skip != dimBrand && len(f.Brands) > 0 && !containsFold(f.Brands, p.Brand) {
		return false
	}
	if skip != dimRegion && len(f.Regions) > 0 && !containsFold(f.Regions, p.Region) {
		return false
	}
	if f.MinPriceCents != nil && p.PriceCents < *f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && p.PriceCents > *f.MaxPriceCents {
		return false
	}
	if f.MinRating > 0 && p.RatingAvg < f.MinRating {
		return false
	}
	if f.InStock && !p.InStock() {
		return false
	}
	if f.Featured && !p.Featured {
		return false
	}
	return matchesTerms(p, terms)
}

func matchesTerms(p model.Product, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join(append([]string{
		p.Name, p.Brand, p.Category, p.Region, p.Description,
	}, p.Tags...), " "))
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

func sortProducts(ps []model.Product, order SortOrder) {
	slices.SortStableFunc(ps, func(a, b model.Product) int {
		var c int
		switch order {
		case SortPriceAsc:
			c = cmp.Compare(a.PriceCents, b.PriceCents)
		case SortPriceDesc:
			c = cmp.Compare(b.PriceCents, a.PriceCents)
		case SortName:
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortNewest:
			c = b.CreatedAt.Compare(a.CreatedAt)
		case SortRating:
			c = cmp.Or(cmp.Compare(b.RatingAvg, a.RatingAvg), cmp.Compare(b.ReviewCount, a.ReviewCount))
		default:
			if a.Featured != b.Featured {
				if a.Featured {
					c = -1
				} else {
					c = 1
				}
			}
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	})
}

func buildFacets(products []model.Product, f Filter, terms []string) Facets {
	categories := map[string]int{}
	brands := map[string]int{}
	regions := map[string]int{}
	var price PriceRange
	first := true

	for _, p := range products {
		if matches(p, f, terms, dimCategory) {
			categories[p.Category]++
		}
		if matches(p, f, terms, dimBrand) {
			brands[p.Brand]++
		}
		if p.Region != "" && matches(p, f, terms, dimRegion) {
			regions[p.Region]++
		}
		if matches(p, f, terms, dimNone) {
			if first || p.PriceCents < price.MinCents {
				price.MinCents = p.PriceCents
			}
			if first || p.PriceCents > price.MaxCents {
				price.MaxCents = p.PriceCents
			}
			first = false
		}
	}

	return Facets{
		Categories: facetValues(categories, f.Categories),
		Brands:     facetValues(brands, f.Brands),
		Regions:    facetValues(regions, f.Regions),
		Price:      price,
	}
}

func facetValues(counts map[string]int, selected []string) []FacetValue {
	out := make([]FacetValue, 0, len(counts))
	for v, n := range counts {
		out = append(out, FacetValue{Value: v, Count: n, Selected: containsFold(selected, v)})
	}
	// selected values stay visible even when nothing else matches them
	for _, s := range selected {
		found := false
		for _, fv := range out {
			if strings.EqualFold(fv.Value, s) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, FacetValue{Value: s, Selected: true})
		}
	}
	slices.SortFunc(out, func(a, b FacetValue) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Value, b.Value))
	})
	return out
}
