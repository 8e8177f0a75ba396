// Package catalog narrows, sorts, and pages the product list and computes
// the facet counts shown next to it. The catalog is small enough to hold in
// memory, so everything here works on plain slices.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortName      SortOrder = "name"
	SortNewest    SortOrder = "newest"
	SortRating    SortOrder = "rating"
)

var sortOrders = []SortOrder{SortFeatured, SortPriceAsc, SortPriceDesc, SortName, SortNewest, SortRating}

const (
	DefaultPerPage = 12
	MaxPerPage     = 48
)

// ErrInvalidFilter wraps every query parameter parse failure.
var ErrInvalidFilter = errors.New("invalid filter")

// maxPriceAmount bounds min_price and max_price so cents fit an int64.
const maxPriceAmount = 1e12

// Filter is the parsed form of the storefront's query string. Facet values
// (categories, brands, regions) never contain commas, because a comma in a
// query parameter separates values. A nil price bound is unset; a bound of
// zero is a real bound.
type Filter struct {
	Query         string
	Categories    []string
	Brands        []string
	Regions       []string
	MinPriceCents *int64
	MaxPriceCents *int64
	MinRating     float64
	InStock       bool
	Featured      bool
	Sort          SortOrder
	Page          int
	PerPage       int
}

// DefaultFilter returns the filter used for a bare /products request.
func DefaultFilter() Filter {
	return Filter{Sort: SortFeatured, Page: 1, PerPage: DefaultPerPage}
}

// ParseFilter reads a Filter from URL query parameters. Multi-valued facets
// may be repeated (?brand=a&brand=b) or comma separated (?brand=a,b).
func ParseFilter(v url.Values) (Filter, error) {
	f := DefaultFilter()
	f.Query = strings.TrimSpace(v.Get("q"))
	f.Categories = multi(v, "category")
	f.Brands = multi(v, "brand")
	f.Regions = multi(v, "region")

	var err error
	if f.MinPriceCents, err = priceParam(v, "min_price"); err != nil {
		return Filter{}, err
	}
	if f.MaxPriceCents, err = priceParam(v, "max_price"); err != nil {
		return Filter{}, err
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return Filter{}, fmt.Errorf("%w: min_price greater than max_price", ErrInvalidFilter)
	}

	if s := v.Get("min_rating"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(r) || r < 0 || r > 5 {
			return Filter{}, fmt.Errorf("%w: min_rating must be between 0 and 5", ErrInvalidFilter)
		}
		f.MinRating = r
	}
	if f.InStock, err = boolParam(v, "in_stock"); err != nil {
		return Filter{}, err
	}
	if f.Featured, err = boolParam(v, "featured"); err != nil {
		return Filter{}, err
	}

	if s := v.Get("sort"); s != "" {
		if !slices.Contains(sortOrders, SortOrder(s)) {
			return Filter{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, s)
		}
		f.Sort = SortOrder(s)
	}
	if f.Page, err = intParam(v, "page", 1, 1, math.MaxInt32); err != nil {
		return Filter{}, err
	}
	if f.PerPage, err = intParam(v, "per_page", DefaultPerPage, 1, MaxPerPage); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Values encodes the filter back into query parameters, leaving out
// anything at its default so URLs stay short. ParseFilter(f.Values())
// returns f as long as no facet value contains a comma.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	for _, c := range f.Categories {
		v.Add("category", c)
	}
	for _, b := range f.Brands {
		v.Add("brand", b)
	}
	for _, r := range f.Regions {
		v.Add("region", r)
	}
	if f.MinPriceCents != nil {
		v.Set("min_price", formatPrice(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		v.Set("max_price", formatPrice(*f.MaxPriceCents))
	}
	if f.MinRating > 0 {
		v.Set("min_rating", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if f.InStock {
		v.Set("in_stock", "true")
	}
	if f.Featured {
		v.Set("featured", "true")
	}
	if f.Sort != "" && f.Sort != SortFeatured {
		v.Set("sort", string(f.Sort))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage != 0 && f.PerPage != DefaultPerPage {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v
}

// Encode is Values().Encode(); url.Values sorts keys so the string is stable.
func (f Filter) Encode() string { return f.Values().Encode() }

func multi(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !containsFold(out, part) {
				out = append(out, part)
			}
		}
	}
	return out
}

// priceParam returns nil when key is absent.
func priceParam(v url.Values, key string) (*int64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || p < 0 || p > maxPriceAmount {
		return nil, fmt.Errorf("%w: %s must be an amount between 0 and %.0f", ErrInvalidFilter, key, maxPriceAmount)
	}
	cents := int64(math.Round(p * 100))
	return &cents, nil
}

func formatPrice(cents int64) string {
	if cents%100 == 0 {
		return strconv.FormatInt(cents/100, 10)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func boolParam(v url.Values, key string) (bool, error) {
	s := v.Get(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidFilter, key)
	}
	return b, nil
}

func intParam(v url.Values, key string, def, lo, hi int) (int, error) {
	s := v.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidFilter, key, lo, hi)
	}
	return n, nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
