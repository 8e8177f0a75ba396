package model

import "time"

// Product is a bottle listed in the catalog. Prices are kept in cents.
type Product struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Region      string    `json:"region,omitempty"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ABV         float64   `json:"abv"`
	VolumeML    int       `json:"volume_ml"`
	AgeYears    int       `json:"age_years,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Tags        []string  `json:"tags"`
	Stock       int       `json:"stock"`
	Featured    bool      `json:"featured"`
	Active      bool      `json:"active"`
	RatingAvg   float64   `json:"rating_avg"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether at least one unit can be put in a cart.
func (p Product) InStock() bool { return p.Stock > 0 }
