package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	UserID           uuid.UUID `json:"-"`
	Author           string    `json:"author"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title,omitempty"`
	Body             string    `json:"body"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

// RatingSummary aggregates the reviews of one product.
type RatingSummary struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Histogram map[int]int `json:"histogram"`
}

// Summarize builds a RatingSummary; the average is rounded to one decimal.
func Summarize(reviews []Review) RatingSummary {
	s := RatingSummary{Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := 0
	for _, r := range reviews {
		s.Histogram[r.Rating]++
		sum += r.Rating
	}
	s.Count = len(reviews)
	if s.Count > 0 {
		s.Average = math.Round(float64(sum)/float64(s.Count)*10) / 10
	}
	return s
}

// DashboardStats backs the admin overview page.
type DashboardStats struct {
	Products       int                 `json:"products"`
	ActiveProducts int                 `json:"active_products"`
	LowStock       []Product           `json:"low_stock"`
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
	RevenueCents   int64               `json:"revenue_cents"`
	Reviews        int                 `json:"reviews"`
	Customers      int                 `json:"customers"`
}
