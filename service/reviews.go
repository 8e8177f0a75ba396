package service

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	maxReviewTitle = 120
	maxReviewBody  = 4000
)

type ReviewInput struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type ReviewList struct {
	Summary model.RatingSummary `json:"summary"`
	Reviews []model.Review      `json:"reviews"`
}

// CreateReview posts a review under the user's display name. It is marked
// as a verified purchase when the user has ordered the product.
func (s *Service) CreateReview(ctx context.Context, userID uuid.UUID, productID int64, in ReviewInput) (model.Review, error) {
	r := model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     clean(in.Title),
		Body:      clean(in.Body),
	}
	switch {
	case r.Rating < 1 || r.Rating > 5:
		return model.Review{}, invalid("rating must be between 1 and 5")
	case r.Body == "":
		return model.Review{}, invalid("review body is required")
	case utf8.RuneCountInString(r.Title) > maxReviewTitle:
		return model.Review{}, invalid("title is longer than %d characters", maxReviewTitle)
	case utf8.RuneCountInString(r.Body) > maxReviewBody:
		return model.Review{}, invalid("review is longer than %d characters", maxReviewBody)
	}

	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return model.Review{}, err
	}
	if !p.Active {
		return model.Review{}, notFound("product", productID)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.Review{}, err
	}
	r.Author = u.DisplayName()
	if r.VerifiedPurchase, err = s.store.HasPurchased(ctx, userID, productID); err != nil {
		return model.Review{}, err
	}

	if err := s.store.CreateReview(ctx, &r); err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// ListReviews returns a product's reviews, newest first, with their
// summary.
func (s *Service) ListReviews(ctx context.Context, productID int64) (ReviewList, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return ReviewList{}, err
	}
	if !p.Active {
		return ReviewList{}, notFound("product", productID)
	}
	reviews, err := s.store.ListReviews(ctx, productID)
	if err != nil {
		return ReviewList{}, err
	}
	return ReviewList{Summary: model.Summarize(reviews), Reviews: reviews}, nil
}
