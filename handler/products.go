package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"spirits-storefront/catalog"
	"spirits-storefront/service"
)

type productListResponse struct {
	catalog.Page
	// Query is the canonical query string for the applied filter, for
	// links and browser history.
	Query string `json:"query"`
}

// ListProducts handles GET /api/products?q=&category=&brand=&region=&min_price=&max_price=&...
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.svc.BrowseProducts(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productListResponse{Page: page, Query: f.Encode()})
}

// GetProduct handles GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GetProductBySlug handles GET /api/products/slug/{slug}
func (h *Handler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetProductBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListReviews handles GET /api/products/{id}/reviews
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.svc.ListReviews(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateReview handles POST /api/products/{id}/reviews
// body: { "rating": 5, "title": "...", "body": "..." }
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req service.ReviewInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	rev, err := h.svc.CreateReview(r.Context(), identityFrom(r.Context()).UserID, id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}
