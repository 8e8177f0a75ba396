package handler

import "net/http"

// ListMyOrders handles GET /api/orders
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.svc.ListMyOrders(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

// GetMyOrder handles GET /api/orders/{id}
func (h *Handler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.svc.GetMyOrder(r.Context(), identityFrom(r.Context()).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CancelMyOrder handles POST /api/orders/{id}/cancel
func (h *Handler) CancelMyOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.svc.CancelMyOrder(r.Context(), identityFrom(r.Context()).UserID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
