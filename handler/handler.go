package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"spirits-storefront/auth"
	"spirits-storefront/service"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc     service.ServiceInterface
	tokens  *auth.TokenIssuer
	authz   *auth.Authorizer
	limiter *ipLimiter
	metrics *Metrics
	logger  *slog.Logger
}

// Options carries the collaborators of a Handler besides the service.
type Options struct {
	Tokens     *auth.TokenIssuer
	Authorizer *auth.Authorizer
	Metrics    *Metrics
	Logger     *slog.Logger
	LoginRate  rate.Limit // login attempts per second per client IP
	LoginBurst int
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &Handler{
		svc:     s,
		tokens:  opts.Tokens,
		authz:   opts.Authorizer,
		limiter: newIPLimiter(opts.LoginRate, opts.LoginBurst),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Router builds the complete HTTP handler: routes, middleware and gzip
// compression. The middleware wraps the router rather than being added
// with Use, so 404 and 405 responses are logged and counted as well.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	h.RegisterRoutes(r)

	// innermost first
	var next http.Handler = r
	for _, mw := range []mux.MiddlewareFunc{h.metrics.Middleware(r), h.recoverer, h.accessLog, h.requestID} {
		next = mw(next)
	}
	return gzhttp.GzipHandler(next)
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", h.metrics.Handler()).Methods("GET")

	// Catalog
	r.HandleFunc("/api/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/api/products/slug/{slug}", h.GetProductBySlug).Methods("GET")
	r.HandleFunc("/api/products/{id:[0-9]+}", h.GetProduct).Methods("GET")
	r.HandleFunc("/api/products/{id:[0-9]+}/reviews", h.ListReviews).Methods("GET")
	r.Handle("/api/products/{id:[0-9]+}/reviews", h.protect(h.CreateReview)).Methods("POST")

	// Auth
	r.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	r.Handle("/api/auth/login", h.rateLimited(h.Login)).Methods("POST")

	// Account
	r.Handle("/api/account", h.protect(h.GetAccount)).Methods("GET")
	r.Handle("/api/account", h.protect(h.UpdateAccount)).Methods("PATCH")
	r.Handle("/api/account/password", h.protect(h.ChangePassword)).Methods("POST")
	r.Handle("/api/account/addresses", h.protect(h.ListAddresses)).Methods("GET")
	r.Handle("/api/account/addresses", h.protect(h.CreateAddress)).Methods("POST")
	r.Handle("/api/account/addresses/{id:[0-9]+}", h.protect(h.UpdateAddress)).Methods("PUT")
	r.Handle("/api/account/addresses/{id:[0-9]+}", h.protect(h.DeleteAddress)).Methods("DELETE")

	// Cart and checkout
	r.Handle("/api/cart", h.protect(h.GetCart)).Methods("GET")
	r.Handle("/api/cart", h.protect(h.ClearCart)).Methods("DELETE")
	r.Handle("/api/cart/items", h.protect(h.AddToCart)).Methods("POST")
	r.Handle("/api/cart/items/{id:[0-9]+}", h.protect(h.SetCartQuantity)).Methods("PUT")
	r.Handle("/api/cart/items/{id:[0-9]+}", h.protect(h.RemoveFromCart)).Methods("DELETE")
	r.Handle("/api/checkout", h.protect(h.Checkout)).Methods("POST")

	// Orders
	r.Handle("/api/orders", h.protect(h.ListMyOrders)).Methods("GET")
	r.Handle("/api/orders/{id:[0-9]+}", h.protect(h.GetMyOrder)).Methods("GET")
	r.Handle("/api/orders/{id:[0-9]+}/cancel", h.protect(h.CancelMyOrder)).Methods("POST")

	// Admin
	r.Handle("/api/admin/dashboard", h.protect(h.Dashboard)).Methods("GET")
	r.Handle("/api/admin/products", h.protect(h.AdminListProducts)).Methods("GET")
	r.Handle("/api/admin/products", h.protect(h.CreateProduct)).Methods("POST")
	r.Handle("/api/admin/products/{id:[0-9]+}", h.protect(h.UpdateProduct)).Methods("PUT")
	r.Handle("/api/admin/products/{id:[0-9]+}", h.protect(h.ArchiveProduct)).Methods("DELETE")
	r.Handle("/api/admin/products/{id:[0-9]+}/stock", h.protect(h.UpdateStock)).Methods("PUT")
	r.Handle("/api/admin/orders", h.protect(h.ListOrders)).Methods("GET")
	r.Handle("/api/admin/orders/{id:[0-9]+}/status", h.protect(h.UpdateOrderStatus)).Methods("POST")
	r.Handle("/api/admin/reviews", h.protect(h.ListRecentReviews)).Methods("GET")
	r.Handle("/api/admin/reviews/{id:[0-9]+}", h.protect(h.DeleteReview)).Methods("DELETE")
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
