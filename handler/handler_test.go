package handler

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"spirits-storefront/auth"
	"spirits-storefront/catalog"
	"spirits-storefront/model"
	"spirits-storefront/service"
	"spirits-storefront/store"
)

var (
	customer = model.User{ID: uuid.MustParse("6f1c2c1e-33d4-4c55-9b59-8a1f0e1c2d01"), Email: "ana@example.com", Role: model.RoleCustomer}
	admin    = model.User{ID: uuid.MustParse("0b7d4b8e-4a60-4c1f-8c3e-2f5a9d6e7f02"), Email: "ops@example.com", Role: model.RoleAdmin}
)

type testEnv struct {
	svc     *mockService
	tokens  *auth.TokenIssuer
	metrics *Metrics
	router  http.Handler
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	authz, err := auth.NewAuthorizer("")
	require.NoError(t, err)

	env := &testEnv{
		svc: &mockService{},
		tokens: auth.NewTokenIssuer(auth.TokenConfig{
			Secret:   []byte("0123456789abcdef0123456789abcdef"),
			Issuer:   "test",
			Audience: "test",
			TTL:      time.Hour,
		}),
		metrics: NewMetrics(),
	}
	o := Options{
		Tokens:     env.tokens,
		Authorizer: authz,
		Metrics:    env.metrics,
		LoginRate:  rate.Limit(10),
		LoginBurst: 10,
	}
	for _, fn := range opts {
		fn(&o)
	}
	env.router = NewHandler(env.svc, o).Router()
	return env
}

func (e *testEnv) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er), rec.Body.String())
	return er
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	page := catalog.Page{Items: []model.Product{{ID: 1, Name: "Islay 10"}}, Total: 1, Page: 1, PerPage: 12, Pages: 1}
	env.svc.On("BrowseProducts", mock.Anything, mock.MatchedBy(func(f catalog.Filter) bool {
		return slices.Equal(f.Categories, []string{"whisky"}) && f.Sort == catalog.SortPriceAsc
	})).Return(page, nil).Once()

	rec := env.do(http.MethodGet, "/api/products?category=whisky&sort=price_asc", "", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got productListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "category=whisky&sort=price_asc", got.Query)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Islay 10", got.Items[0].Name)
	env.svc.AssertExpectations(t)
}

func TestListProducts_InvalidFilter(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/products?sort=cheapest", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeError(t, rec).Error)
	env.svc.AssertNotCalled(t, "BrowseProducts", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	testCases := map[string]struct {
		err      error
		wantCode int
		wantErr  string
	}{
		"not found": {
			err:      &store.NotFoundError{Resource: "product", Key: "id", Value: "9"},
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		"invalid input": {
			err:      fmt.Errorf("%w: bad slug", service.ErrInvalidInput),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_input",
		},
		"conflict": {
			err:      store.ErrConflict,
			wantCode: http.StatusConflict,
			wantErr:  "conflict",
		},
		"unexpected error hides details": {
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.svc.On("GetProduct", mock.Anything, int64(9)).Return(service.ProductDetail{}, tc.err).Once()

			rec := env.do(http.MethodGet, "/api/products/9", "", "")

			assert.Equal(t, tc.wantCode, rec.Code)
			er := decodeError(t, rec)
			assert.Equal(t, tc.wantErr, er.Error)
			assert.NotContains(t, er.Message, "pq:")
		})
	}
}

func TestGetProductBySlug(t *testing.T) {
	env := newTestEnv(t)
	detail := service.ProductDetail{Product: model.Product{ID: 4, Slug: "highland-12"}, DescriptionHTML: "<p>Smooth</p>\n"}
	env.svc.On("GetProductBySlug", mock.Anything, "highland-12").Return(detail, nil).Once()

	rec := env.do(http.MethodGet, "/api/products/slug/highland-12", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"highland-12"`)
	env.svc.AssertExpectations(t)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)

	rec = env.do(http.MethodPatch, "/api/products", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", decodeError(t, rec).Error)
}

func TestProtect(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("Dashboard", mock.Anything).Return(model.DashboardStats{}, nil)

	testCases := map[string]struct {
		path     string
		token    string
		wantCode int
	}{
		"missing token":           {path: "/api/cart", wantCode: http.StatusUnauthorized},
		"garbage token":           {path: "/api/cart", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		"customer on admin route": {path: "/api/admin/dashboard", token: env.token(t, customer), wantCode: http.StatusForbidden},
		"admin on admin route":    {path: "/api/admin/dashboard", token: env.token(t, admin), wantCode: http.StatusOK},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tc.path, "", tc.token)
			assert.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestProtect_TokenFromOtherIssuer(t *testing.T) {
	env := newTestEnv(t)
	other := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "someone-else",
		Audience: "test",
		TTL:      time.Hour,
	})
	tok, _, err := other.Issue(customer)
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/api/cart", "", tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddToCart(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	view := service.CartView{Items: []model.CartItem{{ProductID: 3, Quantity: 2}}, ItemCount: 2}
	env.svc.On("AddToCart", mock.Anything, customer.ID, int64(3), 2).Return(view, nil).Once()
	env.svc.On("AddToCart", mock.Anything, customer.ID, int64(5), 1).
		Return(service.CartView{}, fmt.Errorf("product 5: %w", store.ErrInsufficientStock)).Once()

	rec := env.do(http.MethodPost, "/api/cart/items", `{"product_id":3,"quantity":2}`, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/cart/items", `{"product_id":5,"quantity":1}`, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_stock", decodeError(t, rec).Error)

	rec = env.do(http.MethodPost, "/api/cart/items", `{"quantity":1}`, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart/items", `{"product_id":3,"qty":1}`, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	env.svc.AssertExpectations(t)
}

func TestCartItemRoutes(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	env.svc.On("SetCartQuantity", mock.Anything, customer.ID, int64(3), 4).Return(service.CartView{ItemCount: 4}, nil).Once()
	env.svc.On("RemoveFromCart", mock.Anything, customer.ID, int64(3)).Return(service.CartView{}, nil).Once()
	env.svc.On("ClearCart", mock.Anything, customer.ID).Return(nil).Once()

	assert.Equal(t, http.StatusOK, env.do(http.MethodPut, "/api/cart/items/3", `{"quantity":4}`, tok).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/api/cart/items/3", "", tok).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/cart", "", tok).Code)
	env.svc.AssertExpectations(t)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	addrID := int64(12)
	order := model.Order{ID: 100, UserID: customer.ID, Status: model.OrderPlaced}
	env.svc.On("Checkout", mock.Anything, customer.ID, service.CheckoutRequest{}).Return(order, nil).Once()
	env.svc.On("Checkout", mock.Anything, customer.ID, service.CheckoutRequest{AddressID: &addrID}).
		Return(model.Order{}, fmt.Errorf("%w: must be 18", service.ErrUnderage)).Once()

	rec := env.do(http.MethodPost, "/api/checkout", "", tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(100), got.ID)
	assert.Equal(t, model.OrderPlaced, got.Status)

	rec = env.do(http.MethodPost, "/api/checkout", `{"address_id":12}`, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "underage", decodeError(t, rec).Error)
	env.svc.AssertExpectations(t)
}

func TestMyOrders(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	env.svc.On("ListMyOrders", mock.Anything, customer.ID).Return([]model.Order{{ID: 1}, {ID: 2}}, nil).Once()
	env.svc.On("GetMyOrder", mock.Anything, customer.ID, int64(2)).Return(model.Order{ID: 2}, nil).Once()
	env.svc.On("CancelMyOrder", mock.Anything, customer.ID, int64(2)).
		Return(model.Order{}, fmt.Errorf("%w: order is shipped", service.ErrInvalidTransition)).Once()

	rec := env.do(http.MethodGet, "/api/orders", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/orders/2", "", tok).Code)

	rec = env.do(http.MethodPost, "/api/orders/2/cancel", "", tok)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, rec).Error)
	env.svc.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("Authenticate", mock.Anything, "ana@example.com", "correct horse").Return(customer, nil).Once()
	env.svc.On("Authenticate", mock.Anything, "ana@example.com", "wrong").Return(model.User{}, service.ErrInvalidCredentials).Once()

	rec := env.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, id.UserID)
	assert.Equal(t, model.RoleCustomer, id.Role)
	assert.Equal(t, customer.Email, resp.User.Email)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Error)
	env.svc.AssertExpectations(t)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.LoginRate = rate.Limit(0.001)
		o.LoginBurst = 2
	})
	env.svc.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(model.User{}, service.ErrInvalidCredentials)

	body := `{"email":"ana@example.com","password":"guess"}`
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/auth/login", body, "").Code)

	rec := env.do(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	env.svc.AssertNumberOfCalls(t, "Authenticate", 2)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	req := service.RegisterRequest{Email: "ana@example.com", Password: "s3cret-pass", FirstName: "Ana", BirthDate: "1990-04-02"}
	env.svc.On("Register", mock.Anything, req).Return(customer, nil).Once()

	rec := env.do(http.MethodPost, "/api/auth/register",
		`{"email":"ana@example.com","password":"s3cret-pass","first_name":"Ana","birth_date":"1990-04-02"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	env.svc.AssertExpectations(t)
}

func TestAccountRoutes(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	name := "Ana Maria"
	env.svc.On("GetProfile", mock.Anything, customer.ID).Return(customer, nil).Once()
	env.svc.On("UpdateProfile", mock.Anything, customer.ID, service.ProfileUpdate{FirstName: &name}).Return(customer, nil).Once()
	env.svc.On("ChangePassword", mock.Anything, customer.ID, "old-password", "new-password").Return(nil).Once()
	env.svc.On("ListAddresses", mock.Anything, customer.ID).Return([]model.Address{}, nil).Once()
	env.svc.On("DeleteAddress", mock.Anything, customer.ID, int64(8)).
		Return(&store.NotFoundError{Resource: "address", Key: "id", Value: "8"}).Once()

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/account", "", tok).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPatch, "/api/account", `{"first_name":"Ana Maria"}`, tok).Code)
	assert.Equal(t, http.StatusNoContent,
		env.do(http.MethodPost, "/api/account/password", `{"current_password":"old-password","new_password":"new-password"}`, tok).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/account/addresses", "", tok).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/account/addresses/8", "", tok).Code)
	env.svc.AssertExpectations(t)
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, customer)
	in := service.ReviewInput{Rating: 5, Title: "Peaty", Body: "Lovely."}
	env.svc.On("CreateReview", mock.Anything, customer.ID, int64(4), in).Return(model.Review{ID: 1, ProductID: 4, Rating: 5}, nil).Once()

	rec := env.do(http.MethodPost, "/api/products/4/reviews", `{"rating":5,"title":"Peaty","body":"Lovely."}`, tok)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/products/4/reviews", `{"rating":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.svc.AssertExpectations(t)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, admin)
	env.svc.On("UpdateStock", mock.Anything, int64(4), 0).Return(nil).Once()
	env.svc.On("UpdateOrderStatus", mock.Anything, int64(7), model.OrderShipped).Return(model.Order{ID: 7, Status: model.OrderShipped}, nil).Once()
	env.svc.On("UpdateOrderStatus", mock.Anything, int64(8), model.OrderPlaced).
		Return(model.Order{}, fmt.Errorf("%w: shipped to placed", service.ErrInvalidTransition)).Once()
	env.svc.On("ListOrders", mock.Anything, model.OrderPlaced).Return([]model.Order{{ID: 1}}, nil).Once()
	env.svc.On("ListRecentReviews", mock.Anything, 20).Return([]model.Review{}, nil).Once()
	env.svc.On("ArchiveProduct", mock.Anything, int64(4)).Return(nil).Once()
	env.svc.On("DeleteReview", mock.Anything, int64(3)).Return(nil).Once()

	rec := env.do(http.MethodPut, "/api/admin/products/4/stock", `{"stock":0}`, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_id":4,"stock":0}`, rec.Body.String())
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/admin/products/4/stock", `{}`, tok).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/admin/orders/7/status", `{"status":"shipped"}`, tok).Code)
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/admin/orders/8/status", `{"status":"placed"}`, tok).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/admin/orders?status=placed", "", tok).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/admin/orders?status=lost", "", tok).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/admin/reviews?limit=20", "", tok).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/admin/reviews?limit=x", "", tok).Code)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/admin/products/4", "", tok).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/admin/reviews/3", "", tok).Code)
	env.svc.AssertExpectations(t)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, admin)
	env.svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.SKU == "GIN-001" && p.PriceCents == 3450
	})).Return(model.Product{ID: 11, SKU: "GIN-001"}, nil).Once()

	rec := env.do(http.MethodPost, "/api/admin/products", `{"sku":"GIN-001","name":"Dry Gin","price_cents":3450}`, tok)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env.svc.AssertExpectations(t)
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("GetProduct", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { panic("boom") }).
		Return(service.ProductDetail{}, nil)

	rec := env.do(http.MethodGet, "/api/products/1", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeError(t, rec).Error)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	given := uuid.NewString()
	req.Header.Set(RequestIDHeader, given)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	got := rec.Header().Get(RequestIDHeader)
	assert.NotEqual(t, "<script>", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("GetProduct", mock.Anything, int64(2)).Return(service.ProductDetail{}, &store.NotFoundError{Resource: "product"})

	env.do(http.MethodGet, "/health", "", "")
	env.do(http.MethodGet, "/health", "", "")
	env.do(http.MethodGet, "/api/products/2", "", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("/api/products/{id:[0-9]+}", "GET", "404")))

	rec := env.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestMetrics_CountsUnmatchedAndPanics(t *testing.T) {
	env := newTestEnv(t)
	env.svc.On("GetProduct", mock.Anything, int64(3)).
		Run(func(mock.Arguments) { panic("boom") }).
		Return(service.ProductDetail{}, nil)

	env.do(http.MethodGet, "/api/nope", "", "")
	env.do(http.MethodPatch, "/api/products", "", "")
	rec := env.do(http.MethodGet, "/api/products/3", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("unmatched", "PATCH", "405")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("/api/products/{id:[0-9]+}", "GET", "500")))
}

func TestAccessLog_CoversUnknownRoutes(t *testing.T) {
	var buf bytes.Buffer
	env := newTestEnv(t, func(o *Options) {
		o.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	})

	rec := env.do(http.MethodGet, "/api/nope", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var entry struct {
		Msg       string `json:"msg"`
		Path      string `json:"path"`
		Status    int    `json:"status"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "http_request", entry.Msg)
	assert.Equal(t, "/api/nope", entry.Path)
	assert.Equal(t, http.StatusNotFound, entry.Status)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), entry.RequestID)
}

func TestGzip(t *testing.T) {
	env := newTestEnv(t)
	items := make([]model.Product, 40)
	for i := range items {
		items[i] = model.Product{ID: int64(i + 1), Name: "Bottle", Description: strings.Repeat("oak and smoke ", 20)}
	}
	env.svc.On("BrowseProducts", mock.Anything, mock.Anything).Return(catalog.Page{Items: items, Total: len(items)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	var got productListResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got.Items, 40)
}

func TestExtractBearerToken(t *testing.T) {
	testCases := map[string]struct {
		header  string
		want    string
		wantErr bool
	}{
		"valid":        {header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		"lowercase":    {header: "bearer abc", want: "abc"},
		"missing":      {header: "", wantErr: true},
		"wrong scheme": {header: "Basic dXNlcjpwYXNz", wantErr: true},
		"no token":     {header: "Bearer ", wantErr: true},
		"no separator": {header: "Bearerabc", wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, err := extractBearerToken(req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIPLimiter_ForgetsQuietClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(rate.Limit(0.001), 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "buckets are per client")

	now = now.Add(visitorTTL + time.Minute)
	assert.True(t, l.allow("10.0.0.3"))
	assert.Len(t, l.visitors, 1, "quiet clients are swept")
}
