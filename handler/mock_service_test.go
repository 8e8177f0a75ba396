package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"spirits-storefront/catalog"
	"spirits-storefront/model"
	"spirits-storefront/service"
)

type mockService struct {
	mock.Mock
}

var _ service.ServiceInterface = (*mockService)(nil)

func (m *mockService) BrowseProducts(ctx context.Context, f catalog.Filter) (catalog.Page, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(catalog.Page), args.Error(1)
}

func (m *mockService) GetProduct(ctx context.Context, id int64) (service.ProductDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.ProductDetail), args.Error(1)
}

func (m *mockService) GetProductBySlug(ctx context.Context, slug string) (service.ProductDetail, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(service.ProductDetail), args.Error(1)
}

func (m *mockService) ListReviews(ctx context.Context, productID int64) (service.ReviewList, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(service.ReviewList), args.Error(1)
}

func (m *mockService) GetCart(ctx context.Context, userID uuid.UUID) (service.CartView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.CartView), args.Error(1)
}

func (m *mockService) AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty int) (service.CartView, error) {
	args := m.Called(ctx, userID, productID, qty)
	return args.Get(0).(service.CartView), args.Error(1)
}

func (m *mockService) SetCartQuantity(ctx context.Context, userID uuid.UUID, productID int64, qty int) (service.CartView, error) {
	args := m.Called(ctx, userID, productID, qty)
	return args.Get(0).(service.CartView), args.Error(1)
}

func (m *mockService) RemoveFromCart(ctx context.Context, userID uuid.UUID, productID int64) (service.CartView, error) {
	args := m.Called(ctx, userID, productID)
	return args.Get(0).(service.CartView), args.Error(1)
}

func (m *mockService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockService) Checkout(ctx context.Context, userID uuid.UUID, req service.CheckoutRequest) (model.Order, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockService) GetMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockService) CancelMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockService) Register(ctx context.Context, req service.RegisterRequest) (model.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockService) GetProfile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd service.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, userID, upd)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	return m.Called(ctx, userID, current, next).Error(0)
}

func (m *mockService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *mockService) CreateAddress(ctx context.Context, userID uuid.UUID, a model.Address) (model.Address, error) {
	args := m.Called(ctx, userID, a)
	return args.Get(0).(model.Address), args.Error(1)
}

func (m *mockService) UpdateAddress(ctx context.Context, userID uuid.UUID, id int64, a model.Address) (model.Address, error) {
	args := m.Called(ctx, userID, id, a)
	return args.Get(0).(model.Address), args.Error(1)
}

func (m *mockService) DeleteAddress(ctx context.Context, userID uuid.UUID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockService) CreateReview(ctx context.Context, userID uuid.UUID, productID int64, in service.ReviewInput) (model.Review, error) {
	args := m.Called(ctx, userID, productID, in)
	return args.Get(0).(model.Review), args.Error(1)
}

func (m *mockService) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.DashboardStats), args.Error(1)
}

func (m *mockService) AdminListProducts(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockService) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockService) UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockService) ArchiveProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockService) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	return m.Called(ctx, productID, newStock).Error(0)
}

func (m *mockService) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockService) UpdateOrderStatus(ctx context.Context, id int64, to model.OrderStatus) (model.Order, error) {
	args := m.Called(ctx, id, to)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockService) ListRecentReviews(ctx context.Context, limit int) ([]model.Review, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *mockService) DeleteReview(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
