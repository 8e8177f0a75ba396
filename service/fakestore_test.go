package service

import (
	"context"

	"github.com/google/uuid"

	"spirits-storefront/model"
	"spirits-storefront/store"
)

// ---- fakeStore implementing store.Store for tests ----
type fakeStore struct {
	CreateProductFn     func(p *model.Product) (int64, error)
	UpdateProductFn     func(p *model.Product) error
	ArchiveProductFn    func(id int64) error
	GetProductFn        func(id int64) (model.Product, error)
	GetProductBySlugFn  func(slug string) (model.Product, error)
	ListProductsFn      func(includeInactive bool) ([]model.Product, error)
	UpdateStockFn       func(productID int64, newStock int) error
	AddToCartFn         func(userID uuid.UUID, productID int64, qty, maxLine int) error
	SetCartQuantityFn   func(userID uuid.UUID, productID int64, qty int) error
	RemoveFromCartFn    func(userID uuid.UUID, productID int64) error
	ClearCartFn         func(userID uuid.UUID) error
	GetCartFn           func(userID uuid.UUID) ([]model.CartItem, error)
	CheckoutFn          func(userID uuid.UUID, shipTo model.Address, pricer store.Pricer) (model.Order, error)
	GetOrderFn          func(id int64) (model.Order, error)
	ListOrdersByUserFn  func(userID uuid.UUID) ([]model.Order, error)
	ListOrdersFn        func(status model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatusFn func(id int64, from, to model.OrderStatus) error
	CreateUserFn        func(u *model.User) error
	GetUserFn           func(id uuid.UUID) (model.User, error)
	GetUserByEmailFn    func(email string) (model.User, error)
	UpdateUserFn        func(u *model.User) error
	UpdatePasswordFn    func(id uuid.UUID, hash string) error
	ListAddressesFn     func(userID uuid.UUID) ([]model.Address, error)
	GetAddressFn        func(userID uuid.UUID, id int64) (model.Address, error)
	CreateAddressFn     func(a *model.Address) error
	UpdateAddressFn     func(a *model.Address) error
	DeleteAddressFn     func(userID uuid.UUID, id int64) error
	CreateReviewFn      func(r *model.Review) error
	ListReviewsFn       func(productID int64) ([]model.Review, error)
	ListRecentReviewsFn func(limit int) ([]model.Review, error)
	DeleteReviewFn      func(id int64) error
	HasPurchasedFn      func(userID uuid.UUID, productID int64) (bool, error)
	StatsFn             func(lowStockThreshold int) (model.DashboardStats, error)
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) CreateProduct(_ context.Context, p *model.Product) (int64, error) {
	return f.CreateProductFn(p)
}
func (f *fakeStore) UpdateProduct(_ context.Context, p *model.Product) error {
	return f.UpdateProductFn(p)
}
func (f *fakeStore) ArchiveProduct(_ context.Context, id int64) error { return f.ArchiveProductFn(id) }
func (f *fakeStore) GetProduct(_ context.Context, id int64) (model.Product, error) {
	return f.GetProductFn(id)
}
func (f *fakeStore) GetProductBySlug(_ context.Context, slug string) (model.Product, error) {
	return f.GetProductBySlugFn(slug)
}
func (f *fakeStore) ListProducts(_ context.Context, includeInactive bool) ([]model.Product, error) {
	return f.ListProductsFn(includeInactive)
}
func (f *fakeStore) UpdateStock(_ context.Context, productID int64, newStock int) error {
	return f.UpdateStockFn(productID, newStock)
}
func (f *fakeStore) AddToCart(_ context.Context, userID uuid.UUID, productID int64, qty, maxLine int) error {
	return f.AddToCartFn(userID, productID, qty, maxLine)
}
func (f *fakeStore) SetCartQuantity(_ context.Context, userID uuid.UUID, productID int64, qty int) error {
	return f.SetCartQuantityFn(userID, productID, qty)
}
func (f *fakeStore) RemoveFromCart(_ context.Context, userID uuid.UUID, productID int64) error {
	return f.RemoveFromCartFn(userID, productID)
}
func (f *fakeStore) ClearCart(_ context.Context, userID uuid.UUID) error { return f.ClearCartFn(userID) }
func (f *fakeStore) GetCart(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return f.GetCartFn(userID)
}
func (f *fakeStore) Checkout(_ context.Context, userID uuid.UUID, shipTo model.Address, pricer store.Pricer) (model.Order, error) {
	return f.CheckoutFn(userID, shipTo, pricer)
}
func (f *fakeStore) GetOrder(_ context.Context, id int64) (model.Order, error) { return f.GetOrderFn(id) }
func (f *fakeStore) ListOrdersByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	return f.ListOrdersByUserFn(userID)
}
func (f *fakeStore) ListOrders(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	return f.ListOrdersFn(status)
}
func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int64, from, to model.OrderStatus) error {
	return f.UpdateOrderStatusFn(id, from, to)
}
func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error { return f.CreateUserFn(u) }
func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (model.User, error) {
	return f.GetUserFn(id)
}
func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	return f.GetUserByEmailFn(email)
}
func (f *fakeStore) UpdateUser(_ context.Context, u *model.User) error { return f.UpdateUserFn(u) }
func (f *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return f.UpdatePasswordFn(id, hash)
}
func (f *fakeStore) ListAddresses(_ context.Context, userID uuid.UUID) ([]model.Address, error) {
	return f.ListAddressesFn(userID)
}
func (f *fakeStore) GetAddress(_ context.Context, userID uuid.UUID, id int64) (model.Address, error) {
	return f.GetAddressFn(userID, id)
}
func (f *fakeStore) CreateAddress(_ context.Context, a *model.Address) error {
	return f.CreateAddressFn(a)
}
func (f *fakeStore) UpdateAddress(_ context.Context, a *model.Address) error {
	return f.UpdateAddressFn(a)
}
func (f *fakeStore) DeleteAddress(_ context.Context, userID uuid.UUID, id int64) error {
	return f.DeleteAddressFn(userID, id)
}
func (f *fakeStore) CreateReview(_ context.Context, r *model.Review) error { return f.CreateReviewFn(r) }
func (f *fakeStore) ListReviews(_ context.Context, productID int64) ([]model.Review, error) {
	return f.ListReviewsFn(productID)
}
func (f *fakeStore) ListRecentReviews(_ context.Context, limit int) ([]model.Review, error) {
	return f.ListRecentReviewsFn(limit)
}
func (f *fakeStore) DeleteReview(_ context.Context, id int64) error { return f.DeleteReviewFn(id) }
func (f *fakeStore) HasPurchased(_ context.Context, userID uuid.UUID, productID int64) (bool, error) {
	return f.HasPurchasedFn(userID, productID)
}
func (f *fakeStore) Stats(_ context.Context, lowStockThreshold int) (model.DashboardStats, error) {
	return f.StatsFn(lowStockThreshold)
}
func (f *fakeStore) Close() error { return nil }
