package service

import (
	"context"

	"github.com/google/uuid"

	"spirits-storefront/catalog"
	"spirits-storefront/model"
)

type ServiceInterface interface {
	BrowseProducts(ctx context.Context, f catalog.Filter) (catalog.Page, error)
	GetProduct(ctx context.Context, id int64) (ProductDetail, error)
	GetProductBySlug(ctx context.Context, slug string) (ProductDetail, error)
	ListReviews(ctx context.Context, productID int64) (ReviewList, error)

	GetCart(ctx context.Context, userID uuid.UUID) (CartView, error)
	AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty int) (CartView, error)
	SetCartQuantity(ctx context.Context, userID uuid.UUID, productID int64, qty int) (CartView, error)
	RemoveFromCart(ctx context.Context, userID uuid.UUID, productID int64) (CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (model.Order, error)

	ListMyOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GetMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error)
	CancelMyOrder(ctx context.Context, userID uuid.UUID, id int64) (model.Order, error)

	Register(ctx context.Context, req RegisterRequest) (model.User, error)
	Authenticate(ctx context.Context, email, password string) (model.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, a model.Address) (model.Address, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, id int64, a model.Address) (model.Address, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, id int64) error

	CreateReview(ctx context.Context, userID uuid.UUID, productID int64, in ReviewInput) (model.Review, error)

	Dashboard(ctx context.Context) (model.DashboardStats, error)
	AdminListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error)
	ArchiveProduct(ctx context.Context, id int64) error
	UpdateStock(ctx context.Context, productID int64, newStock int) error
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, to model.OrderStatus) (model.Order, error)
	ListRecentReviews(ctx context.Context, limit int) ([]model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}
