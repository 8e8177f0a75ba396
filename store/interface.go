package store

import (
	"context"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

// Pricer turns the items of a cart into order totals during checkout.
type Pricer interface {
	Price(items []model.OrderItem) model.Totals
}

type Store interface {
	Migrate(ctx context.Context) error

	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	ArchiveProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (model.Product, error)
	ListProducts(ctx context.Context, includeInactive bool) ([]model.Product, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error

	AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty, maxLine int) error
	SetCartQuantity(ctx context.Context, userID uuid.UUID, productID int64, qty int) error
	RemoveFromCart(ctx context.Context, userID uuid.UUID, productID int64) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	Checkout(ctx context.Context, userID uuid.UUID, shipTo model.Address, pricer Pricer) (model.Order, error)
	GetOrder(ctx context.Context, id int64) (model.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to model.OrderStatus) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	GetAddress(ctx context.Context, userID uuid.UUID, id int64) (model.Address, error)
	CreateAddress(ctx context.Context, a *model.Address) error
	UpdateAddress(ctx context.Context, a *model.Address) error
	DeleteAddress(ctx context.Context, userID uuid.UUID, id int64) error

	CreateReview(ctx context.Context, r *model.Review) error
	ListReviews(ctx context.Context, productID int64) ([]model.Review, error)
	ListRecentReviews(ctx context.Context, limit int) ([]model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	HasPurchased(ctx context.Context, userID uuid.UUID, productID int64) (bool, error)

	Stats(ctx context.Context, lowStockThreshold int) (model.DashboardStats, error)

	Close() error
}
