package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
)

type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthSession, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	Verify(ctx context.Context) (*domain.User, bool, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req domain.PasswordResetConfirm) error
}

type CatalogAPI interface {
	ListProducts(ctx context.Context, f domain.ProductFilters, page, limit int) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type OrdersAPI interface {
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, id string) (*domain.Order, error)
	SyncCart(ctx context.Context, items []domain.CartItem) error
}

type CustomersAPI interface {
	GetProfile(ctx context.Context) (*domain.CustomerProfile, error)
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.CustomerProfile, error)
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	AddAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error)
	UpdateAddress(ctx context.Context, id string, in domain.AddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

type PaymentsAPI interface {
	ListMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	AddMethod(ctx context.Context, in domain.PaymentMethodInput) (*domain.PaymentMethod, error)
	RemoveMethod(ctx context.Context, id string) error
	CreateIntent(ctx context.Context, amount domain.Money, currency string) (*domain.PaymentIntent, error)
	ConfirmIntent(ctx context.Context, intentID, methodID string) (*domain.PaymentIntent, error)
}

type NotificationsAPI interface {
	List(ctx context.Context) ([]domain.Notification, error)
}
