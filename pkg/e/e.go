package e

import "fmt"

var (
	// Корзина
	ErrInvalidQuantity = fmt.Errorf("quantity must be positive")
	ErrOutOfStock      = fmt.Errorf("product is out of stock")
	ErrEmptyCart       = fmt.Errorf("cart is empty")
	ErrCartItemMissing = fmt.Errorf("cart item not found")

	// Авторизация
	ErrNoRefreshToken   = fmt.Errorf("refresh token is missing")
	ErrNotAuthenticated = fmt.Errorf("user is not authenticated")
	ErrSessionInvalid   = fmt.Errorf("session is no longer valid")

	// Запросы состояния
	ErrSuperseded      = fmt.Errorf("response discarded: superseded by a newer request")
	ErrNoPaymentIntent = fmt.Errorf("no active payment intent")
	ErrInvalidTheme    = fmt.Errorf("unknown theme")
	ErrInvalidStatus   = fmt.Errorf("unknown order status")
	ErrNoClient        = fmt.Errorf("service client is not configured")

	// Хранилище состояния
	ErrStorageKeyRequired = fmt.Errorf("storage key is required")
	ErrUnknownStorage     = fmt.Errorf("unknown storage backend")

	// Фрагменты
	ErrFragmentIncompatible = fmt.Errorf("fragment requires an incompatible host contract")
	ErrContractIncomplete   = fmt.Errorf("host contract is incomplete")
	ErrFragmentMounted      = fmt.Errorf("fragment is already mounted")
	ErrFragmentUnknown      = fmt.Errorf("fragment is not registered")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 4xx / 5xx хост-API
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrInternalServerError = fmt.Errorf("internal server error")
	ErrUpstream            = fmt.Errorf("upstream service failed")
	ErrStreamUnsupported   = fmt.Errorf("streaming is not supported")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
