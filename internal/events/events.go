// Package events описывает шину событий между фрагментами.
//
// Набор событий закрыт: каждое событие: отдельная структура с типизированными полями,
// реализующая Event. Подписчики получают Event и разбирают его type switch-ем или
// подписываются на конкретный тип через On.
package events

import "github.com/DRSN-tech/storefront-shell/internal/domain"

// Kind — имя события на проводе (для SSE и kafka).
type Kind string

const (
	KindAuthLogin              Kind = "auth:login"
	KindAuthLogout             Kind = "auth:logout"
	KindAuthRegister           Kind = "auth:register"
	KindAuthTokenRefreshed     Kind = "auth:token-refreshed"
	KindCustomerProfileUpdated Kind = "customer:profile-updated"
	KindCustomerAddressAdded   Kind = "customer:address-added"
	KindCustomerAddressUpdated Kind = "customer:address-updated"
	KindCustomerAddressDeleted Kind = "customer:address-deleted"
	KindOrderStatusChanged     Kind = "order:status-changed"
	KindOrderCreated           Kind = "order:created"
)

// Kinds возвращает все известные имена событий.
func Kinds() []Kind {
	return []Kind{
		KindAuthLogin,
		KindAuthLogout,
		KindAuthRegister,
		KindAuthTokenRefreshed,
		KindCustomerProfileUpdated,
		KindCustomerAddressAdded,
		KindCustomerAddressUpdated,
		KindCustomerAddressDeleted,
		KindOrderStatusChanged,
		KindOrderCreated,
	}
}

// Event реализуют только типы этого пакета.
type Event interface {
	Kind() Kind
	event()
}

type AuthLogin struct {
	User domain.User `json:"user"`
}

type AuthLogout struct {
	UserID string `json:"userId,omitempty"`
}

type AuthRegister struct {
	User domain.User `json:"user"`
}

type AuthTokenRefreshed struct {
	UserID string `json:"userId,omitempty"`
}

type CustomerProfileUpdated struct {
	Profile domain.CustomerProfile `json:"profile"`
}

type CustomerAddressAdded struct {
	Address domain.Address `json:"address"`
}

type CustomerAddressUpdated struct {
	Address domain.Address `json:"address"`
}

type CustomerAddressDeleted struct {
	AddressID string `json:"addressId"`
}

// OrderStatusChanged — From пуст, если предыдущий статус неизвестен.
type OrderStatusChanged struct {
	OrderID string             `json:"orderId"`
	From    domain.OrderStatus `json:"from,omitempty"`
	To      domain.OrderStatus `json:"to"`
}

type OrderCreated struct {
	Order domain.Order `json:"order"`
}

func (AuthLogin) Kind() Kind              { return KindAuthLogin }
func (AuthLogout) Kind() Kind             { return KindAuthLogout }
func (AuthRegister) Kind() Kind           { return KindAuthRegister }
func (AuthTokenRefreshed) Kind() Kind     { return KindAuthTokenRefreshed }
func (CustomerProfileUpdated) Kind() Kind { return KindCustomerProfileUpdated }
func (CustomerAddressAdded) Kind() Kind   { return KindCustomerAddressAdded }
func (CustomerAddressUpdated) Kind() Kind { return KindCustomerAddressUpdated }
func (CustomerAddressDeleted) Kind() Kind { return KindCustomerAddressDeleted }
func (OrderStatusChanged) Kind() Kind     { return KindOrderStatusChanged }
func (OrderCreated) Kind() Kind           { return KindOrderCreated }

func (AuthLogin) event()              {}
func (AuthLogout) event()             {}
func (AuthRegister) event()           {}
func (AuthTokenRefreshed) event()     {}
func (CustomerProfileUpdated) event() {}
func (CustomerAddressAdded) event()   {}
func (CustomerAddressUpdated) event() {}
func (CustomerAddressDeleted) event() {}
func (OrderStatusChanged) event()     {}
func (OrderCreated) event()           {}
