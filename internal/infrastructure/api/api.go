// Package api содержит типизированные клиенты шести бэкенд-сервисов витрины поверх transport.Client.
package api

import (
	"net/url"

	"github.com/DRSN-tech/storefront-shell/internal/transport"
)

// Clients — набор клиентов, который хост передаёт фрагментам.
type Clients struct {
	Catalog       *CatalogClient
	Orders        *OrdersClient
	Customers     *CustomersClient
	Payments      *PaymentsClient
	Auth          *AuthClient
	Notifications *NotificationsClient
}

// NewClients строит типизированные клиенты на клиентах фабрики.
func NewClients(f *transport.Factory) *Clients {
	return &Clients{
		Catalog:       NewCatalogClient(f.Catalog()),
		Orders:        NewOrdersClient(f.Orders()),
		Customers:     NewCustomersClient(f.Customers()),
		Payments:      NewPaymentsClient(f.Payments()),
		Auth:          NewAuthClient(f.Auth()),
		Notifications: NewNotificationsClient(f.Notifications()),
	}
}

func escape(id string) string {
	return url.PathEscape(id)
}
