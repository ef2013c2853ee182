package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}

	return false
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  Money  `json:"subtotal"`
}

type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	Items             []OrderItem `json:"items"`
	Subtotal          Money       `json:"subtotal"`
	Tax               Money       `json:"tax"`
	Shipping          Money       `json:"shipping"`
	Total             Money       `json:"total"`
	Status            OrderStatus `json:"status"`
	ShippingAddressID string      `json:"shippingAddressId,omitempty"`
	PaymentMethodID   string      `json:"paymentMethodId,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         *time.Time  `json:"updatedAt,omitempty"`
}

// CreateOrderRequest — тело POST / сервиса заказов.
type CreateOrderRequest struct {
	Items             []OrderItem `json:"items"`
	ShippingAddressID string      `json:"shippingAddressId"`
	PaymentMethodID   string      `json:"paymentMethodId"`
	Notes             string      `json:"notes,omitempty"`
}

// OrderItemsFromCart переводит строки корзины в позиции заказа.
func OrderItemsFromCart(items []CartItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}

	return out
}
