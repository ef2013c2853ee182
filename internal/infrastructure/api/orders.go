package api

import (
	"context"
	"net/url"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type OrdersClient struct {
	c *transport.Client
}

func NewOrdersClient(c *transport.Client) *OrdersClient {
	return &OrdersClient{c: c}
}

func (o *OrdersClient) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var res []domain.Order
	if err := o.c.Get(ctx, "/", url.Values{"userId": {userID}}, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

func (o *OrdersClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var res domain.Order
	if err := o.c.Get(ctx, "/"+escape(id), nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (o *OrdersClient) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var res domain.Order
	if err := o.c.Post(ctx, "/", req, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (o *OrdersClient) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var res domain.Order
	body := map[string]domain.OrderStatus{"status": status}
	if err := o.c.Patch(ctx, "/"+escape(id)+"/status", body, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (o *OrdersClient) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	var res domain.Order
	if err := o.c.Post(ctx, "/"+escape(id)+"/cancel", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

// cartLine — строка серверной корзины.
type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (o *OrdersClient) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	var res struct {
		Items []domain.CartItem `json:"items"`
	}
	if err := o.c.Get(ctx, "/cart", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.Items, nil
}

// SyncCart заменяет серверную корзину целиком (POST /cart).
func (o *OrdersClient) SyncCart(ctx context.Context, items []domain.CartItem) error {
	lines := make([]cartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, cartLine{ProductID: it.Product.ID, Quantity: it.Quantity})
	}

	if err := o.c.Post(ctx, "/cart", map[string][]cartLine{"items": lines}, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (o *OrdersClient) AddCartItem(ctx context.Context, productID string, quantity int) error {
	if err := o.c.Post(ctx, "/cart/items", cartLine{ProductID: productID, Quantity: quantity}, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (o *OrdersClient) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	if err := o.c.Patch(ctx, "/cart/items/"+escape(productID), body, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (o *OrdersClient) RemoveCartItem(ctx context.Context, productID string) error {
	if err := o.c.Delete(ctx, "/cart/items/"+escape(productID), nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
