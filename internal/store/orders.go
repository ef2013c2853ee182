package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type OrdersSlice struct {
	s *Store
}

// FetchOrders загружает заказы текущего пользователя. Для заказов, которые уже были
// в состоянии и сменили статус, публикуется order:status-changed.
func (o *OrdersSlice) FetchOrders(ctx context.Context) error {
	if o.s.deps.Orders == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	userID := o.s.auth.UserID()
	if userID == "" {
		return e.Wrap(whereami.WhereAmI(), e.ErrNotAuthenticated)
	}

	gen := o.s.gens.next(genOrders)
	o.begin()

	orders, err := o.s.deps.Orders.ListOrders(ctx, userID)
	if current, idle := o.s.gens.finish(genOrders, gen, genOrder); !current {
		return o.s.superseded(err, idle, settleOrders)
	}

	var changed []events.OrderStatusChanged
	o.s.update(func(st *State) {
		st.Orders.IsLoading = false
		if err != nil {
			st.Orders.Error = errorText(err)
			return
		}

		known := make(map[string]domain.OrderStatus, len(st.Orders.Items))
		for _, ord := range st.Orders.Items {
			known[ord.ID] = ord.Status
		}

		st.Orders.Items = make([]domain.Order, len(orders))
		for i, ord := range orders {
			st.Orders.Items[i] = cloneOrder(ord)
			if from, ok := known[ord.ID]; ok && from != ord.Status {
				changed = append(changed, events.OrderStatusChanged{OrderID: ord.ID, From: from, To: ord.Status})
			}
			if st.Orders.Current != nil && st.Orders.Current.ID == ord.ID {
				cur := cloneOrder(ord)
				st.Orders.Current = &cur
			}
		}
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	for _, ev := range changed {
		o.s.publish(ev)
	}
	return nil
}

// FetchOrder загружает заказ и делает его текущим.
func (o *OrdersSlice) FetchOrder(ctx context.Context, id string) (*domain.Order, error) {
	if o.s.deps.Orders == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := o.s.gens.next(genOrder)
	o.begin()

	order, err := o.s.deps.Orders.GetOrder(ctx, id)
	if current, idle := o.s.gens.finish(genOrder, gen, genOrders); !current {
		return nil, o.s.superseded(err, idle, settleOrders)
	}

	o.s.update(func(st *State) {
		st.Orders.IsLoading = false
		if err != nil {
			st.Orders.Error = errorText(err)
			return
		}

		cur := cloneOrder(*order)
		st.Orders.Current = &cur
		replaceOrder(st, *order)
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return order, nil
}

// CreateOrder оформляет заказ. Пустой req.Items заполняется из корзины.
// После успеха корзина очищается.
func (o *OrdersSlice) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if o.s.deps.Orders == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	o.s.update(func(st *State) {
		st.Orders.IsLoading = true
		st.Orders.Error = ""
		if len(req.Items) == 0 {
			req.Items = domain.OrderItemsFromCart(st.Cart.Items)
		}
	})
	if len(req.Items) == 0 {
		o.s.update(func(st *State) {
			st.Orders.IsLoading = false
		})
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmptyCart)
	}

	order, err := o.s.deps.Orders.CreateOrder(ctx, req)
	if err != nil {
		o.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	o.s.update(func(st *State) {
		st.Orders.IsLoading = false
		st.Orders.Items = append([]domain.Order{cloneOrder(*order)}, st.Orders.Items...)
		cur := cloneOrder(*order)
		st.Orders.Current = &cur
	})

	o.s.publish(events.OrderCreated{Order: cloneOrder(*order)})
	o.s.cart.ClearCart()
	return order, nil
}

// UpdateOrderStatus меняет статус заказа на сервере.
func (o *OrdersSlice) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidStatus)
	}
	if o.s.deps.Orders == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	from := o.knownStatus(id)
	o.begin()

	order, err := o.s.deps.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		o.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	o.applyChanged(order, from)
	return order, nil
}

func (o *OrdersSlice) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	if o.s.deps.Orders == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	from := o.knownStatus(id)
	o.begin()

	order, err := o.s.deps.Orders.CancelOrder(ctx, id)
	if err != nil {
		o.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	o.applyChanged(order, from)
	return order, nil
}

func (o *OrdersSlice) ClearCurrentOrder() {
	o.s.update(func(st *State) {
		st.Orders.Current = nil
	})
}

func (o *OrdersSlice) applyChanged(order *domain.Order, from domain.OrderStatus) {
	o.s.update(func(st *State) {
		st.Orders.IsLoading = false
		replaceOrder(st, *order)
		if st.Orders.Current != nil && st.Orders.Current.ID == order.ID {
			cur := cloneOrder(*order)
			st.Orders.Current = &cur
		}
	})

	if from != order.Status {
		o.s.publish(events.OrderStatusChanged{OrderID: order.ID, From: from, To: order.Status})
	}
}

// knownStatus — статус заказа в состоянии или пустая строка.
func (o *OrdersSlice) knownStatus(id string) domain.OrderStatus {
	var status domain.OrderStatus
	o.s.read(func(st *State) {
		if st.Orders.Current != nil && st.Orders.Current.ID == id {
			status = st.Orders.Current.Status
			return
		}
		for _, ord := range st.Orders.Items {
			if ord.ID == id {
				status = ord.Status
				return
			}
		}
	})

	return status
}

func (o *OrdersSlice) begin() {
	o.s.update(func(st *State) {
		st.Orders.IsLoading = true
		st.Orders.Error = ""
	})
}

func (o *OrdersSlice) fail(err error) {
	o.s.update(func(st *State) {
		st.Orders.IsLoading = false
		st.Orders.Error = errorText(err)
	})
}

func replaceOrder(st *State, order domain.Order) {
	for i := range st.Orders.Items {
		if st.Orders.Items[i].ID == order.ID {
			st.Orders.Items[i] = cloneOrder(order)
			return
		}
	}
}

func settleOrders(st *State, errText string) {
	st.Orders.IsLoading = false
	if errText != "" {
		st.Orders.Error = errText
	}
}
