package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

var (
	// TaxRate — ставка налога на подытог корзины.
	TaxRate = decimal.RequireFromString("0.10")
	// FreeShippingThreshold — подытог, начиная с которого доставка бесплатна.
	FreeShippingThreshold = domain.NewMoney(50, 0)
	// FlatShippingFee — стоимость доставки ниже порога.
	FlatShippingFee = domain.NewMoney(10, 0)
)

// CartSlice — операции над корзиной. Все операции, кроме SyncWithServer, локальные.
type CartSlice struct {
	s *Store
}

// AddItem кладёт product в корзину. Если строка для товара уже есть, количество
// увеличивается (но не выше остатка), снимок товара обновляется. Ошибка означает, что состояние не менялось.
func (c *CartSlice) AddItem(product domain.Product, quantity int) error {
	if quantity <= 0 {
		return e.ErrInvalidQuantity
	}
	if !product.InStock() {
		return e.ErrOutOfStock
	}

	lineID := c.s.newID()
	c.s.update(func(st *State) {
		for i := range st.Cart.Items {
			it := &st.Cart.Items[i]
			if it.Product.ID != product.ID {
				continue
			}

			it.Product = product
			it.Quantity = min(it.Quantity+quantity, product.Stock)
			return
		}

		st.Cart.Items = append(st.Cart.Items, domain.CartItem{
			ID:       lineID,
			Product:  product,
			Quantity: min(quantity, product.Stock),
		})
	})

	return nil
}

// UpdateQuantity задаёт количество строки. quantity <= 0 удаляет строку;
// иначе значение ограничивается диапазоном [1, остаток]. Отсутствующий товар: no-op.
func (c *CartSlice) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}

	c.s.update(func(st *State) {
		for i := range st.Cart.Items {
			it := &st.Cart.Items[i]
			if it.Product.ID == productID {
				it.Quantity = max(1, min(quantity, it.Product.Stock))
				return
			}
		}
	})
}

func (c *CartSlice) RemoveItem(productID string) {
	c.s.update(func(st *State) {
		items := st.Cart.Items[:0]
		for _, it := range st.Cart.Items {
			if it.Product.ID != productID {
				items = append(items, it)
			}
		}
		st.Cart.Items = items
	})
}

func (c *CartSlice) ClearCart() {
	c.s.update(func(st *State) {
		st.Cart.Items = []domain.CartItem{}
	})
}

func (c *CartSlice) SetLoading(loading bool) {
	c.s.update(func(st *State) {
		st.Cart.IsLoading = loading
	})
}

func (c *CartSlice) SetError(msg string) {
	c.s.update(func(st *State) {
		st.Cart.Error = msg
	})
}

func (c *CartSlice) ClearError() {
	c.SetError("")
}

// Item возвращает строку корзины по id товара.
func (c *CartSlice) Item(productID string) (domain.CartItem, bool) {
	var (
		item  domain.CartItem
		found bool
	)
	c.s.read(func(st *State) {
		for _, it := range st.Cart.Items {
			if it.Product.ID == productID {
				item, found = it, true
				return
			}
		}
	})

	return item, found
}

// SyncWithServer отправляет текущую корзину в сервис заказов целиком.
func (c *CartSlice) SyncWithServer(ctx context.Context) error {
	if c.s.deps.Orders == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	var items []domain.CartItem
	c.s.update(func(st *State) {
		st.Cart.IsLoading = true
		st.Cart.Error = ""
		items = cloneSlice(st.Cart.Items)
	})

	err := c.s.deps.Orders.SyncCart(ctx, items)
	c.s.update(func(st *State) {
		st.Cart.IsLoading = false
		if err != nil {
			st.Cart.Error = errorText(err)
		}
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// recomputeCart пересчитывает итоги целиком из строк.
func recomputeCart(cart *CartState) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	var (
		subtotal domain.Money
		count    int
	)
	for i := range cart.Items {
		it := &cart.Items[i]
		it.Subtotal = it.Product.Price.Mul(it.Quantity)
		subtotal += it.Subtotal
		count += it.Quantity
	}

	cart.Subtotal = subtotal
	cart.ItemCount = count

	if len(cart.Items) == 0 {
		cart.Tax, cart.Shipping, cart.Total = 0, 0, 0
		return
	}

	cart.Tax = subtotal.ApplyRate(TaxRate)
	cart.Shipping = FlatShippingFee
	if subtotal >= FreeShippingThreshold {
		cart.Shipping = 0
	}
	cart.Total = subtotal + cart.Tax + cart.Shipping
}
