package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

var e400 = e.ErrStatusBadRequest.Error()

type CartHandler struct {
	store  *store.Store
	logger logger.Logger
}

func NewCartHandler(st *store.Store, logger logger.Logger) *CartHandler {
	return &CartHandler{store: st, logger: logger}
}

type AddItemRequest struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// addItem
//
//	@Summary		Добавление товара в корзину
//	@Description	Товар передаётся целиком: строка корзины хранит его снимок. Повторное добавление увеличивает количество в пределах остатка
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AddItemRequest	true	"Товар и количество"
//	@Success		200		{object}	store.CartState
//	@Failure		400		{object}	ErrorResponse	"Неверное количество"
//	@Failure		409		{object}	ErrorResponse	"Товара нет в наличии"
//	@Router			/cart/items [post]
func (c *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e400, err.Error())
		WriteError(w, err)
		return
	}
	if req.Product.ID == "" {
		WriteError(w, e.Wrap("product id is required", e.ErrStatusBadRequest))
		return
	}

	if err := c.store.Cart().AddItem(req.Product, req.Quantity); err != nil {
		c.logger.Warnf("add %s to cart: %s", req.Product.ID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, c.store.GetState().Cart)
}

// updateQuantity
//
//	@Summary		Изменение количества
//	@Description	Количество ограничивается остатком товара; 0 и меньше удаляют строку
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string					true	"ID товара"
//	@Param			request		body		UpdateQuantityRequest	true	"Новое количество"
//	@Success		200			{object}	store.CartState
//	@Failure		404			{object}	ErrorResponse
//	@Router			/cart/items/{productID} [patch]
func (c *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req UpdateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e400, err.Error())
		WriteError(w, err)
		return
	}

	if _, ok := c.store.Cart().Item(productID); !ok {
		WriteError(w, e.Wrap(whereami.WhereAmI(), e.ErrCartItemMissing))
		return
	}

	c.store.Cart().UpdateQuantity(productID, req.Quantity)
	WriteSuccess(w, http.StatusOK, c.store.GetState().Cart)
}

// removeItem
//
//	@Summary	Удаление строки корзины
//	@Tags		cart
//	@Param		productID	path	string	true	"ID товара"
//	@Success	204
//	@Router		/cart/items/{productID} [delete]
func (c *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	c.store.Cart().RemoveItem(chi.URLParam(r, "productID"))
	w.WriteHeader(http.StatusNoContent)
}

// clearCart
//
//	@Summary	Очистка корзины
//	@Tags		cart
//	@Success	204
//	@Router		/cart [delete]
func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	c.store.Cart().ClearCart()
	w.WriteHeader(http.StatusNoContent)
}
