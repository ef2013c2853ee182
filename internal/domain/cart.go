package domain

// CartItem — строка корзины. Subtotal всегда равен Product.Price * Quantity.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal Money   `json:"subtotal"`
}
