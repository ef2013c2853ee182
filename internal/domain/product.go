package domain

// Product — снимок товара каталога. В корзине хранится копия, а не ссылка на объект каталога.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       Money  `json:"price"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// InStock сообщает, можно ли положить товар в корзину.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductFilters — параметры выборки каталога. Нулевые значения не передаются бэкенду.
type ProductFilters struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	MinPrice *Money `json:"minPrice,omitempty"`
	MaxPrice *Money `json:"maxPrice,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

// ProductPage — страница выдачи каталога.
type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
