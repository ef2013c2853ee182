package store

import (
	"github.com/DRSN-tech/storefront-shell/internal/domain"
)

// State — полный снимок контейнера. Значение, полученное из GetState, можно менять свободно;
// значения, переданные в Listener, только читать.
type State struct {
	Auth          AuthState          `json:"auth"`
	Cart          CartState          `json:"cart"`
	Products      ProductsState      `json:"products"`
	Orders        OrdersState        `json:"orders"`
	Customer      CustomerState      `json:"customer"`
	Payment       PaymentState       `json:"payment"`
	Notifications NotificationsState `json:"notifications"`
	UI            UIState            `json:"ui"`
}

// AuthState: IsAuthenticated == (User != nil) после каждой мутации.
type AuthState struct {
	User            *domain.User `json:"user"`
	Token           *string      `json:"-"`
	RefreshToken    *string      `json:"-"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	Error           string       `json:"error,omitempty"`
}

// CartState: итоговые поля всегда пересчитаны из Items.
type CartState struct {
	Items     []domain.CartItem `json:"items"`
	Subtotal  domain.Money      `json:"subtotal"`
	Tax       domain.Money      `json:"tax"`
	Shipping  domain.Money      `json:"shipping"`
	Total     domain.Money      `json:"total"`
	ItemCount int               `json:"itemCount"`
	IsLoading bool              `json:"isLoading"`
	Error     string            `json:"error,omitempty"`
}

type ProductsState struct {
	Items      []domain.Product      `json:"items"`
	Selected   *domain.Product       `json:"selected,omitempty"`
	Categories []domain.Category     `json:"categories"`
	Filters    domain.ProductFilters `json:"filters"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Total      int                   `json:"total"`
	IsLoading  bool                  `json:"isLoading"`
	Error      string                `json:"error,omitempty"`
}

type OrdersState struct {
	Items     []domain.Order `json:"items"`
	Current   *domain.Order  `json:"current,omitempty"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error,omitempty"`
}

type CustomerState struct {
	Profile   *domain.CustomerProfile `json:"profile,omitempty"`
	Addresses []domain.Address        `json:"addresses"`
	IsLoading bool                    `json:"isLoading"`
	Error     string                  `json:"error,omitempty"`
}

type PaymentState struct {
	Methods      []domain.PaymentMethod `json:"methods"`
	Intent       *domain.PaymentIntent  `json:"intent,omitempty"`
	IsProcessing bool                   `json:"isProcessing"`
	Error        string                 `json:"error,omitempty"`
}

type NotificationsState struct {
	Items       []domain.Notification `json:"items"`
	UnreadCount int                   `json:"unreadCount"`
	IsLoading   bool                  `json:"isLoading"`
	Error       string                `json:"error,omitempty"`
}

type Modal struct {
	ID    string            `json:"id"`
	Props map[string]string `json:"props,omitempty"`
}

type UIState struct {
	Theme           domain.Theme `json:"theme"`
	SidebarOpen     bool         `json:"sidebarOpen"`
	IsGlobalLoading bool         `json:"isGlobalLoading"`
	Modal           *Modal       `json:"modal,omitempty"`
	Route           string       `json:"route"`
}

const defaultPageLimit = 20

// initialState — значения по умолчанию для всех срезов.
func initialState() State {
	return State{
		Cart:     CartState{Items: []domain.CartItem{}},
		Products: ProductsState{Page: 1, Limit: defaultPageLimit},
		UI:       UIState{Theme: domain.ThemeLight, Route: "/"},
	}
}

// Clone возвращает глубокую копию.
func (s State) Clone() State {
	c := s

	c.Auth.User = s.Auth.User.Clone()
	c.Auth.Token = cloneString(s.Auth.Token)
	c.Auth.RefreshToken = cloneString(s.Auth.RefreshToken)

	c.Cart.Items = cloneSlice(s.Cart.Items)

	c.Products.Items = cloneSlice(s.Products.Items)
	c.Products.Categories = cloneSlice(s.Products.Categories)
	c.Products.Selected = clonePtr(s.Products.Selected)
	c.Products.Filters.MinPrice = clonePtr(s.Products.Filters.MinPrice)
	c.Products.Filters.MaxPrice = clonePtr(s.Products.Filters.MaxPrice)

	if s.Orders.Items != nil {
		c.Orders.Items = make([]domain.Order, len(s.Orders.Items))
		for i, o := range s.Orders.Items {
			c.Orders.Items[i] = cloneOrder(o)
		}
	}
	if s.Orders.Current != nil {
		o := cloneOrder(*s.Orders.Current)
		c.Orders.Current = &o
	}

	if s.Customer.Profile != nil {
		p := *s.Customer.Profile
		p.Phone = cloneString(p.Phone)
		p.Avatar = cloneString(p.Avatar)
		c.Customer.Profile = &p
	}
	if s.Customer.Addresses != nil {
		c.Customer.Addresses = make([]domain.Address, len(s.Customer.Addresses))
		for i, a := range s.Customer.Addresses {
			a.Phone = cloneString(a.Phone)
			c.Customer.Addresses[i] = a
		}
	}

	c.Payment.Methods = cloneSlice(s.Payment.Methods)
	c.Payment.Intent = clonePtr(s.Payment.Intent)

	if s.Notifications.Items != nil {
		c.Notifications.Items = make([]domain.Notification, len(s.Notifications.Items))
		for i, n := range s.Notifications.Items {
			n.Action = clonePtr(n.Action)
			c.Notifications.Items[i] = n
		}
	}

	if s.UI.Modal != nil {
		m := Modal{ID: s.UI.Modal.ID}
		if s.UI.Modal.Props != nil {
			m.Props = make(map[string]string, len(s.UI.Modal.Props))
			for k, v := range s.UI.Modal.Props {
				m.Props[k] = v
			}
		}
		c.UI.Modal = &m
	}

	return c
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = cloneSlice(o.Items)
	o.UpdatedAt = clonePtr(o.UpdatedAt)
	return o
}

// cloneSlice сохраняет различие между nil и пустым срезом.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}

	return append(make([]T, 0, len(s)), s...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p
	return &v
}

func cloneString(s *string) *string {
	return clonePtr(s)
}
