package host

import "github.com/DRSN-tech/storefront-shell/internal/store"

// Env — переменные, доступные в условиях when манифеста:
//
//	auth.isAuthenticated && cart.itemCount > 0
//	ui.route startsWith "/checkout"
type Env struct {
	Auth AuthEnv `expr:"auth"`
	Cart CartEnv `expr:"cart"`
	UI   UIEnv   `expr:"ui"`
}

type AuthEnv struct {
	IsAuthenticated bool   `expr:"isAuthenticated"`
	UserID          string `expr:"userId"`
	Role            string `expr:"role"`
}

// CartEnv — суммы в основной валюте (30.5 == $30.50).
type CartEnv struct {
	ItemCount int     `expr:"itemCount"`
	Subtotal  float64 `expr:"subtotal"`
	Total     float64 `expr:"total"`
}

type UIEnv struct {
	Theme string `expr:"theme"`
	Route string `expr:"route"`
}

func envOf(st store.State) Env {
	env := Env{
		Auth: AuthEnv{IsAuthenticated: st.Auth.IsAuthenticated},
		Cart: CartEnv{
			ItemCount: st.Cart.ItemCount,
			Subtotal:  st.Cart.Subtotal.Decimal().InexactFloat64(),
			Total:     st.Cart.Total.Decimal().InexactFloat64(),
		},
		UI: UIEnv{Theme: string(st.UI.Theme), Route: st.UI.Route},
	}
	if st.Auth.User != nil {
		env.Auth.UserID = st.Auth.User.ID
		env.Auth.Role = st.Auth.User.Role
	}

	return env
}
