package store

import (
	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
)

// UISlice — тема, сайдбар, модальное окно, глобальная загрузка и текущий маршрут.
// Из всего среза сохраняется только тема.
type UISlice struct {
	s *Store
}

func (u *UISlice) SetTheme(theme domain.Theme) error {
	if !theme.Valid() {
		return e.ErrInvalidTheme
	}

	u.s.update(func(st *State) {
		st.UI.Theme = theme
	})
	return nil
}

// ToggleTheme переключает light <-> dark; system переключается в dark.
func (u *UISlice) ToggleTheme() domain.Theme {
	var theme domain.Theme
	u.s.update(func(st *State) {
		st.UI.Theme = st.UI.Theme.Toggled()
		theme = st.UI.Theme
	})

	return theme
}

func (u *UISlice) SetSidebarOpen(open bool) {
	u.s.update(func(st *State) {
		st.UI.SidebarOpen = open
	})
}

func (u *UISlice) ToggleSidebar() {
	u.s.update(func(st *State) {
		st.UI.SidebarOpen = !st.UI.SidebarOpen
	})
}

// SetGlobalLoading вызывается счётчиком запросов транспорта.
func (u *UISlice) SetGlobalLoading(loading bool) {
	u.s.update(func(st *State) {
		st.UI.IsGlobalLoading = loading
	})
}

func (u *UISlice) OpenModal(id string, props map[string]string) {
	m := &Modal{ID: id}
	if len(props) > 0 {
		m.Props = make(map[string]string, len(props))
		for k, v := range props {
			m.Props[k] = v
		}
	}

	u.s.update(func(st *State) {
		st.UI.Modal = m
	})
}

func (u *UISlice) CloseModal() {
	u.s.update(func(st *State) {
		st.UI.Modal = nil
	})
}

// Navigate записывает текущий маршрут. Фрагменты, отвечающие за роутинг, подписаны на его изменение.
func (u *UISlice) Navigate(path string) {
	if path == "" {
		path = "/"
	}

	u.s.update(func(st *State) {
		st.UI.Route = path
	})
}
