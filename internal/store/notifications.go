package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

// NotificationsSlice — лента уведомлений. Новые уведомления идут первыми.
type NotificationsSlice struct {
	s *Store
}

// Push добавляет уведомление и возвращает его id. Пустые ID и CreatedAt заполняются.
func (n *NotificationsSlice) Push(note domain.Notification) string {
	if note.ID == "" {
		note.ID = n.s.newID()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.s.clock.Now()
	}
	if note.Type == "" {
		note.Type = domain.NotificationInfo
	}
	note.Action = clonePtr(note.Action)

	n.s.update(func(st *State) {
		st.Notifications.Items = append([]domain.Notification{note}, st.Notifications.Items...)
	})

	return note.ID
}

func (n *NotificationsSlice) MarkAsRead(id string) {
	n.s.update(func(st *State) {
		for i := range st.Notifications.Items {
			if st.Notifications.Items[i].ID == id {
				st.Notifications.Items[i].Read = true
			}
		}
	})
}

func (n *NotificationsSlice) MarkAllAsRead() {
	n.s.update(func(st *State) {
		for i := range st.Notifications.Items {
			st.Notifications.Items[i].Read = true
		}
	})
}

func (n *NotificationsSlice) Remove(id string) {
	n.s.update(func(st *State) {
		kept := st.Notifications.Items[:0]
		for _, note := range st.Notifications.Items {
			if note.ID != id {
				kept = append(kept, note)
			}
		}
		st.Notifications.Items = kept
	})
}

func (n *NotificationsSlice) Clear() {
	n.s.update(func(st *State) {
		st.Notifications.Items = nil
	})
}

// FetchNotifications заменяет ленту серверной. Уведомления, созданные локально
// (их нет на сервере), сохраняются в начале ленты.
func (n *NotificationsSlice) FetchNotifications(ctx context.Context) error {
	if n.s.deps.Notifications == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := n.s.gens.next(genNotifications)
	n.s.update(func(st *State) {
		st.Notifications.IsLoading = true
		st.Notifications.Error = ""
	})

	remote, err := n.s.deps.Notifications.List(ctx)
	if current, idle := n.s.gens.finish(genNotifications, gen); !current {
		return n.s.superseded(err, idle, func(st *State, errText string) {
			st.Notifications.IsLoading = false
			if errText != "" {
				st.Notifications.Error = errText
			}
		})
	}

	n.s.update(func(st *State) {
		st.Notifications.IsLoading = false
		if err != nil {
			st.Notifications.Error = errorText(err)
			return
		}

		known := make(map[string]struct{}, len(remote))
		for _, r := range remote {
			known[r.ID] = struct{}{}
		}

		var items []domain.Notification
		for _, local := range st.Notifications.Items {
			if _, ok := known[local.ID]; !ok {
				items = append(items, local)
			}
		}
		for _, r := range remote {
			r.Action = clonePtr(r.Action)
			items = append(items, r)
		}
		st.Notifications.Items = items
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func countUnread(items []domain.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}

	return n
}
