// Package notifier превращает события шины в уведомления пользователю.
package notifier

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/host"
)

const Name = "notifier"

type Fragment struct{}

func New() *Fragment {
	return &Fragment{}
}

func (f *Fragment) Name() string     { return Name }
func (f *Fragment) Requires() string { return "v1.0.0" }

func (f *Fragment) Mount(_ context.Context, c host.Contract) (host.Unmount, error) {
	bus := c.Bus()
	notes := c.Store().Notifications()

	unsubs := []func(){
		events.On(bus, func(ev events.AuthLogin) {
			notes.Push(domain.Notification{
				Type:    domain.NotificationSuccess,
				Title:   "Signed in",
				Message: fmt.Sprintf("Welcome back, %s", displayName(ev.User)),
			})
		}),
		events.On(bus, func(events.AuthRegister) {
			notes.Push(domain.Notification{
				Type:  domain.NotificationSuccess,
				Title: "Account created",
			})
		}),
		events.On(bus, func(ev events.OrderCreated) {
			notes.Push(domain.Notification{
				Type:    domain.NotificationSuccess,
				Title:   "Order placed",
				Message: fmt.Sprintf("Order %s, total $%s", ev.Order.ID, ev.Order.Total),
				Action:  &domain.NotificationAction{Label: "View order", Href: "/orders/" + ev.Order.ID},
			})
		}),
		events.On(bus, func(ev events.OrderStatusChanged) {
			notes.Push(statusNotification(ev))
		}),
		events.On(bus, func(events.CustomerProfileUpdated) {
			notes.Push(domain.Notification{Type: domain.NotificationSuccess, Title: "Profile updated"})
		}),
		events.On(bus, func(events.CustomerAddressAdded) {
			notes.Push(domain.Notification{Type: domain.NotificationSuccess, Title: "Address saved"})
		}),
	}

	c.Logger().Debugf("notifier subscribed to %d event kinds", len(unsubs))

	return func(context.Context) error {
		for _, unsub := range unsubs {
			unsub()
		}
		return nil
	}, nil
}

func statusNotification(ev events.OrderStatusChanged) domain.Notification {
	n := domain.Notification{
		Type:    domain.NotificationInfo,
		Title:   "Order updated",
		Message: fmt.Sprintf("Order %s is now %s", ev.OrderID, ev.To),
		Action:  &domain.NotificationAction{Label: "View order", Href: "/orders/" + ev.OrderID},
	}

	switch ev.To {
	case domain.OrderDelivered:
		n.Type = domain.NotificationSuccess
		n.Title = "Order delivered"
	case domain.OrderCancelled:
		n.Type = domain.NotificationWarning
		n.Title = "Order cancelled"
	}

	return n
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

var _ host.Fragment = (*Fragment)(nil)
