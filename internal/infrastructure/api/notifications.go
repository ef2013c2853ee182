package api

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type NotificationsClient struct {
	c *transport.Client
}

func NewNotificationsClient(c *transport.Client) *NotificationsClient {
	return &NotificationsClient{c: c}
}

func (n *NotificationsClient) List(ctx context.Context) ([]domain.Notification, error) {
	var res []domain.Notification
	if err := n.c.Get(ctx, "/", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}
