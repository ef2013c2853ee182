package api

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type CustomersClient struct {
	c *transport.Client
}

func NewCustomersClient(c *transport.Client) *CustomersClient {
	return &CustomersClient{c: c}
}

func (cc *CustomersClient) GetProfile(ctx context.Context) (*domain.CustomerProfile, error) {
	var res domain.CustomerProfile
	if err := cc.c.Get(ctx, "/profile", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (cc *CustomersClient) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.CustomerProfile, error) {
	var res domain.CustomerProfile
	if err := cc.c.Put(ctx, "/profile", upd, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (cc *CustomersClient) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var res []domain.Address
	if err := cc.c.Get(ctx, "/addresses", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

func (cc *CustomersClient) AddAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	var res domain.Address
	if err := cc.c.Post(ctx, "/addresses", in, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (cc *CustomersClient) UpdateAddress(ctx context.Context, id string, in domain.AddressInput) (*domain.Address, error) {
	var res domain.Address
	if err := cc.c.Put(ctx, "/addresses/"+escape(id), in, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (cc *CustomersClient) DeleteAddress(ctx context.Context, id string) error {
	if err := cc.c.Delete(ctx, "/addresses/"+escape(id), nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
