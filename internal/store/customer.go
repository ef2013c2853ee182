package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

// CustomerSlice — профиль покупателя и адресная книга.
type CustomerSlice struct {
	s *Store
}

func (c *CustomerSlice) FetchProfile(ctx context.Context) (*domain.CustomerProfile, error) {
	if c.s.deps.Customers == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := c.s.gens.next(genProfile)
	c.begin()

	profile, err := c.s.deps.Customers.GetProfile(ctx)
	if current, idle := c.s.gens.finish(genProfile, gen, genAddresses); !current {
		return nil, c.s.superseded(err, idle, settleCustomer)
	}
	if err != nil {
		c.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		st.Customer.Profile = cloneProfile(profile)
	})
	return profile, nil
}

// UpdateProfile сохраняет профиль и переносит имя, телефон и аватар в пользователя auth-среза.
func (c *CustomerSlice) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.CustomerProfile, error) {
	if c.s.deps.Customers == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	c.begin()
	profile, err := c.s.deps.Customers.UpdateProfile(ctx, upd)
	if err != nil {
		c.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		st.Customer.Profile = cloneProfile(profile)

		if u := st.Auth.User; u != nil && u.ID == profile.ID {
			u.Name = profile.Name
			u.Phone = cloneString(profile.Phone)
			u.Avatar = cloneString(profile.Avatar)
		}
	})

	c.s.publish(events.CustomerProfileUpdated{Profile: *cloneProfile(profile)})
	return profile, nil
}

func (c *CustomerSlice) FetchAddresses(ctx context.Context) error {
	if c.s.deps.Customers == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := c.s.gens.next(genAddresses)
	c.begin()

	addresses, err := c.s.deps.Customers.ListAddresses(ctx)
	if current, idle := c.s.gens.finish(genAddresses, gen, genProfile); !current {
		return c.s.superseded(err, idle, settleCustomer)
	}
	if err != nil {
		c.fail(err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		st.Customer.Addresses = make([]domain.Address, 0, len(addresses))
		for _, a := range addresses {
			st.Customer.Addresses = append(st.Customer.Addresses, cloneAddress(a))
		}
	})
	return nil
}

func (c *CustomerSlice) AddAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	if c.s.deps.Customers == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	c.begin()
	addr, err := c.s.deps.Customers.AddAddress(ctx, in)
	if err != nil {
		c.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		st.Customer.Addresses = append(st.Customer.Addresses, cloneAddress(*addr))
		if addr.IsDefault {
			keepSingleDefault(st.Customer.Addresses, addr.ID)
		}
	})

	c.s.publish(events.CustomerAddressAdded{Address: cloneAddress(*addr)})
	return addr, nil
}

func (c *CustomerSlice) UpdateAddress(ctx context.Context, id string, in domain.AddressInput) (*domain.Address, error) {
	if c.s.deps.Customers == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	c.begin()
	addr, err := c.s.deps.Customers.UpdateAddress(ctx, id, in)
	if err != nil {
		c.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		for i := range st.Customer.Addresses {
			if st.Customer.Addresses[i].ID == addr.ID {
				st.Customer.Addresses[i] = cloneAddress(*addr)
			}
		}
		if addr.IsDefault {
			keepSingleDefault(st.Customer.Addresses, addr.ID)
		}
	})

	c.s.publish(events.CustomerAddressUpdated{Address: cloneAddress(*addr)})
	return addr, nil
}

func (c *CustomerSlice) DeleteAddress(ctx context.Context, id string) error {
	if c.s.deps.Customers == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	c.begin()
	if err := c.s.deps.Customers.DeleteAddress(ctx, id); err != nil {
		c.fail(err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		kept := st.Customer.Addresses[:0]
		for _, a := range st.Customer.Addresses {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		st.Customer.Addresses = kept
	})

	c.s.publish(events.CustomerAddressDeleted{AddressID: id})
	return nil
}

func (c *CustomerSlice) begin() {
	c.s.update(func(st *State) {
		st.Customer.IsLoading = true
		st.Customer.Error = ""
	})
}

func (c *CustomerSlice) fail(err error) {
	c.s.update(func(st *State) {
		st.Customer.IsLoading = false
		st.Customer.Error = errorText(err)
	})
}

// keepSingleDefault снимает признак «по умолчанию» со всех адресов, кроме id.
func keepSingleDefault(addresses []domain.Address, id string) {
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].ID == id
	}
}

func cloneProfile(p *domain.CustomerProfile) *domain.CustomerProfile {
	if p == nil {
		return nil
	}

	c := *p
	c.Phone = cloneString(p.Phone)
	c.Avatar = cloneString(p.Avatar)
	return &c
}

func cloneAddress(a domain.Address) domain.Address {
	a.Phone = cloneString(a.Phone)
	return a
}

func settleCustomer(st *State, errText string) {
	st.Customer.IsLoading = false
	if errText != "" {
		st.Customer.Error = errText
	}
}
