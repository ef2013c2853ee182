package api

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type PaymentsClient struct {
	c *transport.Client
}

func NewPaymentsClient(c *transport.Client) *PaymentsClient {
	return &PaymentsClient{c: c}
}

func (p *PaymentsClient) ListMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var res []domain.PaymentMethod
	if err := p.c.Get(ctx, "/methods", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

func (p *PaymentsClient) AddMethod(ctx context.Context, in domain.PaymentMethodInput) (*domain.PaymentMethod, error) {
	var res domain.PaymentMethod
	if err := p.c.Post(ctx, "/methods", in, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (p *PaymentsClient) RemoveMethod(ctx context.Context, id string) error {
	if err := p.c.Delete(ctx, "/methods/"+escape(id), nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *PaymentsClient) CreateIntent(ctx context.Context, amount domain.Money, currency string) (*domain.PaymentIntent, error) {
	var res domain.PaymentIntent
	body := struct {
		Amount   domain.Money `json:"amount"`
		Currency string       `json:"currency"`
	}{amount, currency}
	if err := p.c.Post(ctx, "/intents", body, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (p *PaymentsClient) ConfirmIntent(ctx context.Context, intentID, methodID string) (*domain.PaymentIntent, error) {
	var res domain.PaymentIntent
	body := map[string]string{"paymentMethodId": methodID}
	if err := p.c.Post(ctx, "/intents/"+escape(intentID)+"/confirm", body, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}
