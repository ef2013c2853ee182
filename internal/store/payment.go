package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

// PaymentCurrency — валюта создаваемых платёжных намерений.
const PaymentCurrency = "usd"

type PaymentSlice struct {
	s *Store
}

func (p *PaymentSlice) FetchPaymentMethods(ctx context.Context) error {
	if p.s.deps.Payments == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := p.s.gens.next(genPayment)
	p.begin()

	methods, err := p.s.deps.Payments.ListMethods(ctx)
	if current, idle := p.s.gens.finish(genPayment, gen); !current {
		return p.s.superseded(err, idle, func(st *State, errText string) {
			st.Payment.IsProcessing = false
			if errText != "" {
				st.Payment.Error = errText
			}
		})
	}
	if err != nil {
		p.fail(err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		st.Payment.Methods = append([]domain.PaymentMethod{}, methods...)
	})
	return nil
}

func (p *PaymentSlice) AddPaymentMethod(ctx context.Context, in domain.PaymentMethodInput) (*domain.PaymentMethod, error) {
	if p.s.deps.Payments == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	p.begin()
	method, err := p.s.deps.Payments.AddMethod(ctx, in)
	if err != nil {
		p.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		st.Payment.Methods = append(st.Payment.Methods, *method)
		if method.IsDefault {
			for i := range st.Payment.Methods {
				st.Payment.Methods[i].IsDefault = st.Payment.Methods[i].ID == method.ID
			}
		}
	})
	return method, nil
}

func (p *PaymentSlice) RemovePaymentMethod(ctx context.Context, id string) error {
	if p.s.deps.Payments == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	p.begin()
	if err := p.s.deps.Payments.RemoveMethod(ctx, id); err != nil {
		p.fail(err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		kept := st.Payment.Methods[:0]
		for _, m := range st.Payment.Methods {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		st.Payment.Methods = kept
	})
	return nil
}

// CreatePaymentIntent создаёт платёжное намерение на amount; оно становится текущим.
func (p *PaymentSlice) CreatePaymentIntent(ctx context.Context, amount domain.Money) (*domain.PaymentIntent, error) {
	if p.s.deps.Payments == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}
	if amount <= 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidPrice)
	}

	p.begin()
	intent, err := p.s.deps.Payments.CreateIntent(ctx, amount, PaymentCurrency)
	if err != nil {
		p.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		st.Payment.Intent = clonePtr(intent)
	})
	return intent, nil
}

// ConfirmPayment подтверждает текущее намерение выбранным способом оплаты.
func (p *PaymentSlice) ConfirmPayment(ctx context.Context, methodID string) (*domain.PaymentIntent, error) {
	if p.s.deps.Payments == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	var intentID string
	p.s.read(func(st *State) {
		if st.Payment.Intent != nil {
			intentID = st.Payment.Intent.ID
		}
	})
	if intentID == "" {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoPaymentIntent)
	}

	p.begin()
	intent, err := p.s.deps.Payments.ConfirmIntent(ctx, intentID, methodID)
	if err != nil {
		p.fail(err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		st.Payment.Intent = clonePtr(intent)
		if intent.Status == domain.PaymentFailed && st.Payment.Error == "" {
			st.Payment.Error = "payment failed"
		}
	})
	return intent, nil
}

// ResetPayment сбрасывает текущее намерение и ошибку; сохранённые способы оплаты остаются.
func (p *PaymentSlice) ResetPayment() {
	p.s.update(func(st *State) {
		st.Payment.Intent = nil
		st.Payment.IsProcessing = false
		st.Payment.Error = ""
	})
}

func (p *PaymentSlice) begin() {
	p.s.update(func(st *State) {
		st.Payment.IsProcessing = true
		st.Payment.Error = ""
	})
}

func (p *PaymentSlice) fail(err error) {
	p.s.update(func(st *State) {
		st.Payment.IsProcessing = false
		st.Payment.Error = errorText(err)
	})
}
