package store

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

// ProductsSlice — выдача каталога, фильтры и выбранный товар.
type ProductsSlice struct {
	s *Store
}

// FetchProducts загружает страницу каталога по текущим фильтрам.
// Если во время запроса началась новая загрузка или сменилась сессия, успешный ответ
// отбрасывается с e.ErrSuperseded; ошибка вызова возвращается как есть.
func (p *ProductsSlice) FetchProducts(ctx context.Context) error {
	if p.s.deps.Catalog == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := p.s.gens.next(genProducts)

	var (
		filters     domain.ProductFilters
		page, limit int
	)
	p.s.update(func(st *State) {
		st.Products.IsLoading = true
		st.Products.Error = ""
		filters = st.Products.Filters
		filters.MinPrice = clonePtr(filters.MinPrice)
		filters.MaxPrice = clonePtr(filters.MaxPrice)
		page, limit = st.Products.Page, st.Products.Limit
	})

	res, err := p.s.deps.Catalog.ListProducts(ctx, filters, page, limit)
	if current, idle := p.s.gens.finish(genProducts, gen, genProduct); !current {
		return p.s.superseded(err, idle, settleProducts)
	}

	p.s.update(func(st *State) {
		st.Products.IsLoading = false
		if err != nil {
			st.Products.Error = errorText(err)
			return
		}

		st.Products.Items = cloneSlice(res.Items)
		if st.Products.Items == nil {
			st.Products.Items = []domain.Product{}
		}
		st.Products.Total = res.Total
		if res.Page > 0 {
			st.Products.Page = res.Page
		}
		if res.Limit > 0 {
			st.Products.Limit = res.Limit
		}
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FetchProduct загружает товар и делает его выбранным.
func (p *ProductsSlice) FetchProduct(ctx context.Context, id string) (*domain.Product, error) {
	if p.s.deps.Catalog == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := p.s.gens.next(genProduct)
	p.s.update(func(st *State) {
		st.Products.IsLoading = true
		st.Products.Error = ""
	})

	product, err := p.s.deps.Catalog.GetProduct(ctx, id)
	if current, idle := p.s.gens.finish(genProduct, gen, genProducts); !current {
		return nil, p.s.superseded(err, idle, settleProducts)
	}

	p.s.update(func(st *State) {
		st.Products.IsLoading = false
		if err != nil {
			st.Products.Error = errorText(err)
			return
		}
		st.Products.Selected = clonePtr(product)
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

func (p *ProductsSlice) FetchCategories(ctx context.Context) error {
	if p.s.deps.Catalog == nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrNoClient)
	}

	gen := p.s.gens.next(genCategories)
	categories, err := p.s.deps.Catalog.ListCategories(ctx)
	if current, idle := p.s.gens.finish(genCategories, gen); !current {
		return p.s.superseded(err, idle, func(st *State, errText string) {
			if errText != "" {
				st.Products.Error = errText
			}
		})
	}

	p.s.update(func(st *State) {
		if err != nil {
			st.Products.Error = errorText(err)
			return
		}
		st.Products.Categories = cloneSlice(categories)
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SetFilters заменяет фильтры и возвращает выдачу на первую страницу.
func (p *ProductsSlice) SetFilters(f domain.ProductFilters) {
	f.MinPrice = clonePtr(f.MinPrice)
	f.MaxPrice = clonePtr(f.MaxPrice)

	p.s.update(func(st *State) {
		st.Products.Filters = f
		st.Products.Page = 1
	})
}

func (p *ProductsSlice) ClearFilters() {
	p.SetFilters(domain.ProductFilters{})
}

// SetPage меняет страницу; значения меньше 1 приводятся к 1.
func (p *ProductsSlice) SetPage(page int) {
	p.s.update(func(st *State) {
		st.Products.Page = max(page, 1)
	})
}

// SelectProduct делает товар выбранным; nil снимает выбор.
func (p *ProductsSlice) SelectProduct(product *domain.Product) {
	p.s.update(func(st *State) {
		st.Products.Selected = clonePtr(product)
	})
}

func settleProducts(st *State, errText string) {
	st.Products.IsLoading = false
	if errText != "" {
		st.Products.Error = errText
	}
}
