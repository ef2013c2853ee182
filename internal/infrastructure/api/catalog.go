package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/transport"
	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"github.com/jimlawless/whereami"
)

type CatalogClient struct {
	c *transport.Client
}

func NewCatalogClient(c *transport.Client) *CatalogClient {
	return &CatalogClient{c: c}
}

// ListProducts — GET /products с фильтрами и пагинацией.
func (cc *CatalogClient) ListProducts(ctx context.Context, f domain.ProductFilters, page, limit int) (*domain.ProductPage, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var res domain.ProductPage
	if err := cc.c.Get(ctx, "/products", q, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &res, nil
}

func (cc *CatalogClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := cc.c.Get(ctx, "/products/"+escape(id), nil, &p); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &p, nil
}

func (cc *CatalogClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var res []domain.Category
	if err := cc.c.Get(ctx, "/categories", nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}
