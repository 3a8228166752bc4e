package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ProductFilter holds optional filters for ListProducts.
type ProductFilter struct {
	Store  string
	Search string
	Stale  bool
	Limit  int
	Offset int
}

// ProductList is a page of products.
type ProductList struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListProducts returns tracked products matching f.
func (c *Client) ListProducts(ctx context.Context, f ProductFilter) (*ProductList, error) {
	q := url.Values{}
	q.Set("store", f.Store)
	q.Set("search", f.Search)
	if f.Stale {
		q.Set("stale", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var out ProductList
	if err := c.get(ctx, "/api/v1/products", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// History returns up to limit observations of a product since from.
// A zero from returns the full history.
func (c *Client) History(ctx context.Context, id string, from time.Time, limit int) ([]domain.PriceObservation, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Observations []domain.PriceObservation `json:"observations"`
	}
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(id)+"/history", q, &out); err != nil {
		return nil, err
	}
	return out.Observations, nil
}

// Trend summarizes a product's prices over the trailing window.
func (c *Client) Trend(ctx context.Context, id string, window time.Duration) (*domain.Trend, error) {
	q := url.Values{}
	if window > 0 {
		q.Set("window", window.String())
	}

	var t domain.Trend
	if err := c.get(ctx, "/api/v1/products/"+url.PathEscape(id)+"/trend", q, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkStale sets or clears a product's stale flag.
func (c *Client) MarkStale(ctx context.Context, id string, stale bool) error {
	body := map[string]bool{"stale": stale}
	return c.post(ctx, "/api/v1/products/"+url.PathEscape(id)+"/stale", body, nil)
}
