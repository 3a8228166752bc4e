package client

import (
	"context"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// SearchResult is the response of the search endpoint. Status is one of
// found, scrape_requested or scrape_in_flight.
type SearchResult struct {
	Status   string             `json:"status"`
	Products []domain.Product   `json:"products"`
	Total    int                `json:"total"`
	Jobs     []domain.ScrapeJob `json:"jobs,omitempty"`
}

// Search looks up cached products, queueing a scrape when there are none.
func (c *Client) Search(ctx context.Context, query, category string, limit int) (*SearchResult, error) {
	body := map[string]any{"query": query}
	if category != "" {
		body["category"] = category
	}
	if limit > 0 {
		body["limit"] = limit
	}

	var out SearchResult
	if err := c.post(ctx, "/api/v1/search", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestScrape queues a search against every store.
func (c *Client) RequestScrape(ctx context.Context, query, category string) ([]domain.ScrapeJob, error) {
	body := map[string]string{"query": query}
	if category != "" {
		body["category"] = category
	}

	var out struct {
		Jobs []domain.ScrapeJob `json:"jobs"`
	}
	if err := c.post(ctx, "/api/v1/scrape", body, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// RefreshProduct moves a product to the front of the schedule.
func (c *Client) RefreshProduct(ctx context.Context, productID string) error {
	return c.post(ctx, "/api/v1/scrape", map[string]string{"product_id": productID}, nil)
}
