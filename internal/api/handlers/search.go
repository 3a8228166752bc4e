package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/retail-price-tracker/internal/engine"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// Scraper queues store searches and product refreshes.
type Scraper interface {
	RequestScrape(ctx context.Context, query, category string) ([]domain.ScrapeJob, error)
	RefreshProduct(ctx context.Context, productID string) error
}

// Search result status values.
const (
	SearchStatusFound     = "found"
	SearchStatusRequested = "scrape_requested"
	SearchStatusInFlight  = "scrape_in_flight"
)

// SearchHandler answers searches from tracked products and falls back to
// queueing a scrape when nothing is cached yet.
type SearchHandler struct {
	store   store.Store
	scraper Scraper
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(s store.Store, sc Scraper) *SearchHandler {
	return &SearchHandler{store: s, scraper: sc}
}

// SearchInput is the request body for the search endpoint.
type SearchInput struct {
	Body struct {
		Query    string `json:"query"              minLength:"1" doc:"Product search query" example:"מעבד Intel i7"`
		Category string `json:"category,omitempty" doc:"Optional store category"`
		Store    string `json:"store,omitempty"    doc:"Restrict cached results to one store"`
		Limit    int    `json:"limit,omitempty"    minimum:"1" maximum:"200" doc:"Maximum results to return (default 20)"`
	}
}

// SearchOutput is the response body for the search endpoint. Cached hits
// return 200; a queued scrape returns 202.
type SearchOutput struct {
	Status int
	Body   struct {
		Status   string             `json:"status"             enum:"found,scrape_requested,scrape_in_flight"`
		Products []domain.Product   `json:"products"`
		Total    int                `json:"total"`
		Jobs     []domain.ScrapeJob `json:"jobs,omitempty"     doc:"Scrape jobs queued for this query"`
	}
}

// Search returns cached products matching the query, or queues a scrape
// against every store when there are none.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	limit := input.Body.Limit
	if limit <= 0 {
		limit = 20
	}

	products, total, err := h.store.ListProducts(ctx, &store.ProductQuery{
		Store:  input.Body.Store,
		Search: input.Body.Query,
		Limit:  limit,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("product query failed: " + err.Error())
	}

	out := &SearchOutput{Status: http.StatusOK}
	out.Body.Products = []domain.Product{}
	if total > 0 {
		out.Body.Status = SearchStatusFound
		out.Body.Products = products
		out.Body.Total = total
		return out, nil
	}

	jobs, err := h.scraper.RequestScrape(ctx, input.Body.Query, input.Body.Category)
	switch {
	case errors.Is(err, engine.ErrAlreadyInFlight):
		out.Status = http.StatusAccepted
		out.Body.Status = SearchStatusInFlight
		return out, nil
	case err != nil:
		return nil, scrapeError(err)
	}

	out.Status = http.StatusAccepted
	out.Body.Status = SearchStatusRequested
	out.Body.Jobs = jobs
	return out, nil
}

// ScrapeInput is the request body for the scrape endpoint. Exactly one of
// query or product_id is required.
type ScrapeInput struct {
	Body struct {
		Query     string `json:"query,omitempty"      doc:"Search every store for this query"`
		Category  string `json:"category,omitempty"   doc:"Optional store category"`
		ProductID string `json:"product_id,omitempty" doc:"Refresh one tracked product now"`
	}
}

// ScrapeOutput is the response body for the scrape endpoint.
type ScrapeOutput struct {
	Body struct {
		Status string             `json:"status" example:"accepted"`
		Jobs   []domain.ScrapeJob `json:"jobs,omitempty"`
	}
}

// Scrape queues a search or a product refresh without waiting for it.
func (h *SearchHandler) Scrape(ctx context.Context, input *ScrapeInput) (*ScrapeOutput, error) {
	hasQuery := input.Body.Query != ""
	hasProduct := input.Body.ProductID != ""
	if hasQuery == hasProduct {
		return nil, huma.Error422UnprocessableEntity("exactly one of query or product_id is required")
	}

	out := &ScrapeOutput{}
	out.Body.Status = "accepted"

	if hasProduct {
		if err := h.scraper.RefreshProduct(ctx, input.Body.ProductID); err != nil {
			return nil, scrapeError(err)
		}
		return out, nil
	}

	jobs, err := h.scraper.RequestScrape(ctx, input.Body.Query, input.Body.Category)
	if err != nil {
		return nil, scrapeError(err)
	}
	out.Body.Jobs = jobs
	return out, nil
}

func scrapeError(err error) error {
	switch {
	case errors.Is(err, engine.ErrEmptyQuery):
		return huma.Error422UnprocessableEntity("query is empty after normalization")
	case errors.Is(err, engine.ErrUnknownStore):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, engine.ErrAlreadyInFlight):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound("product not found")
	case errors.Is(err, engine.ErrShuttingDown):
		return huma.Error503ServiceUnavailable("engine is shutting down")
	default:
		return huma.Error500InternalServerError("scrape request failed: " + err.Error())
	}
}

// RegisterSearchRoutes registers search and scrape endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "search-products",
		Method:        http.MethodPost,
		Path:          "/api/v1/search",
		Summary:       "Search products",
		Description:   "Returns cached products matching the query. When none exist a scrape is queued and 202 is returned.",
		Tags:          []string{"search"},
		DefaultStatus: http.StatusOK,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, h.Search)

	huma.Register(api, huma.Operation{
		OperationID:   "request-scrape",
		Method:        http.MethodPost,
		Path:          "/api/v1/scrape",
		Summary:       "Request scrape",
		Description:   "Queues a store search or an immediate product refresh.",
		Tags:          []string{"search"},
		DefaultStatus: http.StatusAccepted,
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusServiceUnavailable,
		},
	}, h.Scrape)
}
