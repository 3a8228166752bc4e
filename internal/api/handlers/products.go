package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ProductTracker is the slice of the engine the product endpoints use.
type ProductTracker interface {
	History(ctx context.Context, productID string, from, to time.Time, limit int) ([]domain.PriceObservation, error)
	Trend(ctx context.Context, productID string, window time.Duration) (*domain.Trend, error)
	MarkProductStale(ctx context.Context, productID string, stale bool) error
}

// ProductsHandler handles product query endpoints.
type ProductsHandler struct {
	store   store.Store
	tracker ProductTracker
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(s store.Store, t ProductTracker) *ProductsHandler {
	return &ProductsHandler{store: s, tracker: t}
}

const (
	defaultHistoryLimit = 500
	defaultTrendWindow  = 30 * 24 * time.Hour
)

// --- Input/Output types ---

// ListProductsInput is the input for listing products.
type ListProductsInput struct {
	Store  string `query:"store"  doc:"Filter by store name"`
	Search string `query:"search" doc:"Case-insensitive substring of the canonical name"`
	Stale  bool   `query:"stale"  doc:"Only products marked stale"`
	Limit  int    `query:"limit"  doc:"Number of results (default 50)" minimum:"1" maximum:"1000"`
	Offset int    `query:"offset" doc:"Pagination offset"              minimum:"0"`
}

// ListProductsOutput is the response for listing products.
type ListProductsOutput struct {
	Body struct {
		Products []domain.Product `json:"products"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// ProductIDInput identifies a single product.
type ProductIDInput struct {
	ID string `path:"id" doc:"Product UUID"`
}

// GetProductOutput is the response for getting a single product.
type GetProductOutput struct {
	Body domain.Product
}

// HistoryInput selects a range of a product's observations.
type HistoryInput struct {
	ID    string    `path:"id"     doc:"Product UUID"`
	From  time.Time `query:"from"  doc:"Start of the range (RFC 3339, default: beginning)"`
	To    time.Time `query:"to"    doc:"End of the range (RFC 3339, default: now)"`
	Limit int       `query:"limit" doc:"Maximum observations (default 500)" minimum:"1" maximum:"10000"`
}

// HistoryOutput is the response for a product's price history.
type HistoryOutput struct {
	Body struct {
		ProductID    string                    `json:"product_id"`
		Observations []domain.PriceObservation `json:"observations"`
	}
}

// TrendInput selects the trailing window for a trend summary.
type TrendInput struct {
	ID     string `path:"id"      doc:"Product UUID"`
	Window string `query:"window" doc:"Trailing window as a Go duration (default 720h)" example:"168h"`
}

// TrendOutput is the response for a product's price trend.
type TrendOutput struct {
	Body domain.Trend
}

// MarkStaleInput sets or clears the stale flag.
type MarkStaleInput struct {
	ID   string `path:"id" doc:"Product UUID"`
	Body struct {
		Stale bool `json:"stale" doc:"New value of the stale flag"`
	}
}

// MarkStaleOutput is the response for the stale endpoint.
type MarkStaleOutput struct {
	Body StatusResponse
}

// --- Handlers ---

// ListProducts returns tracked products with optional filters.
func (h *ProductsHandler) ListProducts(
	ctx context.Context,
	input *ListProductsInput,
) (*ListProductsOutput, error) {
	q := &store.ProductQuery{
		Store:     input.Store,
		Search:    input.Search,
		StaleOnly: input.Stale,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}

	products, total, err := h.store.ListProducts(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("product query failed: " + err.Error())
	}
	if products == nil {
		products = []domain.Product{}
	}

	resp := &ListProductsOutput{}
	resp.Body.Products = products
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// GetProduct returns a single product by ID.
func (h *ProductsHandler) GetProduct(
	ctx context.Context,
	input *ProductIDInput,
) (*GetProductOutput, error) {
	p, err := h.store.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, productError(err)
	}
	return &GetProductOutput{Body: *p}, nil
}

// History returns a product's observations in ascending time order.
func (h *ProductsHandler) History(
	ctx context.Context,
	input *HistoryInput,
) (*HistoryOutput, error) {
	if _, err := h.store.GetProduct(ctx, input.ID); err != nil {
		return nil, productError(err)
	}

	to := input.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if !input.From.IsZero() && input.From.After(to) {
		return nil, huma.Error422UnprocessableEntity("from must not be after to")
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	obs, err := h.tracker.History(ctx, input.ID, input.From, to, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("history query failed: " + err.Error())
	}
	if obs == nil {
		obs = []domain.PriceObservation{}
	}

	resp := &HistoryOutput{}
	resp.Body.ProductID = input.ID
	resp.Body.Observations = obs
	return resp, nil
}

// Trend summarizes a product's prices over a trailing window.
func (h *ProductsHandler) Trend(
	ctx context.Context,
	input *TrendInput,
) (*TrendOutput, error) {
	window := defaultTrendWindow
	if input.Window != "" {
		d, err := time.ParseDuration(input.Window)
		if err != nil || d <= 0 {
			return nil, huma.Error422UnprocessableEntity("window must be a positive duration")
		}
		window = d
	}

	trend, err := h.tracker.Trend(ctx, input.ID, window)
	switch {
	case errors.Is(err, history.ErrNoSamples):
		return nil, huma.Error404NotFound("no price samples in window")
	case err != nil:
		return nil, productError(err)
	}
	return &TrendOutput{Body: *trend}, nil
}

// MarkStale sets or clears a product's stale flag.
func (h *ProductsHandler) MarkStale(
	ctx context.Context,
	input *MarkStaleInput,
) (*MarkStaleOutput, error) {
	if err := h.tracker.MarkProductStale(ctx, input.ID, input.Body.Stale); err != nil {
		return nil, productError(err)
	}

	resp := &MarkStaleOutput{}
	resp.Body.Status = "updated"
	return resp, nil
}

func productError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return huma.Error404NotFound("product not found")
	}
	return huma.Error500InternalServerError("product query failed: " + err.Error())
}

// RegisterProductRoutes registers product endpoints with the Huma API.
func RegisterProductRoutes(api huma.API, h *ProductsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List products",
		Description: "Returns tracked products with optional store, name and staleness filters.",
		Tags:        []string{"products"},
	}, h.ListProducts)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get product",
		Description: "Returns a single tracked product by ID.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetProduct)

	huma.Register(api, huma.Operation{
		OperationID: "get-product-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/history",
		Summary:     "Get price history",
		Description: "Returns a product's price observations in ascending time order.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.History)

	huma.Register(api, huma.Operation{
		OperationID: "get-product-trend",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}/trend",
		Summary:     "Get price trend",
		Description: "Returns min, max, average, first and last price over a trailing window.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.Trend)

	huma.Register(api, huma.Operation{
		OperationID: "mark-product-stale",
		Method:      http.MethodPost,
		Path:        "/api/v1/products/{id}/stale",
		Summary:     "Mark product stale",
		Description: "Sets or clears the stale flag. Marking a product stale cancels its running scrape.",
		Tags:        []string{"products"},
		Errors:      []int{http.StatusNotFound},
	}, h.MarkStale)
}
