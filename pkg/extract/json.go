package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// JSONConfig describes a store that exposes a JSON catalog API.
//
// Expected endpoints:
//
//	GET {base}{search_path}  -> either {"products":[...]} or [...]
//	GET {product url}        -> either {"product":{...}} or {...}
type JSONConfig struct {
	Store        string
	BaseURL      string
	SearchPath   string
	BlockMarkers []string
}

// JSONExtractor implements Extractor against a JSON catalog API.
type JSONExtractor struct {
	cfg      JSONConfig
	sessions *SessionPool
	limiter  *RateLimiter
	fetch    *fetcher
	nowFunc  func() time.Time
}

// JSONOption configures the JSONExtractor.
type JSONOption func(*JSONExtractor)

// WithJSONSessionPool sets the session pool used for requests.
func WithJSONSessionPool(p *SessionPool) JSONOption {
	return func(e *JSONExtractor) {
		e.sessions = p
	}
}

// WithJSONRateLimiter injects the store's rate limiter.
func WithJSONRateLimiter(r *RateLimiter) JSONOption {
	return func(e *JSONExtractor) {
		e.limiter = r
	}
}

// WithJSONNowFunc overrides the observation timestamp source for testing.
func WithJSONNowFunc(f func() time.Time) JSONOption {
	return func(e *JSONExtractor) {
		e.nowFunc = f
	}
}

// NewJSONExtractor creates a JSONExtractor.
func NewJSONExtractor(cfg JSONConfig, opts ...JSONOption) (*JSONExtractor, error) {
	if cfg.Store == "" {
		return nil, errors.New("store name is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(base, "/")
	if cfg.SearchPath == "" {
		cfg.SearchPath = "/api/search?q={query}&category={category}"
	}

	e := &JSONExtractor{cfg: cfg, nowFunc: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = NewSessionPool(1, defaultHTTPTimeout, defaultUserAgent)
	}
	e.fetch = newFetcher(cfg.Store, e.sessions, e.limiter, cfg.BlockMarkers)
	return e, nil
}

// jsonProduct is the wire shape of a catalog entry. Price may be a number
// or a string such as "₪1,299.90".
type jsonProduct struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Price        json.RawMessage `json:"price"`
	Currency     string          `json:"currency"`
	URL          string          `json:"url"`
	ImageURL     string          `json:"image_url"`
	Availability string          `json:"availability"`
	Description  string          `json:"description"`
}

// Store returns the store name.
func (e *JSONExtractor) Store() string { return e.cfg.Store }

// Limiter returns the store's rate limiter, nil when requests are unlimited.
func (e *JSONExtractor) Limiter() *RateLimiter { return e.limiter }

// Extract queries the catalog search endpoint or a single product URL.
func (e *JSONExtractor) Extract(ctx context.Context, target Target, maxResults int) (*Result, error) {
	u, err := e.targetURL(target)
	if err != nil {
		return nil, err
	}

	body, err := e.fetch.get(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}

	products, err := decodeProducts(body, target.URL != "")
	if err != nil {
		return nil, &ParseError{Store: e.cfg.Store, Index: -1, Err: err}
	}

	res := &Result{}
	now := e.nowFunc().UTC()
	for i, p := range products {
		if maxResults > 0 && len(res.Observations) >= maxResults {
			break
		}
		obs, perr := e.toObservation(i, p)
		if perr != nil {
			res.Skipped = append(res.Skipped, perr)
			continue
		}
		if obs.URL == "" && target.URL != "" {
			obs.URL = u
		}
		obs.ObservedAt = now
		res.Observations = append(res.Observations, obs)
	}

	if target.URL != "" && len(res.Observations) == 0 {
		return nil, &ParseError{Store: e.cfg.Store, Index: -1, Err: errors.New("no product in payload")}
	}
	return res, nil
}

// Probe checks that the API root answers.
func (e *JSONExtractor) Probe(ctx context.Context) error {
	_, err := e.fetch.get(ctx, e.cfg.BaseURL, "application/json")
	return err
}

func (e *JSONExtractor) targetURL(t Target) (string, error) {
	if t.URL != "" {
		return resolve(e.cfg.BaseURL+"/", t.URL)
	}
	if strings.TrimSpace(t.Query) == "" {
		return "", errors.New("target needs a query or a URL")
	}
	path := strings.NewReplacer(
		"{query}", url.QueryEscape(strings.TrimSpace(t.Query)),
		"{category}", url.QueryEscape(t.Category),
	).Replace(e.cfg.SearchPath)
	return e.cfg.BaseURL + path, nil
}

func decodeProducts(body []byte, single bool) ([]jsonProduct, error) {
	body = bytes.TrimSpace(body)
	if single {
		var wrapped struct {
			Product *jsonProduct `json:"product"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Product != nil {
			return []jsonProduct{*wrapped.Product}, nil
		}
		var p jsonProduct
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("product payload parse: %w", err)
		}
		return []jsonProduct{p}, nil
	}

	// Accept both object-wrapped and bare-array payloads.
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Products []jsonProduct `json:"products"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("search payload parse: %w", err)
		}
		return wrapped.Products, nil
	}
	var arr []jsonProduct
	if err := json.Unmarshal(body, &arr); err != nil {
		return nil, fmt.Errorf("search payload parse: %w", err)
	}
	return arr, nil
}

func (e *JSONExtractor) toObservation(i int, p jsonProduct) (domain.RawObservation, *ParseError) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(p.Title)
	}
	if name == "" {
		return domain.RawObservation{}, &ParseError{Store: e.cfg.Store, Index: i, Field: "name", Err: errMissingName}
	}
	price := rawScalar(p.Price)
	if price == "" {
		return domain.RawObservation{}, &ParseError{Store: e.cfg.Store, Index: i, Field: "price", Err: errMissingPrice}
	}
	return domain.RawObservation{
		Store:            e.cfg.Store,
		Name:             name,
		PriceText:        price,
		Currency:         strings.TrimSpace(p.Currency),
		URL:              strings.TrimSpace(p.URL),
		ImageURL:         strings.TrimSpace(p.ImageURL),
		AvailabilityText: strings.TrimSpace(p.Availability),
		Description:      truncateRunes(strings.TrimSpace(p.Description), maxDescriptionRunes),
		StoreProductID:   rawScalar(p.ID),
	}, nil
}

// rawScalar renders a JSON string or number as plain text.
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return string(raw)
}
