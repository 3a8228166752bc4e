package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const maxDescriptionRunes = 200

var (
	errMissingName  = errors.New("missing name")
	errMissingPrice = errors.New("missing price")
)

// Selectors locate product fields on a store page. Each value is a CSS
// selector group evaluated against the item's descendants.
type Selectors struct {
	Item          string `yaml:"item"`
	Name          string `yaml:"name"`
	Price         string `yaml:"price"`
	Link          string `yaml:"link"`
	Image         string `yaml:"image"`
	Availability  string `yaml:"availability"`
	Description   string `yaml:"description"`
	ProductID     string `yaml:"product_id"`
	ProductIDAttr string `yaml:"product_id_attr"`
}

type compiledSelectors struct {
	item, name, price, link, image, availability, description, productID selector
}

func (s Selectors) compile() (compiledSelectors, error) {
	var (
		c    compiledSelectors
		errs []error
	)
	compile := func(dst *selector, field, expr string) {
		sel, err := compileSelector(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = sel
	}
	compile(&c.item, "item", s.Item)
	compile(&c.name, "name", s.Name)
	compile(&c.price, "price", s.Price)
	compile(&c.link, "link", s.Link)
	compile(&c.image, "image", s.Image)
	compile(&c.availability, "availability", s.Availability)
	compile(&c.description, "description", s.Description)
	compile(&c.productID, "product_id", s.ProductID)

	if c.name.empty() {
		errs = append(errs, errors.New("name selector is required"))
	}
	if c.price.empty() {
		errs = append(errs, errors.New("price selector is required"))
	}
	return c, errors.Join(errs...)
}

// HTMLConfig describes how to read one store's HTML pages.
type HTMLConfig struct {
	Store string
	// BaseURL is the store root; relative paths are resolved against it.
	BaseURL string
	// SearchPath is appended to BaseURL with {query} and {category}
	// replaced by the escaped values.
	SearchPath   string
	Selectors    Selectors
	BlockMarkers []string
}

// HTMLExtractor implements Extractor by parsing store HTML with
// golang.org/x/net/html and configured selectors.
type HTMLExtractor struct {
	cfg      HTMLConfig
	sel      compiledSelectors
	sessions *SessionPool
	limiter  *RateLimiter
	fetch    *fetcher
	nowFunc  func() time.Time
}

// HTMLOption configures the HTMLExtractor.
type HTMLOption func(*HTMLExtractor)

// WithSessionPool sets the session pool used for requests.
func WithSessionPool(p *SessionPool) HTMLOption {
	return func(e *HTMLExtractor) {
		e.sessions = p
	}
}

// WithRateLimiter injects the store's rate limiter. When set, every request
// goes through Wait() first.
func WithRateLimiter(r *RateLimiter) HTMLOption {
	return func(e *HTMLExtractor) {
		e.limiter = r
	}
}

// WithNowFunc overrides the observation timestamp source for testing.
func WithNowFunc(f func() time.Time) HTMLOption {
	return func(e *HTMLExtractor) {
		e.nowFunc = f
	}
}

// NewHTMLExtractor validates the selectors and builds an extractor.
func NewHTMLExtractor(cfg HTMLConfig, opts ...HTMLOption) (*HTMLExtractor, error) {
	if cfg.Store == "" {
		return nil, errors.New("store name is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	sel, err := cfg.Selectors.compile()
	if err != nil {
		return nil, fmt.Errorf("compiling selectors for %s: %w", cfg.Store, err)
	}
	if cfg.SearchPath == "" {
		cfg.SearchPath = "/search?q={query}"
	}

	e := &HTMLExtractor{
		cfg:     cfg,
		sel:     sel,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = NewSessionPool(1, defaultHTTPTimeout, defaultUserAgent)
	}
	e.fetch = newFetcher(cfg.Store, e.sessions, e.limiter, cfg.BlockMarkers)
	return e, nil
}

// Store returns the store name.
func (e *HTMLExtractor) Store() string { return e.cfg.Store }

// Sessions exposes the session pool for health reporting.
func (e *HTMLExtractor) Sessions() *SessionPool { return e.sessions }

// Limiter returns the store's rate limiter, nil when requests are unlimited.
func (e *HTMLExtractor) Limiter() *RateLimiter { return e.limiter }

// Extract fetches the search or product page and reads observations from it.
func (e *HTMLExtractor) Extract(ctx context.Context, target Target, maxResults int) (*Result, error) {
	pageURL, err := e.targetURL(target)
	if err != nil {
		return nil, err
	}

	body, err := e.fetch.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Store: e.cfg.Store, Index: -1, Err: err}
	}
	if ctx.Err() != nil {
		return nil, ctxErr(ctx)
	}

	items := e.sel.item.findAll(doc)
	productPage := target.URL != ""
	if productPage && len(items) == 0 {
		items = []*html.Node{doc}
	}

	res := &Result{}
	now := e.nowFunc().UTC()
	for i, n := range items {
		if maxResults > 0 && len(res.Observations) >= maxResults {
			break
		}
		obs, perr := e.readItem(i, n)
		if perr != nil {
			res.Skipped = append(res.Skipped, perr)
			continue
		}
		if obs.URL == "" && productPage {
			obs.URL = pageURL
		}
		obs.ObservedAt = now
		res.Observations = append(res.Observations, obs)
		if productPage {
			break
		}
	}

	if productPage && len(res.Observations) == 0 {
		cause := errors.New("no product on page")
		if len(res.Skipped) > 0 {
			cause = res.Skipped[0]
		}
		return nil, &ParseError{Store: e.cfg.Store, Index: -1, Err: cause}
	}

	return res, nil
}

// Probe checks that the store front page answers.
func (e *HTMLExtractor) Probe(ctx context.Context) error {
	_, err := e.fetch.get(ctx, e.cfg.BaseURL, "text/html")
	return err
}

func (e *HTMLExtractor) targetURL(t Target) (string, error) {
	if t.URL != "" {
		return resolve(e.cfg.BaseURL, t.URL)
	}
	if strings.TrimSpace(t.Query) == "" {
		return "", errors.New("target needs a query or a URL")
	}
	path := strings.NewReplacer(
		"{query}", url.QueryEscape(strings.TrimSpace(t.Query)),
		"{category}", url.QueryEscape(t.Category),
	).Replace(e.cfg.SearchPath)
	return strings.TrimRight(e.cfg.BaseURL, "/") + path, nil
}

func (e *HTMLExtractor) readItem(i int, n *html.Node) (domain.RawObservation, *ParseError) {
	obs := domain.RawObservation{Store: e.cfg.Store}

	obs.Name = textContent(e.sel.name.findFirst(n))
	if obs.Name == "" {
		return obs, &ParseError{Store: e.cfg.Store, Index: i, Field: "name", Err: errMissingName}
	}
	obs.PriceText = textContent(e.sel.price.findFirst(n))
	if obs.PriceText == "" {
		return obs, &ParseError{Store: e.cfg.Store, Index: i, Field: "price", Err: errMissingPrice}
	}

	if link := e.sel.link.findFirst(n); link != nil {
		obs.URL = attr(link, "href")
	} else if n.Type == html.ElementNode && n.Data == "a" {
		obs.URL = attr(n, "href")
	}
	if img := e.sel.image.findFirst(n); img != nil {
		obs.ImageURL = attr(img, "src")
		if obs.ImageURL == "" {
			obs.ImageURL = attr(img, "data-src")
		}
	}
	obs.AvailabilityText = textContent(e.sel.availability.findFirst(n))
	obs.Description = truncateRunes(textContent(e.sel.description.findFirst(n)), maxDescriptionRunes)
	obs.StoreProductID = e.productID(n)

	return obs, nil
}

func (e *HTMLExtractor) productID(n *html.Node) string {
	key := e.cfg.Selectors.ProductIDAttr
	holder := n
	if !e.sel.productID.empty() {
		holder = e.sel.productID.findFirst(n)
		if holder == nil {
			return ""
		}
		if key == "" {
			return textContent(holder)
		}
	}
	if key == "" || holder.Type != html.ElementNode {
		return ""
	}
	return strings.TrimSpace(attr(holder, key))
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
