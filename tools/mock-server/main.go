// Package main implements a mock retail store for local development. It
// serves an HTML storefront and a JSON catalog API from a fixture so the
// scrape pipeline can run without touching real stores.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	URL          string  `json:"url,omitempty"`
	Availability string  `json:"availability"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
}

type catalogFixture struct {
	Products []product `json:"products"`
}

// driftFloor is the lowest fraction of its fixture price a product drifts to.
const driftFloor = 0.5

// catalog holds the fixture products. Drift lowers a product's price by a
// fixed fraction on each product view so price alerts can be exercised.
type catalog struct {
	mu       sync.Mutex
	products []product
	base     map[string]float64
	drift    float64
}

func newCatalog(f *catalogFixture, drift float64) *catalog {
	base := make(map[string]float64, len(f.Products))
	for _, p := range f.Products {
		base[p.ID] = p.Price
	}
	return &catalog{products: f.Products, base: base, drift: drift}
}

func (c *catalog) search(q, category string) []product {
	c.mu.Lock()
	defer c.mu.Unlock()

	q = strings.ToLower(strings.TrimSpace(q))
	var out []product
	for _, p := range c.products {
		if category != "" && p.Category != category {
			continue
		}
		if q != "" && !matchesAll(strings.ToLower(p.Name), strings.Fields(q)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAll(name string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(name, t) {
			return false
		}
	}
	return true
}

// view returns the product and applies drift for the next view.
func (c *catalog) view(id string) (product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.products {
		p := &c.products[i]
		if p.ID != id {
			continue
		}
		out := *p
		if c.drift > 0 {
			next := math.Round(p.Price*(1-c.drift)*100) / 100
			p.Price = math.Max(next, c.base[id]*driftFloor)
		}
		return out, true
	}
	return product{}, false
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/catalog.json", "path to catalog fixture")
	drift := flag.Float64("drift", 0, "fraction each product page view lowers the price by")
	blockEvery := flag.Int("block-every", 0, "serve a captcha page on every Nth request (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "products", len(fixture.Products))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock store", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, blocker(*blockEvery, newMux(logger, newCatalog(fixture, *drift)))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, c *catalog) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", frontPageHandler)
	mux.HandleFunc("GET /search", searchPageHandler(logger, c))
	mux.HandleFunc("GET /p/{id}", productPageHandler(c))
	mux.HandleFunc("GET /api/search", searchAPIHandler(logger, c))
	mux.HandleFunc("GET /api/products/{id}", productAPIHandler(c))
	return mux
}

func loadFixture(path string) (*catalogFixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f catalogFixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

const challengePage = `<html><body><h1>Checking your browser</h1><div class="g-recaptcha">captcha</div></body></html>`

// blocker answers every nth request with a challenge page.
func blocker(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	var (
		mu    sync.Mutex
		count int
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		block := count%n == 0
		mu.Unlock()
		if block {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			w.Write([]byte(challengePage))
			return
		}
		next.ServeHTTP(w, r)
	})
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"price": func(v float64) string { return "₪" + strconv.FormatFloat(v, 'f', 2, 64) },
}).Parse(`<!doctype html>
<html lang="he"><body>
{{- if .Single}}
<main id="product" data-product-id="{{.Single.ID}}">
  <h1 class="name">{{.Single.Name}}</h1>
  <div class="price-box"><span class="price">{{price .Single.Price}}</span></div>
  <img src="{{.Single.ImageURL}}">
  <span class="stock">{{.Single.Availability}}</span>
  <p class="desc">{{.Single.Description}}</p>
</main>
{{- else}}
<div class="results">
{{- range .Products}}
  <div class="product-item" data-product-id="{{.ID}}">
    <a class="title" href="/p/{{.ID}}"><h3>{{.Name}}</h3></a>
    <span class="price">{{price .Price}}</span>
    <img data-src="{{.ImageURL}}">
    <span class="stock">{{.Availability}}</span>
    <p class="desc">{{.Description}}</p>
  </div>
{{- end}}
</div>
{{- end}}
</body></html>`))

type pageData struct {
	Products []product
	Single   *product
}

func frontPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte(`<!doctype html><html><body><h1>Mock Store</h1></body></html>`))
}

func searchPageHandler(logger *slog.Logger, c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		matched := c.search(q, r.URL.Query().Get("category"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, pageData{Products: matched}); err != nil {
			logger.Error("rendering search page", "error", err)
		}
		logger.Info("search", "query", q, "matched", len(matched))
	}
}

func productPageHandler(c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.view(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		pageTemplate.Execute(w, pageData{Single: &p})
	}
}

func searchAPIHandler(logger *slog.Logger, c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		matched := c.search(q, r.URL.Query().Get("category"))
		for i := range matched {
			matched[i].URL = "/api/products/" + matched[i].ID
		}
		if matched == nil {
			matched = []product{}
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{"products": matched, "total": len(matched)})
		logger.Info("api search", "query", q, "matched", len(matched))
	}
}

func productAPIHandler(c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.view(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{"product": p})
	}
}
