package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/config"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const storeSearchPage = `<!doctype html>
<html><body>
  <div class="item" data-product-id="sku-1">
    <a class="title" href="/p/sku-1"><h3>מעבד Intel i7</h3></a>
    <span class="price">₪1,200.00</span>
    <span class="stock">במלאי</span>
  </div>
  <div class="item" data-product-id="sku-2">
    <a class="title" href="/p/sku-2"><h3>Mechanical keyboard</h3></a>
    <span class="price">₪349.90</span>
  </div>
  <div class="item" data-product-id="sku-3">
    <a class="title" href="/p/sku-3"><h3>No price listed</h3></a>
  </div>
</body></html>`

func htmlStore(name, baseURL string) config.StoreConfig {
	return config.StoreConfig{
		Name:       name,
		Kind:       config.KindHTML,
		BaseURL:    baseURL,
		SearchPath: "/search?q={query}",
		Currency:   "ILS",
		Selectors: extract.Selectors{
			Item:          ".item",
			Name:          ".title h3",
			Price:         ".price",
			Link:          "a.title",
			Availability:  ".stock",
			ProductIDAttr: "data-product-id",
		},
		Sessions: config.SessionConfig{Size: 1, Timeout: 5 * time.Second, UserAgent: "rpt-test"},
	}
}

func scrapeConfig(stores ...config.StoreConfig) *config.Config {
	return &config.Config{
		Normalizer: config.NormalizerConfig{
			SimilarityThreshold: 0.75,
			PriceTolerance:      0.02,
			DefaultCurrency:     "ILS",
		},
		Stores: stores,
	}
}

func TestScrapeOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		_, _ = fmt.Fprint(w, storeSearchPage)
	}))
	t.Cleanup(srv.Close)

	cfg := scrapeConfig(htmlStore("ksp", srv.URL))

	t.Run("normalizes and drops unpriced items", func(t *testing.T) {
		t.Parallel()

		obs, err := scrapeOnce(context.Background(), cfg, discardLogger(), "Intel i7", &scrapeOptions{limit: 10})
		require.NoError(t, err)
		require.Len(t, obs, 2)
		assert.Equal(t, "ksp", obs[0].Store)
		assert.True(t, obs[0].Price.Equal(decimal.RequireFromString("1200")), obs[0].Price.String())
		assert.Equal(t, "ILS", obs[0].Currency)
		assert.Equal(t, domain.AvailabilityInStock, obs[0].Availability)
		assert.Equal(t, srv.URL+"/p/sku-2", obs[1].URL)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Parallel()

		_, err := scrapeOnce(context.Background(), cfg, discardLogger(), "i7", &scrapeOptions{store: "ivory"})
		require.ErrorContains(t, err, `store "ivory" is not configured`)
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()

		_, err := scrapeOnce(context.Background(), cfg, discardLogger(), "  !!  ", &scrapeOptions{})
		require.Error(t, err)
	})
}

func TestPrintObservations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := printObservations(&buf, []domain.NormalizedObservation{{
		Store:         "ksp",
		CanonicalName: "mechanical keyboard",
		Price:         decimal.RequireFromString("349.9"),
		Currency:      "ILS",
		Availability:  domain.AvailabilityInStock,
		URL:           "https://ksp.example.com/p/sku-2",
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "STORE")
	assert.Contains(t, out, "349.90 ILS")
	assert.Contains(t, out, "mechanical keyboard")
}
