// Package normalize converts raw store records into canonical observations
// and removes near-duplicates within a batch.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const (
	defaultSimilarityThreshold = 0.75
	defaultPriceTolerance      = 0.02
	defaultCurrency            = "ILS"
)

// Config tunes the normalizer.
type Config struct {
	// SimilarityThreshold is the minimum token Jaccard index for two names
	// to be treated as the same product.
	SimilarityThreshold float64
	// PriceTolerance is the maximum relative price difference for two
	// records to be treated as duplicates.
	PriceTolerance  float64
	DefaultCurrency string
}

// Source describes the store a batch came from.
type Source struct {
	Store    string
	BaseURL  string
	Currency string
}

// Normalizer canonicalizes raw observations.
type Normalizer struct {
	cfg     Config
	aliases map[string]string
	log     *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for rejection and discard messages.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		n.log = l
	}
}

// WithAliases adds brand aliases on top of DefaultAliases.
func WithAliases(aliases map[string]string) Option {
	return func(n *Normalizer) {
		for k, v := range aliases {
			n.aliases[strings.ToLower(k)] = strings.ToLower(v)
		}
	}
}

// New creates a Normalizer, filling unset config values with defaults.
func New(cfg Config, opts ...Option) *Normalizer {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = defaultSimilarityThreshold
	}
	if cfg.PriceTolerance <= 0 {
		cfg.PriceTolerance = defaultPriceTolerance
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaultCurrency
	}
	n := &Normalizer{
		cfg:     cfg,
		aliases: make(map[string]string, len(DefaultAliases)),
		log:     slog.Default(),
	}
	for k, v := range DefaultAliases {
		n.aliases[k] = v
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize canonicalizes a single raw record. It returns an error
// wrapping ErrRejected when the record cannot be used.
func (n *Normalizer) Normalize(raw domain.RawObservation, src Source) (domain.NormalizedObservation, error) {
	name := CleanText(raw.Name)
	if name == "" {
		return domain.NormalizedObservation{}, fmt.Errorf("%w: empty name", ErrRejected)
	}

	price, err := ParsePrice(raw.PriceText)
	if err != nil {
		return domain.NormalizedObservation{}, err
	}

	currency := DetectCurrency(raw.PriceText)
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(raw.Currency))
	}
	if currency == "" {
		currency = src.Currency
	}
	if currency == "" {
		currency = n.cfg.DefaultCurrency
	}

	productURL, err := resolveURL(src.BaseURL, raw.URL)
	if err != nil {
		return domain.NormalizedObservation{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	imageURL, err := resolveURL(src.BaseURL, raw.ImageURL)
	if err != nil {
		// A broken image link does not invalidate the price.
		imageURL = ""
	}

	store := raw.Store
	if store == "" {
		store = src.Store
	}

	obs := domain.NormalizedObservation{
		Store:         store,
		CanonicalName: name,
		URL:           productURL,
		ImageURL:      imageURL,
		Description:   CleanText(raw.Description),
		Price:         price,
		Currency:      currency,
		Availability:  ParseAvailability(raw.AvailabilityText),
		ObservedAt:    raw.ObservedAt.UTC(),
	}
	obs.StoreRef = n.storeRef(raw.StoreProductID, productURL, name)
	return obs, nil
}

// Batch normalizes raws and removes near-duplicates. Rejected records are
// logged and counted, never returned as errors.
func (n *Normalizer) Batch(raws []domain.RawObservation, src Source) []domain.NormalizedObservation {
	out := make([]domain.NormalizedObservation, 0, len(raws))
	for _, raw := range raws {
		obs, err := n.Normalize(raw, src)
		if err != nil {
			if errors.Is(err, ErrRejected) {
				metrics.NormalizationRejectedTotal.WithLabelValues(src.Store).Inc()
			}
			n.log.Warn("rejected raw observation",
				"store", src.Store,
				"name", raw.Name,
				"price_text", raw.PriceText,
				"error", err,
			)
			continue
		}
		out = append(out, obs)
	}
	return n.Dedup(out)
}

// Dedup collapses records from the same store whose names are similar and
// whose prices are within tolerance, keeping the more complete record in
// the position of the first occurrence.
func (n *Normalizer) Dedup(batch []domain.NormalizedObservation) []domain.NormalizedObservation {
	kept := make([]domain.NormalizedObservation, 0, len(batch))
	keptTokens := make([][]string, 0, len(batch))

	for _, obs := range batch {
		tokens := Tokens(obs.CanonicalName, n.aliases)
		dup := -1
		for i := range kept {
			if n.duplicate(&kept[i], keptTokens[i], &obs, tokens) {
				dup = i
				break
			}
		}
		if dup < 0 {
			kept = append(kept, obs)
			keptTokens = append(keptTokens, tokens)
			continue
		}

		discarded := obs
		if obs.Completeness() > kept[dup].Completeness() {
			discarded = kept[dup]
			kept[dup] = obs
			keptTokens[dup] = tokens
		}
		metrics.DedupDiscardedTotal.WithLabelValues(obs.Store).Inc()
		n.log.Info("discarded duplicate observation",
			"store", obs.Store,
			"kept", kept[dup].CanonicalName,
			"kept_price", kept[dup].Price.String(),
			"discarded", discarded.CanonicalName,
			"discarded_price", discarded.Price.String(),
		)
	}
	return kept
}

// Similar reports the name similarity of a and b in [0,1].
func (n *Normalizer) Similar(a, b string) float64 {
	return Similarity(Tokens(a, n.aliases), Tokens(b, n.aliases))
}

// Matches reports whether two names clear the similarity threshold.
func (n *Normalizer) Matches(a, b string) bool {
	return n.Similar(a, b) >= n.cfg.SimilarityThreshold
}

// Query canonicalizes a search query for deduplication.
func (n *Normalizer) Query(q string) string {
	return strings.Join(Tokens(q, n.aliases), " ")
}

func (n *Normalizer) duplicate(a *domain.NormalizedObservation, at []string, b *domain.NormalizedObservation, bt []string) bool {
	if a.Store != b.Store || a.Currency != b.Currency {
		return false
	}
	if Similarity(at, bt) < n.cfg.SimilarityThreshold {
		return false
	}
	return RelativeDiff(a.Price, b.Price).LessThan(decimal.NewFromFloat(n.cfg.PriceTolerance))
}

func (n *Normalizer) storeRef(productID, productURL, name string) string {
	if id := strings.TrimSpace(productID); id != "" {
		return "id:" + id
	}
	if productURL != "" {
		return productURL
	}
	return "name:" + strings.Join(Tokens(name, n.aliases), "-")
}

// RelativeDiff returns |a-b| / max(a,b).
func RelativeDiff(a, b decimal.Decimal) decimal.Decimal {
	hi := decimal.Max(a, b)
	if !hi.IsPositive() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().Div(hi)
}

func resolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", ref, err)
	}
	if r.IsAbs() || base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}
