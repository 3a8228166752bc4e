package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var errNoObservations = errors.New("page yielded no usable observations")

// ingest normalizes an extraction result, resolves each record to a product,
// appends it to history and evaluates the product's alerts. It returns the
// number of observations appended.
func (e *Engine) ingest(ctx context.Context, j *job, res *extract.Result) (int, error) {
	metrics.ScrapeObservationsTotal.WithLabelValues(j.Store).Add(float64(len(res.Observations)))
	for _, pe := range res.Skipped {
		metrics.ScrapeSkippedElementsTotal.WithLabelValues(j.Store).Inc()
		e.log.Warn("skipped element", "store", j.Store, "fingerprint", j.Fingerprint, "error", pe)
	}

	batch := e.normalizer.Batch(res.Observations, e.source(j.Store))

	if j.ProductID != "" {
		if len(batch) == 0 {
			return 0, &extract.ParseError{Store: j.Store, Index: -1, Err: errNoObservations}
		}
		p, err := e.store.GetProduct(ctx, j.ProductID)
		if err != nil {
			return 0, fmt.Errorf("loading product %s: %w", j.ProductID, err)
		}
		ok, err := e.record(ctx, p, e.pick(p, batch))
		if err != nil || !ok {
			return 0, err
		}
		return 1, nil
	}

	var (
		appended int
		known    []domain.Product
		loaded   bool
		errs     []error
	)
	for i := range batch {
		n := &batch[i]
		p, err := e.store.FindProductByRef(ctx, n.Store, n.StoreRef)
		if errors.Is(err, store.ErrNotFound) {
			if !loaded {
				known, err = e.store.ListProductsByStore(ctx, j.Store)
				if err != nil {
					return appended, fmt.Errorf("listing %s products: %w", j.Store, err)
				}
				loaded = true
			}
			var created bool
			p, created, err = e.resolve(ctx, known, n)
			if created {
				known = append(known, *p)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("resolving %q: %w", n.CanonicalName, err))
			continue
		}

		ok, err := e.record(ctx, p, n)
		if err != nil {
			if ctx.Err() != nil {
				return appended, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if ok {
			appended++
		}
	}
	if len(errs) > 0 {
		e.log.Error("ingesting search results", "store", j.Store, "query", j.Query, "error", errors.Join(errs...))
	}
	return appended, nil
}

// pick chooses the record in a product page batch that describes p.
func (e *Engine) pick(p *domain.Product, batch []domain.NormalizedObservation) *domain.NormalizedObservation {
	best, bestScore := 0, -1.0
	for i := range batch {
		if batch[i].StoreRef == p.StoreRef {
			return &batch[i]
		}
		if s := e.normalizer.Similar(p.CanonicalName, batch[i].CanonicalName); s > bestScore {
			best, bestScore = i, s
		}
	}
	return &batch[best]
}

// resolve matches n against the store's known products by name similarity
// and creates a product when nothing matches.
func (e *Engine) resolve(
	ctx context.Context,
	known []domain.Product,
	n *domain.NormalizedObservation,
) (p *domain.Product, created bool, err error) {
	best, bestScore := -1, 0.0
	for i := range known {
		if !e.normalizer.Matches(known[i].CanonicalName, n.CanonicalName) {
			continue
		}
		if s := e.normalizer.Similar(known[i].CanonicalName, n.CanonicalName); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		match := known[best]
		return &match, false, nil
	}

	p = &domain.Product{
		CanonicalName: n.CanonicalName,
		Store:         n.Store,
		StoreRef:      n.StoreRef,
		URL:           n.URL,
		ImageURL:      n.ImageURL,
		Description:   n.Description,
		Currency:      n.Currency,
		Availability:  n.Availability,
	}
	if err = e.store.UpsertProduct(ctx, p); err != nil {
		return nil, false, fmt.Errorf("creating product: %w", err)
	}
	e.log.Info("product created", "product_id", p.ID, "store", p.Store, "name", p.CanonicalName)
	return p, true, nil
}

// record appends n as an observation of p, updates the product's tracking
// state and evaluates its alerts. Out-of-order observations are discarded
// and reported as not appended.
func (e *Engine) record(ctx context.Context, p *domain.Product, n *domain.NormalizedObservation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	obs := &domain.PriceObservation{
		ProductID:    p.ID,
		Price:        n.Price,
		Currency:     n.Currency,
		ObservedAt:   n.ObservedAt,
		Availability: n.Availability,
		SourceURL:    n.URL,
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = e.now().UTC()
	}

	unlock := e.products.Lock(p.ID)
	defer unlock()

	if err := e.history.Append(ctx, obs); err != nil {
		if errors.Is(err, history.ErrOutOfOrder) {
			e.log.Warn("discarding out-of-order observation",
				"product_id", p.ID,
				"observed_at", obs.ObservedAt,
			)
			return false, nil
		}
		return false, fmt.Errorf("appending observation: %w", err)
	}
	if err := e.store.RecordProductSuccess(ctx, p.ID, obs); err != nil {
		return true, fmt.Errorf("recording product success: %w", err)
	}

	fired, err := e.evaluator.Evaluate(ctx, obs)
	if err != nil {
		// The observation is stored; alerts catch up on the next one.
		e.log.Error("evaluating alerts", "product_id", p.ID, "observation_id", obs.ID, "error", err)
	}
	if fired > 0 {
		e.log.Info("alerts fired", "product_id", p.ID, "count", fired, "price", obs.Price.String())
	}
	return true, nil
}

// recordFailure counts a failed refresh against the product. It returns the
// product's stale flag afterwards.
func (e *Engine) recordFailure(ctx context.Context, j *job, cause error) bool {
	wasStale := j.entry != nil && j.entry.stale
	if errors.Is(cause, context.Canceled) {
		return wasStale
	}
	res, err := e.store.RecordProductFailure(ctx, j.ProductID, e.now().UTC(), e.cfg.StaleAfter)
	if err != nil {
		e.log.Error("recording product failure", "product_id", j.ProductID, "error", err)
		return wasStale
	}
	if res.BecameStale {
		metrics.ProductsStaleTotal.Inc()
		e.log.Warn("product marked stale",
			"product_id", j.ProductID,
			"store", j.Store,
			"consecutive_failures", res.ConsecutiveFailures,
			"error", cause,
		)
	}
	return res.Stale
}
