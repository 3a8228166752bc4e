// Package history is the append-only price history of tracked products.
// Appends for one product are serialized and must arrive in observed_at
// order; reads compute trend summaries on demand.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/donaldgifford/retail-price-tracker/internal/keylock"
	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var (
	// ErrOutOfOrder is returned by Append when the observation is older
	// than the latest one recorded for the product.
	ErrOutOfOrder = store.ErrOutOfOrder
	// ErrNoSamples is returned by Trend when the window holds no history.
	ErrNoSamples = errors.New("no price samples in window")
)

// History wraps the observation tables of a Store.
type History struct {
	store store.Store
	log   *slog.Logger
	locks keylock.Map
}

// Option configures a History.
type Option func(*History)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) { h.log = l }
}

// New creates a History backed by s.
func New(s store.Store, opts ...Option) *History {
	h := &History{
		store: s,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append records obs. Observations for the same product are serialized;
// one older than the latest stored observation is refused with
// ErrOutOfOrder and nothing is written.
func (h *History) Append(ctx context.Context, obs *domain.PriceObservation) error {
	if obs.ProductID == "" {
		return errors.New("observation has no product id")
	}
	if !obs.Price.IsPositive() {
		return fmt.Errorf("observation price %s is not positive", obs.Price)
	}

	unlock := h.locks.Lock(obs.ProductID)
	defer unlock()

	if err := h.store.AppendObservation(ctx, obs); err != nil {
		if errors.Is(err, store.ErrOutOfOrder) {
			metrics.ObservationsOutOfOrderTotal.Inc()
			h.log.Warn("discarding out-of-order observation",
				"product_id", obs.ProductID,
				"observed_at", obs.ObservedAt,
			)
			return fmt.Errorf("appending observation for %s: %w", obs.ProductID, ErrOutOfOrder)
		}
		return fmt.Errorf("appending observation for %s: %w", obs.ProductID, err)
	}

	metrics.ObservationsAppendedTotal.Inc()
	return nil
}

// Latest returns the newest observation of a product.
func (h *History) Latest(ctx context.Context, productID string) (*domain.PriceObservation, error) {
	return h.store.LatestObservation(ctx, productID)
}

// Range returns the observations in [from, to] in append order. A zero
// limit returns the store maximum.
func (h *History) Range(
	ctx context.Context,
	productID string,
	from, to time.Time,
	limit int,
) ([]domain.PriceObservation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", to, from)
	}
	return h.store.ListObservations(ctx, productID, from, to, limit)
}

// Trend summarizes the observations of the trailing window ending at now.
func (h *History) Trend(
	ctx context.Context,
	productID string,
	window time.Duration,
	now time.Time,
) (*domain.Trend, error) {
	if window <= 0 {
		return nil, fmt.Errorf("invalid trend window %s", window)
	}

	obs, err := h.Range(ctx, productID, now.Add(-window), now, 0)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrNoSamples
	}
	return Summarize(productID, window, obs), nil
}

// Summarize computes min, max and average over obs, which must be
// non-empty and in append order.
func Summarize(productID string, window time.Duration, obs []domain.PriceObservation) *domain.Trend {
	first, last := obs[0], obs[len(obs)-1]
	t := &domain.Trend{
		ProductID: productID,
		Window:    window,
		Samples:   len(obs),
		Currency:  last.Currency,
		Min:       first.Price,
		Max:       first.Price,
		First:     first.Price,
		Last:      last.Price,
		From:      first.ObservedAt,
		To:        last.ObservedAt,
	}

	sum := decimal.Zero
	for _, o := range obs {
		sum = sum.Add(o.Price)
		if o.Price.LessThan(t.Min) {
			t.Min = o.Price
		}
		if o.Price.GreaterThan(t.Max) {
			t.Max = o.Price
		}
	}
	t.Average = sum.DivRound(decimal.NewFromInt(int64(len(obs))), 2)
	return t
}
