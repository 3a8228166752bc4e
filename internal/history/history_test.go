package history_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var t0 = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (*history.History, string) {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	p := &domain.Product{
		CanonicalName: "lenovo ideapad 5",
		Store:         "ivory",
		StoreRef:      "id:77",
		Currency:      "ILS",
	}
	require.NoError(t, s.UpsertProduct(ctx, p))

	return history.New(s, history.WithLogger(quietLogger())), p.ID
}

func obs(productID, price string, at time.Time) *domain.PriceObservation {
	return &domain.PriceObservation{
		ProductID:    productID,
		Price:        decimal.RequireFromString(price),
		Currency:     "ILS",
		ObservedAt:   at,
		Availability: domain.AvailabilityInStock,
	}
}

func TestHistory_AppendOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, productID := setup(t)

	require.NoError(t, h.Append(ctx, obs(productID, "3499", t0)))
	require.NoError(t, h.Append(ctx, obs(productID, "3299", t0.Add(time.Hour))))

	err := h.Append(ctx, obs(productID, "3199", t0.Add(30*time.Minute)))
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrOutOfOrder)
	assert.ErrorIs(t, err, store.ErrOutOfOrder)

	latest, err := h.Latest(ctx, productID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3299).Equal(latest.Price))
}

func TestHistory_AppendValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, productID := setup(t)

	tests := []struct {
		name string
		obs  *domain.PriceObservation
	}{
		{name: "missing product", obs: obs("", "10", t0)},
		{name: "zero price", obs: obs(productID, "0", t0)},
		{name: "negative price", obs: obs(productID, "-5", t0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, h.Append(ctx, tt.obs))
		})
	}

	_, err := h.Latest(ctx, productID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistory_ConcurrentAppendsStayOrdered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, productID := setup(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.Append(ctx, obs(productID, "100", t0.Add(time.Duration(i)*time.Minute)))
			if err != nil && !errors.Is(err, history.ErrOutOfOrder) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := h.Range(ctx, productID, t0, t0.Add(time.Hour), 0)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].ObservedAt.Before(got[i-1].ObservedAt),
			"observation %d precedes its predecessor", i)
	}
}

func TestHistory_Range(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, productID := setup(t)

	for i, price := range []string{"150", "140", "130"} {
		require.NoError(t, h.Append(ctx, obs(productID, price, t0.Add(time.Duration(i)*time.Hour))))
	}

	got, err := h.Range(ctx, productID, t0.Add(30*time.Minute), t0.Add(3*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, decimal.NewFromInt(140).Equal(got[0].Price))
	assert.True(t, decimal.NewFromInt(130).Equal(got[1].Price))

	_, err = h.Range(ctx, productID, t0.Add(time.Hour), t0, 0)
	assert.Error(t, err)
}

func TestHistory_Trend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, productID := setup(t)

	_, err := h.Trend(ctx, productID, 24*time.Hour, t0)
	require.ErrorIs(t, err, history.ErrNoSamples)

	// Outside the window.
	require.NoError(t, h.Append(ctx, obs(productID, "999", t0.Add(-48*time.Hour))))
	for i, price := range []string{"120.50", "99.90", "110"} {
		require.NoError(t, h.Append(ctx, obs(productID, price, t0.Add(time.Duration(i)*time.Hour))))
	}

	trend, err := h.Trend(ctx, productID, 24*time.Hour, t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, trend.Samples)
	assert.Equal(t, "ILS", trend.Currency)
	assert.Equal(t, "99.9", trend.Min.String())
	assert.Equal(t, "120.5", trend.Max.String())
	assert.Equal(t, "110.13", trend.Average.String())
	assert.Equal(t, "120.5", trend.First.String())
	assert.Equal(t, "110", trend.Last.String())
	assert.True(t, t0.Equal(trend.From))

	_, err = h.Trend(ctx, productID, 0, t0)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prices  []string
		wantMin string
		wantMax string
		wantAvg string
	}{
		{name: "single sample", prices: []string{"42"}, wantMin: "42", wantMax: "42", wantAvg: "42"},
		{name: "falling", prices: []string{"150", "140", "130"}, wantMin: "130", wantMax: "150", wantAvg: "140"},
		{name: "rounded average", prices: []string{"1", "1", "2"}, wantMin: "1", wantMax: "2", wantAvg: "1.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var samples []domain.PriceObservation
			for i, p := range tt.prices {
				samples = append(samples, *obs("p", p, t0.Add(time.Duration(i)*time.Minute)))
			}
			trend := history.Summarize("p", time.Hour, samples)
			assert.Equal(t, len(tt.prices), trend.Samples)
			assert.Equal(t, tt.wantMin, trend.Min.String())
			assert.Equal(t, tt.wantMax, trend.Max.String())
			assert.Equal(t, tt.wantAvg, trend.Average.String())
		})
	}
}
