package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/normalize"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingSink struct {
	mu      sync.Mutex
	intents []*domain.NotificationIntent
}

func (r *recordingSink) Enqueue(_ context.Context, in *domain.NotificationIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
	return nil
}

func (r *recordingSink) kinds() []domain.IntentKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.IntentKind, 0, len(r.intents))
	for _, in := range r.intents {
		out = append(out, in.Kind)
	}
	return out
}

type extractFunc func(ctx context.Context, t extract.Target) (*extract.Result, error)

// fakeExtractor is a scriptable store that also supports probing.
type fakeExtractor struct {
	name string

	mu     sync.Mutex
	fn     extractFunc
	calls  int
	probes int
}

func (f *fakeExtractor) Store() string { return f.name }

func (f *fakeExtractor) Extract(ctx context.Context, t extract.Target, _ int) (*extract.Result, error) {
	f.mu.Lock()
	f.calls++
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, t)
}

func (f *fakeExtractor) Probe(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return nil
}

func (f *fakeExtractor) set(fn extractFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

func (f *fakeExtractor) counts() (calls, probes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.probes
}

type fixture struct {
	store   *store.SQLiteStore
	ex      *fakeExtractor
	clock   *clock
	sink    *recordingSink
	eng     *Engine
	product *domain.Product
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))

	f := &fixture{
		store: s,
		ex:    &fakeExtractor{name: "ksp"},
		clock: &clock{t: t0},
		sink:  &recordingSink{},
	}
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		return nil, errors.New("unexpected extraction")
	})

	reg, err := extract.NewRegistry(f.ex)
	require.NoError(t, err)

	if cfg.Stores == nil {
		cfg.Stores = map[string]StoreSettings{
			"ksp": {BaseURL: "https://ksp.example", Currency: "ILS"},
		}
	}
	f.eng = NewEngine(s, reg,
		normalize.New(normalize.Config{}, normalize.WithLogger(quietLogger())),
		history.New(s, history.WithLogger(quietLogger())),
		alert.NewEvaluator(s, f.sink, alert.WithLogger(quietLogger()), alert.WithNowFunc(f.clock.now)),
		cfg,
		WithLogger(quietLogger()),
		WithNowFunc(f.clock.now),
		WithRandFunc(func() float64 { return 0.5 }),
	)

	f.product = f.addProduct(t, "5", "sony wh-1000xm5")
	return f
}

func (f *fixture) addProduct(t *testing.T, ref, name string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		CanonicalName: name,
		Store:         "ksp",
		StoreRef:      "id:" + ref,
		URL:           "https://ksp.example/item/" + ref,
		Currency:      "ILS",
	}
	require.NoError(t, f.store.UpsertProduct(context.Background(), p))
	return p
}

func (f *fixture) schedule(p *domain.Product) {
	f.eng.queue.upsert(&entry{
		productID: p.ID,
		store:     p.Store,
		url:       p.URL,
		interval:  f.eng.cfg.DefaultPollInterval,
		dueAt:     f.clock.now(),
	})
}

func (f *fixture) productJob(p *domain.Product) *job {
	return &job{
		ScrapeJob: domain.ScrapeJob{
			Fingerprint: domain.ProductFingerprint(p.ID),
			Store:       p.Store,
			ProductID:   p.ID,
			URL:         p.URL,
		},
		target: extract.Target{URL: p.URL},
		entry:  &entry{productID: p.ID, store: p.Store, url: p.URL, interval: time.Hour},
	}
}

func (f *fixture) observations(t *testing.T, productID string) []domain.PriceObservation {
	t.Helper()
	obs, err := f.store.ListObservations(context.Background(), productID,
		time.Time{}, t0.Add(365*24*time.Hour), 0)
	require.NoError(t, err)
	return obs
}

// priceAt returns a one-record product page for the fixture product.
func priceAt(at time.Time, price string) *extract.Result {
	return &extract.Result{Observations: []domain.RawObservation{{
		Name:             "Sony WH-1000XM5",
		PriceText:        price,
		URL:              "/item/5",
		StoreProductID:   "5",
		AvailabilityText: "במלאי",
		ObservedAt:       at,
	}}}
}

// settle waits for running workers and feeds their results and any queued
// commands through the loop's handlers.
func settle(e *Engine) {
	e.workers.Wait()
	for {
		select {
		case out := <-e.results:
			e.complete(out)
		case fn := <-e.cmds:
			fn()
		default:
			return
		}
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	cfg := f.eng.cfg
	assert.Equal(t, time.Hour, cfg.DefaultPollInterval)
	assert.Equal(t, 15*time.Second, cfg.JobTimeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 8, cfg.GlobalConcurrency)
	assert.Equal(t, 2, cfg.StoreConcurrency)
	assert.Equal(t, 5, cfg.StaleAfter)
	assert.InDelta(t, 4.0, cfg.StaleMultiplier, 0)
	assert.Equal(t, 3, cfg.Breaker.Threshold)
	assert.Equal(t, 30*time.Second, cfg.DrainTimeout)
}

func TestEngine_AlertFiresOnlyWhenThresholdCrossed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{DefaultPollInterval: time.Minute, MaxAttempts: 1})

	prices := []string{"150 ₪", "140 ₪", "130 ₪"}
	var n atomic.Int32
	f.ex.set(func(_ context.Context, tgt extract.Target) (*extract.Result, error) {
		if tgt.URL != f.product.URL {
			return nil, fmt.Errorf("unexpected target %q", tgt.URL)
		}
		i := n.Add(1) - 1
		return priceAt(f.clock.now(), prices[i]), nil
	})

	threshold := decimal.NewFromInt(135)
	a := &domain.Alert{
		UserRef:   "user-1",
		ProductID: f.product.ID,
		Settings:  domain.AlertSettings{Threshold: &threshold},
	}
	require.NoError(t, f.eng.CreateAlert(ctx, a))

	for range prices {
		f.eng.step()
		settle(f.eng)
		f.clock.advance(time.Minute)
	}

	calls, _ := f.ex.counts()
	assert.Equal(t, 3, calls)

	obs := f.observations(t, f.product.ID)
	require.Len(t, obs, 3)
	assert.True(t, decimal.NewFromInt(130).Equal(obs[2].Price))

	assert.Equal(t, []domain.IntentKind{domain.IntentTrackingStarted, domain.IntentPriceDropped}, f.sink.kinds())
	fired := f.sink.intents[1]
	assert.Equal(t, obs[2].ID, fired.ObservationID)

	got, err := f.store.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertClosed, got.State)

	p, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	require.NotNil(t, p.LastKnownPrice)
	assert.True(t, decimal.NewFromInt(130).Equal(*p.LastKnownPrice))
}

func TestEngine_RequestScrapeCreatesAndDedupsProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{MaxAttempts: 1})

	f.ex.set(func(_ context.Context, tgt extract.Target) (*extract.Result, error) {
		at := f.clock.now()
		return &extract.Result{
			Observations: []domain.RawObservation{
				{Name: "מעבד Intel i7", PriceText: "₪1,200", ObservedAt: at},
				{Name: "מעבד אינטל i7 ", PriceText: "₪1,199.99", ImageURL: "/img/i7.jpg", ObservedAt: at},
				{Name: "Sony WH-1000XM5", PriceText: "₪1,149", StoreProductID: "5", ObservedAt: at},
			},
			Skipped: []*extract.ParseError{{Store: "ksp", Index: 3, Field: "price", Err: errors.New("missing")}},
		}, nil
	})

	jobs, err := f.eng.RequestScrape(ctx, "  מעבד   i7 ", "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, strings.HasPrefix(jobs[0].Fingerprint, "query:ksp:"))

	f.eng.step()
	settle(f.eng)

	products, err := f.store.ListProductsByStore(ctx, "ksp")
	require.NoError(t, err)
	require.Len(t, products, 2)

	var created *domain.Product
	for i := range products {
		if products[i].ID != f.product.ID {
			created = &products[i]
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, "מעבד אינטל i7", created.CanonicalName)
	assert.Equal(t, "https://ksp.example/img/i7.jpg", created.ImageURL)
	require.NotNil(t, created.LastKnownPrice)
	assert.True(t, decimal.RequireFromString("1199.99").Equal(*created.LastKnownPrice))

	assert.Len(t, f.observations(t, f.product.ID), 1, "known store ref reuses the product")
	assert.Equal(t, 0, f.eng.inflight.len())
}

func TestEngine_RequestScrapeDedup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{})

	_, err := f.eng.RequestScrape(ctx, "Sony  WH-1000XM5", "")
	require.NoError(t, err)

	_, err = f.eng.RequestScrape(ctx, "sony wh-1000xm5", "")
	require.ErrorIs(t, err, ErrAlreadyInFlight)

	_, err = f.eng.RequestScrape(ctx, "sony wh-1000xm5", "headphones")
	require.NoError(t, err, "a different category is a different job")

	_, err = f.eng.RequestScrape(ctx, "  ", "")
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestEngine_RefreshProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{})

	require.NoError(t, f.eng.RefreshProduct(ctx, f.product.ID))
	settle(f.eng)
	ent, ok := f.eng.queue.get(f.product.ID)
	require.True(t, ok)
	assert.Equal(t, t0, ent.dueAt)

	require.True(t, f.eng.inflight.reserve(domain.ProductFingerprint(f.product.ID)))
	err := f.eng.RefreshProduct(ctx, f.product.ID)
	require.ErrorIs(t, err, ErrAlreadyInFlight)

	err = f.eng.RefreshProduct(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngine_BreakerSuppressesStoreAndAdmitsOneProbe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{
		DefaultPollInterval: time.Minute,
		MaxAttempts:         1,
		GlobalConcurrency:   5,
		StoreConcurrency:    5,
		Breaker:             BreakerConfig{Threshold: 3, Window: 10 * time.Minute, Cooldown: 10 * time.Minute},
	})

	var failing atomic.Bool
	failing.Store(true)
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		if failing.Load() {
			return nil, fmt.Errorf("%w: captcha page", extract.ErrBlocked)
		}
		return priceAt(f.clock.now(), "150 ₪"), nil
	})

	products := []*domain.Product{f.product}
	for _, ref := range []string{"6", "7", "8", "9"} {
		products = append(products, f.addProduct(t, ref, "product "+ref))
	}

	for _, p := range products[:3] {
		f.schedule(p)
		f.eng.step()
		settle(f.eng)
	}
	calls, _ := f.ex.counts()
	require.Equal(t, 3, calls)

	stats, err := f.eng.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ksp"}, stats.DegradedStores)

	// Every product is due while the breaker cools down.
	f.schedule(products[3])
	f.schedule(products[4])
	f.clock.advance(time.Minute)
	f.eng.step()
	settle(f.eng)

	calls, _ = f.ex.counts()
	assert.Equal(t, 3, calls, "no jobs start while the store is degraded")
	ent, ok := f.eng.queue.get(products[4].ID)
	require.True(t, ok)
	assert.Equal(t, t0.Add(10*time.Minute), ent.dueAt)

	failing.Store(false)
	f.clock.advance(9 * time.Minute)
	f.eng.step()
	assert.Equal(t, 4, f.eng.queue.Len(), "the rest wait for the probe")
	settle(f.eng)

	calls, probes := f.ex.counts()
	assert.Equal(t, 4, calls, "exactly one probe job")
	assert.Equal(t, 1, probes)
	stats, err = f.eng.GetStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.DegradedStores)

	f.eng.step()
	settle(f.eng)
	calls, _ = f.ex.counts()
	assert.Equal(t, 8, calls)
}

func TestEngine_ProbeFailureReopensBreaker(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{
		MaxAttempts: 1,
		Breaker:     BreakerConfig{Threshold: 1, Cooldown: time.Minute},
	})
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		return nil, fmt.Errorf("%w: 503", extract.ErrBlocked)
	})

	f.schedule(f.product)
	f.eng.step()
	settle(f.eng)
	require.Equal(t, []string{"ksp"}, f.eng.breakers.degraded())

	f.clock.advance(time.Hour)
	f.schedule(f.product)
	f.eng.step()
	settle(f.eng)

	_, probes := f.ex.counts()
	assert.Equal(t, 1, probes)
	assert.Equal(t, t0.Add(time.Hour+time.Minute), f.eng.breakers.reopenAt("ksp"))
}

func TestEngine_ProductFailureDoesNotDegradeStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxAttempts: 1, Breaker: BreakerConfig{Threshold: 1}})
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		return nil, fmt.Errorf("%w: item removed", extract.ErrNotFound)
	})

	f.schedule(f.product)
	f.eng.step()
	settle(f.eng)

	assert.Empty(t, f.eng.breakers.degraded())
	p, err := f.store.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ConsecutiveFailures)
}

func TestEngine_PricelessPagesDoNotDegradeStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxAttempts: 1, Breaker: BreakerConfig{Threshold: 3}})
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		return priceAt(f.clock.now(), "צור קשר לקבלת מחיר"), nil
	})

	for range 3 {
		f.schedule(f.product)
		f.eng.step()
		settle(f.eng)
		f.clock.advance(time.Minute)
	}

	assert.Empty(t, f.eng.breakers.degraded())
	p, err := f.store.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ConsecutiveFailures)
	assert.Empty(t, f.observations(t, f.product.ID))
}

func TestWork_TimeoutReleasesSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{JobTimeout: 50 * time.Millisecond, MaxAttempts: 1})

	pool := extract.NewSessionPool(1, time.Second, "test-agent")
	f.ex.set(func(ctx context.Context, _ extract.Target) (*extract.Result, error) {
		s, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer pool.Release(s)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	out := f.eng.work(ctx, f.productJob(f.product))
	require.ErrorIs(t, out.err, extract.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Eventually(t, func() bool { return pool.InUse() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.observations(t, f.product.ID))

	p, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ConsecutiveFailures)
	assert.Equal(t, "timeout", outcomeLabel(out.err))
}

func TestWork_TimeoutWithUncooperativeExtractor(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{JobTimeout: 50 * time.Millisecond, MaxAttempts: 1})

	release := make(chan struct{})
	pool := extract.NewSessionPool(1, time.Second, "test-agent")
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		s, err := pool.Acquire(context.Background())
		if err != nil {
			return nil, err
		}
		defer pool.Release(s)
		<-release
		return priceAt(f.clock.now(), "99 ₪"), nil
	})

	start := time.Now()
	out := f.eng.work(context.Background(), f.productJob(f.product))
	require.ErrorIs(t, out.err, extract.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "the worker does not wait for the extractor")

	close(release)
	assert.Eventually(t, func() bool { return pool.InUse() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.observations(t, f.product.ID), "a late result is discarded")
}

func TestWork_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  []error
		wantErr   error
		wantCalls int
		wantObs   int
	}{
		{
			name:      "transient then success",
			failures:  []error{fmt.Errorf("%w: slow", extract.ErrTimeout)},
			wantCalls: 2,
			wantObs:   1,
		},
		{
			name: "exhausted",
			failures: []error{
				fmt.Errorf("%w: 1", extract.ErrTimeout),
				fmt.Errorf("%w: 2", extract.ErrTimeout),
				fmt.Errorf("%w: 3", extract.ErrTimeout),
			},
			wantErr:   extract.ErrTimeout,
			wantCalls: 3,
		},
		{
			name:      "blocked is not retried",
			failures:  []error{fmt.Errorf("%w: 403", extract.ErrBlocked)},
			wantErr:   extract.ErrBlocked,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, Config{
				MaxAttempts:          3,
				RetryInitialInterval: time.Millisecond,
				RetryMaxInterval:     2 * time.Millisecond,
			})
			var n atomic.Int32
			f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
				i := int(n.Add(1)) - 1
				if i < len(tt.failures) {
					return nil, tt.failures[i]
				}
				return priceAt(f.clock.now(), "99 ₪"), nil
			})

			j := f.productJob(f.product)
			out := f.eng.work(context.Background(), j)
			if tt.wantErr != nil {
				require.ErrorIs(t, out.err, tt.wantErr)
			} else {
				require.NoError(t, out.err)
			}
			assert.Equal(t, tt.wantCalls, j.Attempt)
			assert.Len(t, f.observations(t, f.product.ID), tt.wantObs)
		})
	}
}

func TestWork_TimeoutCoversAllAttempts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{
		JobTimeout:           200 * time.Millisecond,
		MaxAttempts:          3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     2 * time.Millisecond,
	})
	f.ex.set(func(ctx context.Context, _ extract.Target) (*extract.Result, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(150 * time.Millisecond):
			return nil, fmt.Errorf("%w: upstream slow", extract.ErrTimeout)
		}
	})

	j := f.productJob(f.product)
	start := time.Now()
	out := f.eng.work(context.Background(), j)

	require.ErrorIs(t, out.err, extract.ErrTimeout)
	assert.Equal(t, 2, j.Attempt, "the second attempt runs into the job deadline")
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestWork_StaleAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{MaxAttempts: 1, StaleAfter: 2})
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		return &extract.Result{Observations: []domain.RawObservation{{Name: "Sony", PriceText: "n/a"}}}, nil
	})

	before := ptestutil.ToFloat64(metrics.ProductsStaleTotal)

	out := f.eng.work(ctx, f.productJob(f.product))
	var pe *extract.ParseError
	require.ErrorAs(t, out.err, &pe)
	assert.True(t, pe.PageLevel())
	assert.False(t, out.stale)

	out = f.eng.work(ctx, f.productJob(f.product))
	require.Error(t, out.err)
	assert.True(t, out.stale)

	p, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.True(t, p.Stale)
	assert.GreaterOrEqual(t, ptestutil.ToFloat64(metrics.ProductsStaleTotal), before+1)
}

func TestWork_RecoversPanic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MaxAttempts: 1})
	f.ex.set(func(context.Context, extract.Target) (*extract.Result, error) {
		panic("selector table corrupted")
	})

	before := ptestutil.ToFloat64(metrics.SchedulerPanicsTotal)
	out := f.eng.work(context.Background(), f.productJob(f.product))
	require.Error(t, out.err)
	assert.Contains(t, out.err.Error(), "extractor panic")
	assert.GreaterOrEqual(t, ptestutil.ToFloat64(metrics.SchedulerPanicsTotal), before+1)
}

func TestEngine_MarkProductStaleCancelsRunningJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{DefaultPollInterval: time.Hour, MaxAttempts: 1})

	started := make(chan struct{})
	f.ex.set(func(ctx context.Context, _ extract.Target) (*extract.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	f.schedule(f.product)
	f.eng.step()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
	}

	require.NoError(t, f.eng.MarkProductStale(ctx, f.product.ID, true))
	settle(f.eng)

	assert.Empty(t, f.observations(t, f.product.ID), "a cancelled job never appends")

	p, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.True(t, p.Stale)
	assert.Zero(t, p.ConsecutiveFailures)

	ent, ok := f.eng.queue.get(f.product.ID)
	require.True(t, ok)
	assert.True(t, ent.stale)
	assert.Equal(t, t0.Add(4*time.Hour), ent.dueAt)
}

func TestEngine_ReloadFollowsOpenAlerts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, Config{DefaultPollInterval: time.Hour})

	threshold := decimal.NewFromInt(100)
	a := &domain.Alert{
		UserRef:   "user-1",
		ProductID: f.product.ID,
		Settings:  domain.AlertSettings{Threshold: &threshold, PollInterval: 10 * time.Minute},
	}
	require.NoError(t, f.eng.evaluator.Start(ctx, a))

	require.NoError(t, f.eng.Reload(ctx))
	settle(f.eng)
	ent, ok := f.eng.queue.get(f.product.ID)
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, ent.interval)
	assert.Equal(t, t0, ent.dueAt, "never checked products are due now")

	_, err := f.eng.StopAlert(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.eng.Reload(ctx))
	settle(f.eng)
	assert.Zero(t, f.eng.queue.Len())
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		drainTimeout time.Duration
		cooperative  bool
		wantErr      error
	}{
		{name: "drains in-flight jobs", drainTimeout: 5 * time.Second},
		{name: "cancels jobs past the drain timeout", drainTimeout: 50 * time.Millisecond, cooperative: true, wantErr: ErrDrainTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, Config{DrainTimeout: tt.drainTimeout, MaxAttempts: 1})

			started := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			f.ex.set(func(ctx context.Context, _ extract.Target) (*extract.Result, error) {
				once.Do(func() { close(started) })
				if tt.cooperative {
					<-ctx.Done()
					return nil, ctx.Err()
				}
				<-release
				return &extract.Result{}, nil
			})

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- f.eng.Run(ctx) }()

			_, err := f.eng.RequestScrape(context.Background(), "sony", "")
			require.NoError(t, err)

			select {
			case <-started:
			case <-time.After(5 * time.Second):
				t.Fatal("job did not start")
			}
			cancel()

			if !tt.cooperative {
				select {
				case <-errCh:
					t.Fatal("Run returned before the job finished")
				case <-time.After(50 * time.Millisecond):
				}
				close(release)
			}

			select {
			case err := <-errCh:
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				} else {
					require.NoError(t, err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not return")
			}

			_, err = f.eng.RequestScrape(context.Background(), "other", "")
			require.ErrorIs(t, err, ErrShuttingDown)
			assert.Equal(t, 0, f.eng.inflight.len())
		})
	}
}

func TestEngine_Jitter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		jitter float64
		rand   float64
		want   time.Duration
	}{
		{name: "disabled", jitter: 0, rand: 0, want: time.Hour},
		{name: "low end", jitter: 0.1, rand: 0, want: 54 * time.Minute},
		{name: "midpoint", jitter: 0.1, rand: 0.5, want: time.Hour},
		{name: "high end", jitter: 0.1, rand: 1, want: 66 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, Config{Jitter: tt.jitter})
			f.eng.rand = func() float64 { return tt.rand }
			assert.Equal(t, tt.want, f.eng.jitter(time.Hour))
		})
	}
}

func TestEngine_Interval(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{DefaultPollInterval: time.Hour, StaleMultiplier: 3})

	assert.Equal(t, time.Hour, f.eng.interval(0, 0))
	assert.Equal(t, 20*time.Minute, f.eng.interval(20*time.Minute, 0))
	assert.Equal(t, 5*time.Minute, f.eng.interval(20*time.Minute, 5*time.Minute))
	assert.Equal(t, time.Hour, f.eng.interval(2*time.Hour, 0), "the default caps the interval")
	assert.Equal(t, 3*time.Hour, f.eng.effective(time.Hour, true))
	assert.Equal(t, time.Hour, f.eng.effective(time.Hour, false))
}

type countingRecoverer struct {
	calls atomic.Int32
}

func (c *countingRecoverer) Recover(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestEngine_RecoverOutbox(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	n, err := f.eng.RecoverOutbox(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "no outbox configured")

	r := &countingRecoverer{}
	WithRecoverer(r)(f.eng)
	n, err = f.eng.RecoverOutbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(1), r.calls.Load())
}
