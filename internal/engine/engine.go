// Package engine schedules store extractions and feeds their results through
// normalization, price history and alert evaluation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/keylock"
	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/normalize"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var (
	// ErrAlreadyInFlight is returned when a job with the same fingerprint is
	// queued or running.
	ErrAlreadyInFlight = errors.New("job already in flight")
	// ErrUnknownStore is returned for stores without a registered extractor.
	ErrUnknownStore = errors.New("unknown store")
	// ErrEmptyQuery is returned by RequestScrape when the query normalizes
	// to nothing.
	ErrEmptyQuery = errors.New("empty query")
	// ErrShuttingDown is returned once the engine stopped admitting work.
	ErrShuttingDown = errors.New("engine shutting down")
	// ErrDrainTimeout is returned by Run when in-flight jobs had to be
	// cancelled because they did not finish within the drain timeout.
	ErrDrainTimeout = errors.New("drain timeout exceeded")
)

const tracerName = "github.com/donaldgifford/retail-price-tracker/internal/engine"

// StoreSettings describes one store the engine scrapes.
type StoreSettings struct {
	BaseURL  string
	Currency string
	// Concurrency caps simultaneous jobs against the store. Zero uses
	// Config.StoreConcurrency.
	Concurrency int
}

// Config tunes scheduling, admission and retries.
type Config struct {
	DefaultPollInterval time.Duration
	// Jitter spreads due times by ±Jitter of the interval.
	Jitter          float64
	StaleMultiplier float64

	GlobalConcurrency int
	StoreConcurrency  int

	// JobTimeout bounds a whole job: probe, every attempt and the backoff
	// between attempts.
	JobTimeout           time.Duration
	MaxAttempts          int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	// StaleAfter is the number of consecutive failures after which a
	// product is marked stale.
	StaleAfter int
	MaxResults int

	DrainTimeout time.Duration
	// IdleInterval bounds how long the loop sleeps while jobs wait for
	// capacity.
	IdleInterval time.Duration

	Breaker BreakerConfig
	Stores  map[string]StoreSettings
}

func (c *Config) applyDefaults() {
	if c.DefaultPollInterval <= 0 {
		c.DefaultPollInterval = time.Hour
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	if c.StaleMultiplier < 1 {
		c.StaleMultiplier = 4
	}
	if c.GlobalConcurrency <= 0 {
		c.GlobalConcurrency = 8
	}
	if c.StoreConcurrency <= 0 {
		c.StoreConcurrency = 2
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 15 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 500 * time.Millisecond
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = 5 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 20
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 30 * time.Second
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = time.Second
	}
	c.Breaker.applyDefaults()
}

// Recoverer re-queues undelivered notifications from the outbox.
type Recoverer interface {
	Recover(ctx context.Context) (int, error)
}

// Engine owns the scrape schedule and the pipeline behind it. A single
// coordinating goroutine (Run) owns the due queue and admission decisions;
// the exported methods are safe for concurrent use.
type Engine struct {
	store      store.Store
	extractors *extract.Registry
	normalizer *normalize.Normalizer
	history    *history.History
	evaluator  *alert.Evaluator
	outbox     Recoverer

	// products serializes append and evaluation per product, so alerts see
	// observations in append order even when a search job and a refresh job
	// land on the same product.
	products keylock.Map

	cfg  Config
	log  *slog.Logger
	now  func() time.Time
	rand func() float64

	// Loop-owned state.
	queue      *dueQueue
	pending    []*job
	staleMarks map[string]bool

	inflight *inflight
	breakers *breakers
	global   *semaphore.Weighted
	perStore map[string]*semaphore.Weighted

	cmds    chan func()
	results chan *outcome

	workers    sync.WaitGroup
	jobsCtx    context.Context
	cancelJobs context.CancelFunc
	closing    atomic.Bool
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNowFunc overrides the clock used for scheduling decisions.
func WithNowFunc(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = fn
	}
}

// WithRandFunc overrides the jitter source. fn returns values in [0,1).
func WithRandFunc(fn func() float64) EngineOption {
	return func(e *Engine) {
		e.rand = fn
	}
}

// WithRecoverer sets the outbox recovered by maintenance.
func WithRecoverer(r Recoverer) EngineOption {
	return func(e *Engine) {
		e.outbox = r
	}
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	extractors *extract.Registry,
	n *normalize.Normalizer,
	h *history.History,
	ev *alert.Evaluator,
	cfg Config,
	opts ...EngineOption,
) *Engine {
	cfg.applyDefaults()
	jobsCtx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		store:      s,
		extractors: extractors,
		normalizer: n,
		history:    h,
		evaluator:  ev,
		cfg:        cfg,
		log:        slog.Default(),
		now:        time.Now,
		rand:       rand.Float64,
		queue:      newDueQueue(),
		staleMarks: make(map[string]bool),
		inflight:   newInflight(),
		breakers:   newBreakers(cfg.Breaker),
		global:     semaphore.NewWeighted(int64(cfg.GlobalConcurrency)),
		perStore:   make(map[string]*semaphore.Weighted),
		cmds:       make(chan func(), 256),
		// Semaphore slots are only returned after a result is consumed, so
		// workers never block on send.
		results:    make(chan *outcome, cfg.GlobalConcurrency),
		jobsCtx:    jobsCtx,
		cancelJobs: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestScrape queues a search for query against every registered store.
// Stores already running the same search are skipped; if every store is,
// ErrAlreadyInFlight is returned.
func (e *Engine) RequestScrape(ctx context.Context, query, category string) ([]domain.ScrapeJob, error) {
	if e.closing.Load() {
		return nil, ErrShuttingDown
	}
	q := e.normalizer.Query(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	category = strings.TrimSpace(category)

	var jobs []*job
	for _, name := range e.extractors.Stores() {
		fp := domain.QueryFingerprint(name, q, category)
		if !e.inflight.reserve(fp) {
			metrics.SchedulerRejectedTotal.WithLabelValues("in_flight").Inc()
			continue
		}
		jobs = append(jobs, &job{
			ScrapeJob: domain.ScrapeJob{
				Fingerprint: fp,
				Store:       name,
				Query:       query,
				Category:    category,
			},
			target: extract.Target{Query: query, Category: category},
		})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyInFlight, q)
	}

	if err := e.submit(ctx, func() { e.pending = append(e.pending, jobs...) }); err != nil {
		for _, j := range jobs {
			e.inflight.release(j.Fingerprint)
		}
		return nil, err
	}

	out := make([]domain.ScrapeJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ScrapeJob)
	}
	e.log.Info("scrape requested", "query", q, "category", category, "stores", len(out))
	return out, nil
}

// RefreshProduct moves a product to the front of the schedule.
func (e *Engine) RefreshProduct(ctx context.Context, productID string) error {
	if e.closing.Load() {
		return ErrShuttingDown
	}
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("loading product %s: %w", productID, err)
	}
	if _, ok := e.extractors.Get(p.Store); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStore, p.Store)
	}
	if e.inflight.has(domain.ProductFingerprint(p.ID)) {
		return fmt.Errorf("%w: %s", ErrAlreadyInFlight, domain.ProductFingerprint(p.ID))
	}
	return e.submit(ctx, func() {
		e.queue.upsert(&entry{
			productID: p.ID,
			store:     p.Store,
			url:       p.URL,
			stale:     p.Stale,
			interval:  e.interval(p.PollInterval, 0),
			dueAt:     e.now(),
		})
	})
}

// CreateAlert persists a new alert and makes sure its product is scheduled
// at the alert's poll interval.
func (e *Engine) CreateAlert(ctx context.Context, a *domain.Alert) error {
	if err := e.evaluator.Start(ctx, a); err != nil {
		return err
	}
	p, err := e.store.GetProduct(ctx, a.ProductID)
	if err != nil {
		// The alert is committed; the next reload schedules the product.
		e.log.Warn("scheduling product for new alert", "product_id", a.ProductID, "error", err)
		return nil
	}

	sched := func() {
		interval := e.interval(p.PollInterval, a.Settings.PollInterval)
		if cur, ok := e.queue.get(p.ID); ok {
			if interval < cur.interval {
				e.queue.upsert(&entry{
					productID: p.ID, store: p.Store, url: p.URL, stale: cur.stale,
					interval: interval, dueAt: minTime(cur.dueAt, e.now().Add(e.jitter(interval))),
				})
			}
			return
		}
		if e.inflight.has(domain.ProductFingerprint(p.ID)) {
			return
		}
		e.queue.upsert(&entry{
			productID: p.ID, store: p.Store, url: p.URL, stale: p.Stale,
			interval: interval, dueAt: e.now(),
		})
	}
	if err := e.submit(ctx, sched); err != nil {
		e.log.Warn("scheduling product for new alert", "product_id", a.ProductID, "error", err)
	}
	return nil
}

// StopAlert stops an alert. Stopping an already stopped alert is a no-op.
func (e *Engine) StopAlert(ctx context.Context, id string) (*domain.Alert, error) {
	return e.evaluator.Stop(ctx, id)
}

// SweepExpired expires alerts whose deadline passed without an observation.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	return e.evaluator.SweepExpired(ctx)
}

// GetStats returns aggregate counts plus the stores currently degraded.
func (e *Engine) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats, err := e.store.GetStats(ctx, e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	stats.DegradedStores = e.breakers.degraded()
	return stats, nil
}

// MarkProductStale sets or clears a product's stale flag. Marking a product
// stale cancels its running job; a cancelled job never appends.
func (e *Engine) MarkProductStale(ctx context.Context, productID string, stale bool) error {
	if err := e.store.SetProductStale(ctx, productID, stale); err != nil {
		return fmt.Errorf("marking product %s stale: %w", productID, err)
	}
	if stale && e.inflight.cancel(domain.ProductFingerprint(productID)) {
		e.log.Info("cancelled in-flight job for stale product", "product_id", productID)
	}
	return e.submit(ctx, func() {
		cur, ok := e.queue.get(productID)
		if !ok {
			e.staleMarks[productID] = stale
			return
		}
		e.queue.upsert(&entry{
			productID: productID, store: cur.store, url: cur.url, stale: stale,
			interval: cur.interval, dueAt: e.now().Add(e.jitter(e.effective(cur.interval, stale))),
		})
	})
}

// Trend summarizes a product's prices over the trailing window.
func (e *Engine) Trend(ctx context.Context, productID string, window time.Duration) (*domain.Trend, error) {
	return e.history.Trend(ctx, productID, window, e.now().UTC())
}

// History returns up to limit of a product's observations in [from, to].
func (e *Engine) History(
	ctx context.Context,
	productID string,
	from, to time.Time,
	limit int,
) ([]domain.PriceObservation, error) {
	return e.history.Range(ctx, productID, from, to, limit)
}

// Reload refreshes the schedule from the store. Products whose alerts all
// closed drop out; new ones are due immediately when never checked.
func (e *Engine) Reload(ctx context.Context) error {
	entries, err := e.store.ListSchedulableProducts(ctx)
	if err != nil {
		return fmt.Errorf("listing schedulable products: %w", err)
	}
	return e.submit(ctx, func() { e.applySchedule(entries) })
}

// RecoverOutbox re-queues pending notifications, if an outbox is configured.
func (e *Engine) RecoverOutbox(ctx context.Context) (int, error) {
	if e.outbox == nil {
		return 0, nil
	}
	return e.outbox.Recover(ctx)
}

// SyncStats publishes aggregate gauges.
func (e *Engine) SyncStats(ctx context.Context) error {
	stats, err := e.GetStats(ctx)
	if err != nil {
		return err
	}
	metrics.AlertsActive.Set(float64(stats.ActiveAlerts))
	metrics.ProductsTracked.Set(float64(stats.TotalProducts))
	for _, name := range e.extractors.Stores() {
		ex, _ := e.extractors.Get(name)
		q, ok := ex.(quotaReporter)
		if !ok || q.Limiter() == nil {
			continue
		}
		if remaining := q.Limiter().Remaining(); remaining >= 0 {
			metrics.StoreRequestsRemaining.WithLabelValues(name).Set(float64(remaining))
		}
	}
	return nil
}

// StoreStatus is the health and request budget of one store.
type StoreStatus struct {
	Name    string `json:"name"`
	Breaker string `json:"breaker"              enum:"closed,open,half_open"`
	// Remaining is -1 when the store has no daily quota.
	DailyUsed int64      `json:"daily_used"`
	Remaining int64      `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// StoreStatuses reports every registered store in registration order.
func (e *Engine) StoreStatuses() []StoreStatus {
	names := e.extractors.Stores()
	out := make([]StoreStatus, 0, len(names))
	for _, name := range names {
		st := StoreStatus{
			Name:      name,
			Breaker:   e.breakers.state(name).String(),
			Remaining: -1,
		}
		ex, _ := e.extractors.Get(name)
		if q, ok := ex.(quotaReporter); ok && q.Limiter() != nil {
			l := q.Limiter()
			reset := l.ResetAt()
			st.DailyUsed = l.DailyCount()
			st.Remaining = l.Remaining()
			st.ResetAt = &reset
		}
		out = append(out, st)
	}
	return out
}

// quotaReporter is implemented by extractors that expose their rate limiter.
type quotaReporter interface {
	Limiter() *extract.RateLimiter
}

// submit hands fn to the coordinating loop.
func (e *Engine) submit(ctx context.Context, fn func()) error {
	if e.closing.Load() {
		return ErrShuttingDown
	}
	select {
	case e.cmds <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// interval picks the tightest of the product, alert and default intervals.
func (e *Engine) interval(productPoll, alertPoll time.Duration) time.Duration {
	d := e.cfg.DefaultPollInterval
	if productPoll > 0 && productPoll < d {
		d = productPoll
	}
	if alertPoll > 0 && alertPoll < d {
		d = alertPoll
	}
	return d
}

// effective applies the stale multiplier.
func (e *Engine) effective(interval time.Duration, stale bool) time.Duration {
	if stale {
		return time.Duration(float64(interval) * e.cfg.StaleMultiplier)
	}
	return interval
}

// jitter spreads d by up to ±cfg.Jitter.
func (e *Engine) jitter(d time.Duration) time.Duration {
	if e.cfg.Jitter == 0 {
		return d
	}
	f := 1 + e.cfg.Jitter*(2*e.rand()-1)
	return time.Duration(float64(d) * f)
}

func (e *Engine) storeSemaphore(name string) *semaphore.Weighted {
	sem, ok := e.perStore[name]
	if !ok {
		n := e.cfg.StoreConcurrency
		if s, ok := e.cfg.Stores[name]; ok && s.Concurrency > 0 {
			n = s.Concurrency
		}
		sem = semaphore.NewWeighted(int64(n))
		e.perStore[name] = sem
	}
	return sem
}

func (e *Engine) source(name string) normalize.Source {
	s := e.cfg.Stores[name]
	return normalize.Source{Store: name, BaseURL: s.BaseURL, Currency: s.Currency}
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
