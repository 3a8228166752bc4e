package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
)

// BreakerConfig tunes the per-store circuit breaker.
type BreakerConfig struct {
	// Threshold is the number of store-level failures within Window that
	// opens the breaker.
	Threshold int
	Window    time.Duration
	// Cooldown is how long an open breaker rejects jobs before admitting a
	// single probe.
	Cooldown time.Duration
}

func (c *BreakerConfig) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = 3
	}
	if c.Window <= 0 {
		c.Window = 5 * time.Minute
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 2 * time.Minute
	}
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// admission is the breaker's answer to a job request.
type admission int

const (
	admitDenied admission = iota
	admitNormal
	admitProbe
)

// breaker tracks the health of one store.
type breaker struct {
	store    string
	cfg      BreakerConfig
	state    breakerState
	failures []time.Time
	openedAt time.Time
	probing  bool
}

func newBreaker(store string, cfg BreakerConfig) *breaker {
	return &breaker{store: store, cfg: cfg}
}

// allow decides whether a job for the store may start at now. Once the
// cooldown has elapsed exactly one probe is admitted; further jobs wait for
// its outcome.
func (b *breaker) allow(now time.Time) admission {
	switch b.state {
	case breakerClosed:
		return admitNormal
	case breakerOpen:
		if now.Sub(b.openedAt) < b.cfg.Cooldown {
			return admitDenied
		}
		b.state = breakerHalfOpen
		b.probing = true
		return admitProbe
	default:
		if b.probing {
			return admitDenied
		}
		b.probing = true
		return admitProbe
	}
}

// release gives back a probe slot whose job never reported an outcome,
// e.g. because it was cancelled.
func (b *breaker) release(probe bool) {
	if probe && b.state == breakerHalfOpen {
		b.probing = false
	}
}

func (b *breaker) success(probe bool) {
	if b.state != breakerClosed && !probe {
		// A job admitted before the breaker opened; it says nothing about
		// the store now.
		return
	}
	b.state = breakerClosed
	b.failures = b.failures[:0]
	b.probing = false
	metrics.StoreDegraded.WithLabelValues(b.store).Set(0)
}

// failure records a store-level failure and reports whether the breaker
// opened as a result.
func (b *breaker) failure(now time.Time, probe bool) bool {
	if b.state == breakerHalfOpen && probe {
		b.trip(now)
		return true
	}
	if b.state != breakerClosed {
		return false
	}

	cutoff := now.Add(-b.cfg.Window)
	i := sort.Search(len(b.failures), func(i int) bool { return b.failures[i].After(cutoff) })
	b.failures = append(b.failures[:0], b.failures[i:]...)
	b.failures = append(b.failures, now)

	if len(b.failures) >= b.cfg.Threshold {
		b.trip(now)
		return true
	}
	return false
}

func (b *breaker) trip(now time.Time) {
	b.state = breakerOpen
	b.openedAt = now
	b.probing = false
	b.failures = b.failures[:0]
	metrics.StoreDegraded.WithLabelValues(b.store).Set(1)
}

func (b *breaker) degraded() bool {
	return b.state != breakerClosed
}

// breakers holds one breaker per store. Stats readers take the lock; the
// coordinating loop is the only writer.
type breakers struct {
	mu  sync.Mutex
	cfg BreakerConfig
	m   map[string]*breaker
}

func newBreakers(cfg BreakerConfig) *breakers {
	cfg.applyDefaults()
	return &breakers{cfg: cfg, m: make(map[string]*breaker)}
}

func (bs *breakers) get(store string) *breaker {
	b, ok := bs.m[store]
	if !ok {
		b = newBreaker(store, bs.cfg)
		bs.m[store] = b
	}
	return b
}

func (bs *breakers) allow(store string, now time.Time) admission {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.get(store).allow(now)
}

func (bs *breakers) release(store string, probe bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.get(store).release(probe)
}

func (bs *breakers) success(store string, probe bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.get(store).success(probe)
}

func (bs *breakers) failure(store string, now time.Time, probe bool) bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.get(store).failure(now, probe)
}

// degraded returns the stores whose breaker is not closed, sorted.
func (bs *breakers) degraded() []string {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	var out []string
	for name, b := range bs.m {
		if b.degraded() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// state returns the breaker state of a store without creating one.
func (bs *breakers) state(store string) breakerState {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.m[store]
	if !ok {
		return breakerClosed
	}
	return b.state
}

// reopenAt returns when an open breaker will admit its probe, or the zero
// time if the store is not waiting on a cooldown.
func (bs *breakers) reopenAt(store string) time.Time {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b := bs.get(store)
	if b.state != breakerOpen {
		return time.Time{}
	}
	return b.openedAt.Add(b.cfg.Cooldown)
}
