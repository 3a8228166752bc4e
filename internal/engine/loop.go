package engine

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const panicRestartDelay = time.Second

// job is a ScrapeJob plus what the loop needs to run and reschedule it.
type job struct {
	domain.ScrapeJob
	target extract.Target
	entry  *entry // product jobs only
}

// outcome is what a worker reports back to the loop.
type outcome struct {
	job          *job
	err          error
	stale        bool
	observations int
}

// Run loads the schedule and coordinates jobs until ctx is done, then
// drains in-flight work. It returns ErrDrainTimeout if jobs had to be
// force-cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if entries, err := e.store.ListSchedulableProducts(ctx); err != nil {
		e.log.Error("loading schedule", "error", err)
	} else {
		e.applySchedule(entries)
	}
	e.log.Info("engine started",
		"scheduled", e.queue.Len(),
		"stores", len(e.extractors.Stores()),
		"global_concurrency", e.cfg.GlobalConcurrency,
	)

	for !e.loop(ctx) {
		select {
		case <-ctx.Done():
		case <-time.After(panicRestartDelay):
		}
	}
	return e.shutdown()
}

// loop runs until ctx is done (returning true) or a panic escapes a step
// (returning false).
func (e *Engine) loop(ctx context.Context) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerPanicsTotal.Inc()
			e.log.Error("scheduler loop panic", "panic", r, "stack", string(debug.Stack()))
			stopped = false
		}
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return true
		}
		timer.Reset(e.step())

		select {
		case <-ctx.Done():
			return true
		case fn := <-e.cmds:
			fn()
		case out := <-e.results:
			e.complete(out)
		case <-timer.C:
		}
	}
}

// step applies queued commands, consumes finished jobs and admits due work.
// It returns how long the loop may sleep before the next step.
func (e *Engine) step() time.Duration {
	for {
		select {
		case fn := <-e.cmds:
			fn()
			continue
		case out := <-e.results:
			e.complete(out)
			continue
		default:
		}
		break
	}

	now := e.now()
	blocked := e.admitPending()

	for _, ent := range e.queue.popDue(now) {
		if e.admitEntry(ent, now) {
			blocked = true
		}
	}

	metrics.SchedulerQueueDepth.Set(float64(e.queue.Len() + len(e.pending)))

	wait := e.cfg.IdleInterval
	if blocked {
		return wait
	}
	if next, ok := e.queue.peek(); ok {
		if d := next.dueAt.Sub(now); d < wait {
			wait = max(d, 0)
		}
	}
	return wait
}

// admitPending starts requested jobs in FIFO order while capacity allows. It
// reports whether any job is still waiting.
func (e *Engine) admitPending() bool {
	now := e.now()
	kept := e.pending[:0]
	for _, j := range e.pending {
		if _, ok := e.extractors.Get(j.Store); !ok {
			e.inflight.release(j.Fingerprint)
			continue
		}
		adm, reason := e.acquire(j.Store, now)
		if adm == admitDenied {
			if reason == "" {
				kept = append(kept, j)
			} else {
				// Store is degraded; the request is dropped.
				e.log.Warn("scrape request rejected", "store", j.Store, "query", j.Query, "reason", reason)
				e.inflight.release(j.Fingerprint)
			}
			continue
		}
		j.Probe = adm == admitProbe
		e.start(j)
	}
	clear(e.pending[len(kept):])
	e.pending = kept
	return len(e.pending) > 0
}

// admitEntry tries to start a due product. Entries that cannot start are
// requeued: at the breaker's reopen time while the store cools down, or at
// their current due time otherwise. It reports whether the entry is waiting
// on a running job to free capacity.
func (e *Engine) admitEntry(ent *entry, now time.Time) bool {
	fp := domain.ProductFingerprint(ent.productID)
	if _, ok := e.extractors.Get(ent.store); !ok {
		e.log.Warn("no extractor for store, dropping product from schedule",
			"store", ent.store, "product_id", ent.productID)
		return false
	}

	adm, reason := e.acquire(ent.store, now)
	if adm == admitDenied {
		if at := e.breakers.reopenAt(ent.store); reason != "" && !at.IsZero() {
			ent.dueAt = maxTime(now, at)
			e.queue.upsert(ent)
			return false
		}
		// No capacity, or a probe is still running.
		e.queue.upsert(ent)
		return true
	}

	if !e.inflight.reserve(fp) {
		// Already running; completion reschedules it.
		e.releaseSlots(ent.store)
		e.breakers.release(ent.store, adm == admitProbe)
		return false
	}
	e.start(&job{
		ScrapeJob: domain.ScrapeJob{
			Fingerprint: fp,
			Store:       ent.store,
			ProductID:   ent.productID,
			URL:         ent.url,
			Probe:       adm == admitProbe,
		},
		target: extract.Target{URL: ent.url},
		entry:  ent,
	})
	return false
}

// acquire takes a global and a per-store slot and asks the store's breaker.
// A denial with an empty reason means no capacity.
func (e *Engine) acquire(storeName string, now time.Time) (admission, string) {
	if !e.global.TryAcquire(1) {
		metrics.SchedulerRejectedTotal.WithLabelValues("global_capacity").Inc()
		return admitDenied, ""
	}
	if !e.storeSemaphore(storeName).TryAcquire(1) {
		e.global.Release(1)
		metrics.SchedulerRejectedTotal.WithLabelValues("store_capacity").Inc()
		return admitDenied, ""
	}
	adm := e.breakers.allow(storeName, now)
	if adm == admitDenied {
		e.releaseSlots(storeName)
		metrics.SchedulerRejectedTotal.WithLabelValues("store_degraded").Inc()
		return admitDenied, "store degraded"
	}
	return adm, ""
}

func (e *Engine) releaseSlots(storeName string) {
	e.storeSemaphore(storeName).Release(1)
	e.global.Release(1)
}

// start launches a worker for j. Slots and the fingerprint are already held.
func (e *Engine) start(j *job) {
	j.StartedAt = e.now().UTC()
	ctx, cancel := context.WithCancel(e.jobsCtx)
	e.inflight.attach(j.Fingerprint, cancel)

	metrics.SchedulerInFlight.Inc()
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		out := e.work(ctx, j)
		cancel()
		e.results <- out
	}()
}

// complete returns a finished job's resources, feeds the breaker and
// reschedules product jobs.
func (e *Engine) complete(out *outcome) {
	j := out.job
	e.releaseSlots(j.Store)
	e.inflight.release(j.Fingerprint)
	metrics.SchedulerInFlight.Dec()

	cancelled := errors.Is(out.err, context.Canceled)
	switch {
	case out.err == nil:
		e.breakers.success(j.Store, j.Probe)
	case cancelled:
		e.breakers.release(j.Store, j.Probe)
	case extract.StoreFailure(out.err) && !errors.Is(out.err, errNoObservations):
		if e.breakers.failure(j.Store, e.now(), j.Probe) {
			e.log.Warn("store degraded",
				"store", j.Store,
				"probe", j.Probe,
				"error", out.err,
			)
		}
	case j.Probe:
		// The store answered; the product is what failed.
		e.breakers.success(j.Store, true)
	}

	if j.entry == nil || e.closing.Load() {
		return
	}
	stale := out.stale
	if cancelled {
		stale = j.entry.stale
	}
	if mark, ok := e.staleMarks[j.ProductID]; ok {
		stale = mark
		delete(e.staleMarks, j.ProductID)
	}
	ent := j.entry
	ent.stale = stale
	ent.dueAt = e.now().Add(e.jitter(e.effective(ent.interval, stale)))
	e.queue.upsert(ent)
}

// applySchedule replaces the queue contents with entries. Queued products
// keep their due time unless the new interval brings it forward.
func (e *Engine) applySchedule(entries []store.ScheduleEntry) {
	now := e.now()
	keep := make(map[string]struct{}, len(entries))

	for i := range entries {
		se := &entries[i]
		keep[se.ProductID] = struct{}{}
		if e.inflight.has(domain.ProductFingerprint(se.ProductID)) {
			continue
		}

		interval := e.interval(se.PollInterval, se.AlertPollInterval)
		due := now
		if se.LastCheckedAt != nil {
			due = se.LastCheckedAt.Add(e.jitter(e.effective(interval, se.Stale)))
		}
		if cur, ok := e.queue.get(se.ProductID); ok && cur.dueAt.Before(due) {
			due = cur.dueAt
		}
		e.queue.upsert(&entry{
			productID: se.ProductID,
			store:     se.Store,
			url:       se.URL,
			stale:     se.Stale,
			interval:  interval,
			dueAt:     due,
		})
	}

	for _, ent := range append([]*entry(nil), e.queue.items...) {
		if _, ok := keep[ent.productID]; !ok {
			e.queue.remove(ent.productID)
		}
	}
	metrics.SchedulerQueueDepth.Set(float64(e.queue.Len() + len(e.pending)))
}

// shutdown stops admission and waits for in-flight jobs, cancelling them
// once the drain timeout passes.
func (e *Engine) shutdown() error {
	e.closing.Store(true)
	for _, j := range e.pending {
		e.inflight.release(j.Fingerprint)
	}
	e.pending = nil

	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()

	e.log.Info("engine draining", "in_flight", e.inflight.len(), "timeout", e.cfg.DrainTimeout)

	var err error
	timer := time.NewTimer(e.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		e.log.Warn("drain timeout exceeded, cancelling in-flight jobs", "in_flight", e.inflight.len())
		err = ErrDrainTimeout
		e.cancelJobs()
		<-done
	}
	e.cancelJobs()

	for {
		select {
		case out := <-e.results:
			e.complete(out)
		default:
			e.log.Info("engine stopped")
			return err
		}
	}
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
