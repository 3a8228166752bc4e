package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ErrQueueFull is returned by Enqueue when the in-memory queue is at
// capacity. The intent stays pending in the outbox and is picked up by the
// next Recover.
var ErrQueueFull = errors.New("notification queue full")

const tracerName = "github.com/donaldgifford/retail-price-tracker/internal/notify"

// DispatcherConfig tunes delivery.
type DispatcherConfig struct {
	QueueSize       int
	Workers         int
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RecoverInterval is how often Run reloads pending intents from the
	// outbox. Zero disables the periodic sweep.
	RecoverInterval time.Duration
}

func (c *DispatcherConfig) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = time.Minute
	}
}

// Dispatcher drains notification intents from the outbox to a Transport
// with at-least-once semantics. It never changes alert state.
type Dispatcher struct {
	store     store.Store
	transport Transport
	cfg       DispatcherConfig
	log       *slog.Logger
	now       func() time.Time

	queue chan string

	mu      sync.Mutex
	pending map[string]struct{}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithNowFunc overrides the clock.
func WithNowFunc(fn func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = fn }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(s store.Store, t Transport, cfg DispatcherConfig, opts ...DispatcherOption) *Dispatcher {
	cfg.applyDefaults()
	d := &Dispatcher{
		store:     s,
		transport: t,
		cfg:       cfg,
		log:       slog.Default(),
		now:       time.Now,
		queue:     make(chan string, cfg.QueueSize),
		pending:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue schedules a committed intent for delivery. Intents already queued
// or being delivered are ignored.
func (d *Dispatcher) Enqueue(_ context.Context, in *domain.NotificationIntent) error {
	_, err := d.add(in.ID)
	return err
}

// add reports whether id took a queue slot.
func (d *Dispatcher) add(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[id]; ok {
		return false, nil
	}
	select {
	case d.queue <- id:
		d.pending[id] = struct{}{}
		metrics.NotificationQueueDepth.Set(float64(len(d.queue)))
		return true, nil
	default:
		return false, ErrQueueFull
	}
}

// Recover queues pending intents found in the outbox, up to the free queue
// capacity. It runs at startup and periodically so that intents dropped by a
// full queue or a crash are eventually delivered.
func (d *Dispatcher) Recover(ctx context.Context) (int, error) {
	d.mu.Lock()
	known := len(d.pending)
	free := cap(d.queue) - len(d.queue)
	d.mu.Unlock()
	if free <= 0 {
		return 0, nil
	}

	// Intents already queued or in flight are still pending in the outbox
	// and come back first, so list past them.
	intents, err := d.store.ListPendingIntents(ctx, free+known)
	if err != nil {
		return 0, fmt.Errorf("listing pending intents: %w", err)
	}

	queued := 0
	for i := range intents {
		if queued == free {
			break
		}
		added, err := d.add(intents[i].ID)
		if err != nil {
			break
		}
		if added {
			queued++
		}
	}
	if queued > 0 {
		d.log.Info("recovered pending notifications", "count", queued)
	}
	return queued, nil
}

// Deliver drains what is currently queued on the calling goroutine and
// returns the number of intents delivered.
func (d *Dispatcher) Deliver(ctx context.Context) int {
	delivered := 0
	for {
		select {
		case id := <-d.queue:
			if d.process(ctx, id) {
				delivered++
			}
		default:
			return delivered
		}
	}
}

// Run delivers queued intents with cfg.Workers goroutines until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for range d.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-d.queue:
					d.process(ctx, id)
				}
			}
		}()
	}

	if d.cfg.RecoverInterval > 0 {
		ticker := time.NewTicker(d.cfg.RecoverInterval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				if _, err := d.Recover(ctx); err != nil && ctx.Err() == nil {
					d.log.Error("recovering notifications", "error", err)
				}
			}
		}
	}

	wg.Wait()
}

func (d *Dispatcher) process(ctx context.Context, id string) bool {
	defer func() {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		metrics.NotificationQueueDepth.Set(float64(len(d.queue)))
	}()

	ok, err := d.deliverOne(ctx, id)
	if err != nil && ctx.Err() == nil {
		d.log.Error("delivering notification", "intent_id", id, "error", err)
	}
	return ok
}

func (d *Dispatcher) deliverOne(ctx context.Context, id string) (bool, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "notify.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("intent.id", id))

	in, err := d.store.GetIntent(ctx, id)
	if err != nil {
		return false, fmt.Errorf("loading intent: %w", err)
	}
	if in.Status != domain.IntentPending {
		return false, nil
	}
	span.SetAttributes(attribute.String("intent.kind", string(in.Kind)))

	n, err := Render(ctx, d.store, in)
	if err != nil {
		return false, d.fail(ctx, in, in.Attempts, err)
	}

	attempts := in.Attempts
	op := func() error {
		attempts++
		metrics.NotificationAttemptsTotal.Inc()
		return d.transport.Send(ctx, n)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.cfg.InitialInterval
	eb.MaxInterval = d.cfg.MaxInterval
	eb.MaxElapsedTime = 0
	remaining := max(d.cfg.MaxAttempts-in.Attempts, 1)
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(remaining-1)), ctx)

	err = backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		d.log.Warn("notification attempt failed",
			"intent_id", in.ID,
			"transport", d.transport.Name(),
			"attempt", attempts,
			"retry_in", wait,
			"error", err,
		)
	})
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown: leave the intent pending for the next start.
			return false, ctx.Err()
		}
		span.SetStatus(codes.Error, err.Error())
		return false, d.fail(ctx, in, attempts, err)
	}

	if err := d.store.MarkIntentDelivered(ctx, in.ID, attempts, d.now().UTC()); err != nil {
		return false, fmt.Errorf("marking intent delivered: %w", err)
	}
	metrics.NotificationsDeliveredTotal.WithLabelValues(string(in.Kind)).Inc()
	d.log.Info("notification delivered",
		"intent_id", in.ID,
		"kind", in.Kind,
		"transport", d.transport.Name(),
		"attempts", attempts,
	)
	return true, nil
}

// fail records an abandoned delivery. Alert state is left untouched.
func (d *Dispatcher) fail(ctx context.Context, in *domain.NotificationIntent, attempts int, cause error) error {
	metrics.NotificationFailuresTotal.WithLabelValues(string(in.Kind)).Inc()
	d.log.Error("DeliveryFailed",
		"intent_id", in.ID,
		"alert_id", in.AlertID,
		"kind", in.Kind,
		"attempts", attempts,
		"error", cause,
	)
	if err := d.store.MarkIntentFailed(ctx, in.ID, attempts, cause.Error()); err != nil {
		return fmt.Errorf("marking intent failed: %w", err)
	}
	return nil
}
