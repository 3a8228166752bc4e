// Package alert evaluates price observations against user alerts and drives
// the alert lifecycle: active, triggered, then active again for recurring
// alerts or closed otherwise; expired and stopped are terminal.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/retail-price-tracker/internal/keylock"
	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// DefaultDuration is how long an alert tracks a product when the caller
// does not set an expiry.
const DefaultDuration = 7 * 24 * time.Hour

var (
	// ErrInvalidAlert wraps alert validation failures.
	ErrInvalidAlert = errors.New("invalid alert")
	// ErrTerminal is returned when stopping an alert that already closed
	// or expired.
	ErrTerminal = errors.New("alert is no longer active")
)

// Sink receives intents after they are committed to the outbox.
type Sink interface {
	Enqueue(ctx context.Context, intent *domain.NotificationIntent) error
}

// Evaluator applies observations to alerts. Work on one alert is
// serialized; different alerts proceed in parallel.
type Evaluator struct {
	store      store.Store
	sink       Sink
	predicates *Predicates
	log        *slog.Logger
	now        func() time.Time

	defaultDuration time.Duration
	locks           keylock.Map
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithNowFunc overrides the clock.
func WithNowFunc(fn func() time.Time) Option {
	return func(e *Evaluator) { e.now = fn }
}

// WithPredicates replaces the condition registry.
func WithPredicates(p *Predicates) Option {
	return func(e *Evaluator) { e.predicates = p }
}

// WithDefaultDuration sets the tracking duration used when an alert has no
// expiry.
func WithDefaultDuration(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.defaultDuration = d
		}
	}
}

// NewEvaluator creates an Evaluator that commits to s and hands intents to sink.
func NewEvaluator(s store.Store, sink Sink, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:           s,
		sink:            sink,
		predicates:      NewPredicates(),
		log:             slog.Default(),
		now:             time.Now,
		defaultDuration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predicates returns the condition registry.
func (e *Evaluator) Predicates() *Predicates {
	return e.predicates
}

// Start validates and persists a new alert together with its
// tracking_started intent.
func (e *Evaluator) Start(ctx context.Context, a *domain.Alert) error {
	now := e.now().UTC()

	if err := e.prepare(ctx, a, now); err != nil {
		return err
	}

	intent := domain.NewIntent("", domain.IntentTrackingStarted, "", now)
	if err := e.store.CreateAlert(ctx, a, intent); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}

	e.log.Info("alert started",
		"alert_id", a.ID,
		"product_id", a.ProductID,
		"user", a.UserRef,
		"condition", a.Settings.Condition,
		"expires_at", a.ExpiresAt,
	)
	e.enqueue(ctx, intent)
	return nil
}

func (e *Evaluator) prepare(ctx context.Context, a *domain.Alert, now time.Time) error {
	if a.UserRef == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidAlert)
	}
	if a.ProductID == "" {
		return fmt.Errorf("%w: product is required", ErrInvalidAlert)
	}
	if a.Settings.Condition == "" {
		a.Settings.Condition = domain.ConditionPriceAtOrBelow
	}
	if a.Settings.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrInvalidAlert)
	}

	pred, err := e.predicates.Get(a.Settings.Condition)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAlert, err)
	}

	product, err := e.store.GetProduct(ctx, a.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: product %s does not exist", ErrInvalidAlert, a.ProductID)
		}
		return fmt.Errorf("loading product: %w", err)
	}
	if a.Settings.Condition == domain.ConditionPercentDrop && a.Settings.ReferencePrice == nil {
		a.Settings.ReferencePrice = product.LastKnownPrice
	}

	if err := pred.Validate(&a.Settings); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAlert, err)
	}

	if a.ExpiresAt.IsZero() {
		a.ExpiresAt = now.Add(e.defaultDuration)
	}
	if !a.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expiry %s is in the past", ErrInvalidAlert, a.ExpiresAt)
	}

	a.State = domain.AlertActive
	a.ConditionMet = false
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// Evaluate applies obs to every open alert of its product. It returns the
// number of price_dropped intents emitted. Errors on individual alerts are
// joined; the remaining alerts are still evaluated.
func (e *Evaluator) Evaluate(ctx context.Context, obs *domain.PriceObservation) (int, error) {
	alerts, err := e.store.ListOpenAlertsByProduct(ctx, obs.ProductID)
	if err != nil {
		return 0, fmt.Errorf("listing alerts for %s: %w", obs.ProductID, err)
	}

	var (
		fired int
		errs  []error
	)
	for i := range alerts {
		ok, err := e.evaluateOne(ctx, alerts[i].ID, obs)
		if err != nil {
			errs = append(errs, fmt.Errorf("alert %s: %w", alerts[i].ID, err))
			continue
		}
		if ok {
			fired++
		}
	}
	return fired, errors.Join(errs...)
}

func (e *Evaluator) evaluateOne(ctx context.Context, alertID string, obs *domain.PriceObservation) (bool, error) {
	unlock := e.locks.Lock(alertID)
	defer unlock()

	// Reload under the lock; the listed copy may be stale.
	a, err := e.store.GetAlert(ctx, alertID)
	if err != nil {
		return false, err
	}

	if a.State == domain.AlertTriggered {
		if err := e.finishTrigger(ctx, a); err != nil {
			return false, err
		}
	}
	if a.State.Terminal() {
		return false, nil
	}

	if a.LastEvaluatedObservationID == obs.ID ||
		(a.LastEvaluatedAt != nil && obs.ObservedAt.Before(*a.LastEvaluatedAt)) {
		e.log.Debug("skipping replayed observation",
			"alert_id", a.ID,
			"observation_id", obs.ID,
		)
		return false, nil
	}

	now := e.now().UTC()
	if !now.Before(a.ExpiresAt) {
		return false, e.expire(ctx, a, now)
	}

	pred, err := e.predicates.Get(a.Settings.Condition)
	if err != nil {
		return false, err
	}
	metrics.AlertsEvaluatedTotal.Inc()

	met := pred.Satisfied(&a.Settings, obs)
	prev := a.State
	observedAt := obs.ObservedAt
	a.LastEvaluatedObservationID = obs.ID
	a.LastEvaluatedAt = &observedAt
	a.UpdatedAt = now

	if !met || a.ConditionMet {
		// Not satisfied re-arms the alert; still satisfied stays quiet.
		a.ConditionMet = met
		return false, e.store.CommitEvaluation(ctx, prev, a, nil)
	}

	a.State = domain.AlertTriggered
	a.ConditionMet = true
	a.LastNotifiedAt = &now
	intent := domain.NewIntent(a.ID, domain.IntentPriceDropped, obs.ID, now)
	if err := e.store.CommitEvaluation(ctx, prev, a, intent); err != nil {
		return false, err
	}

	metrics.AlertsFiredTotal.WithLabelValues(string(domain.IntentPriceDropped)).Inc()
	e.log.Info("alert triggered",
		"alert_id", a.ID,
		"product_id", a.ProductID,
		"price", obs.Price.String(),
		"observation_id", obs.ID,
		"recurring", a.Settings.Recurring,
	)
	e.enqueue(ctx, intent)

	return true, e.finishTrigger(ctx, a)
}

// finishTrigger moves a triggered alert to active (recurring) or closed.
func (e *Evaluator) finishTrigger(ctx context.Context, a *domain.Alert) error {
	a.State = domain.AlertClosed
	if a.Settings.Recurring {
		a.State = domain.AlertActive
	}
	a.UpdatedAt = e.now().UTC()
	if err := e.store.CommitEvaluation(ctx, domain.AlertTriggered, a, nil); err != nil {
		return fmt.Errorf("finishing trigger: %w", err)
	}
	return nil
}

func (e *Evaluator) expire(ctx context.Context, a *domain.Alert, now time.Time) error {
	prev := a.State
	a.State = domain.AlertExpired
	a.UpdatedAt = now
	intent := domain.NewIntent(a.ID, domain.IntentTrackingExpired, "", now)
	if err := e.store.CommitEvaluation(ctx, prev, a, intent); err != nil {
		return fmt.Errorf("expiring alert: %w", err)
	}

	metrics.AlertsFiredTotal.WithLabelValues(string(domain.IntentTrackingExpired)).Inc()
	e.log.Info("alert expired", "alert_id", a.ID, "product_id", a.ProductID)
	e.enqueue(ctx, intent)
	return nil
}

// SweepExpired expires every open alert whose expiry has passed. It returns
// the number of alerts expired.
func (e *Evaluator) SweepExpired(ctx context.Context) (int, error) {
	now := e.now().UTC()
	due, err := e.store.ListExpiredAlerts(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing expired alerts: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for i := range due {
		ok, err := e.sweepOne(ctx, due[i].ID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("alert %s: %w", due[i].ID, err))
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, errors.Join(errs...)
}

func (e *Evaluator) sweepOne(ctx context.Context, alertID string, now time.Time) (bool, error) {
	unlock := e.locks.Lock(alertID)
	defer unlock()

	a, err := e.store.GetAlert(ctx, alertID)
	if err != nil {
		return false, err
	}
	if a.State.Terminal() || now.Before(a.ExpiresAt) {
		return false, nil
	}
	return true, e.expire(ctx, a, now)
}

// Stop ends tracking at the user's request and emits one tracking_stopped
// intent. Stopping an already stopped alert returns it unchanged.
func (e *Evaluator) Stop(ctx context.Context, alertID string) (*domain.Alert, error) {
	unlock := e.locks.Lock(alertID)
	defer unlock()

	a, err := e.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	switch a.State {
	case domain.AlertStopped:
		return a, nil
	case domain.AlertClosed, domain.AlertExpired:
		return a, fmt.Errorf("%w: %s", ErrTerminal, a.State)
	}

	now := e.now().UTC()
	prev := a.State
	a.State = domain.AlertStopped
	a.StoppedAt = &now
	a.UpdatedAt = now
	intent := domain.NewIntent(a.ID, domain.IntentTrackingStopped, "", now)
	if err := e.store.CommitEvaluation(ctx, prev, a, intent); err != nil {
		return nil, fmt.Errorf("stopping alert: %w", err)
	}

	metrics.AlertsFiredTotal.WithLabelValues(string(domain.IntentTrackingStopped)).Inc()
	e.log.Info("alert stopped", "alert_id", a.ID, "user", a.UserRef)
	e.enqueue(ctx, intent)
	return a, nil
}

// enqueue hands a committed intent to the sink. A failure only delays
// delivery; the dispatcher recovers pending intents from the outbox.
func (e *Evaluator) enqueue(ctx context.Context, intent *domain.NotificationIntent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Enqueue(ctx, intent); err != nil {
		e.log.Warn("enqueueing notification intent",
			"intent_id", intent.ID,
			"error", err,
		)
	}
}
