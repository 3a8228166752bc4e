package alert

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// ErrUnknownCondition is returned for a condition with no registered predicate.
var ErrUnknownCondition = errors.New("unknown alert condition")

// Predicate reports whether an observation satisfies an alert's settings.
type Predicate interface {
	// Validate checks the settings when an alert is created.
	Validate(s *domain.AlertSettings) error
	// Satisfied evaluates one observation.
	Satisfied(s *domain.AlertSettings, obs *domain.PriceObservation) bool
}

// Predicates is a registry of condition kinds.
type Predicates struct {
	mu sync.RWMutex
	m  map[string]Predicate
}

// NewPredicates returns a registry holding the built-in conditions.
func NewPredicates() *Predicates {
	p := &Predicates{m: make(map[string]Predicate)}
	p.Register(domain.ConditionPriceAtOrBelow, PriceAtOrBelow{})
	p.Register(domain.ConditionPercentDrop, PercentDrop{})
	p.Register(domain.ConditionBackInStock, BackInStock{})
	return p
}

// Register adds or replaces the predicate for a condition kind.
func (p *Predicates) Register(kind string, pred Predicate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[kind] = pred
}

// Get returns the predicate for a condition kind.
func (p *Predicates) Get(kind string) (Predicate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pred, ok := p.m[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, kind)
	}
	return pred, nil
}

// PriceAtOrBelow fires when the price reaches the threshold.
type PriceAtOrBelow struct{}

// Validate requires a positive threshold.
func (PriceAtOrBelow) Validate(s *domain.AlertSettings) error {
	if s.Threshold == nil || !s.Threshold.IsPositive() {
		return errors.New("threshold must be a positive price")
	}
	return nil
}

// Satisfied reports price <= threshold.
func (PriceAtOrBelow) Satisfied(s *domain.AlertSettings, obs *domain.PriceObservation) bool {
	return s.Threshold != nil && obs.Price.LessThanOrEqual(*s.Threshold)
}

// PercentDrop fires when the price falls DropPercent below the reference.
type PercentDrop struct{}

// Validate requires a reference price and a percentage in (0, 100).
func (PercentDrop) Validate(s *domain.AlertSettings) error {
	var errs []error
	if s.DropPercent <= 0 || s.DropPercent >= 100 {
		errs = append(errs, errors.New("drop_percent must be between 0 and 100"))
	}
	if s.ReferencePrice == nil || !s.ReferencePrice.IsPositive() {
		errs = append(errs, errors.New("reference price must be positive"))
	}
	return errors.Join(errs...)
}

// Satisfied reports price <= reference * (1 - drop/100).
func (PercentDrop) Satisfied(s *domain.AlertSettings, obs *domain.PriceObservation) bool {
	if s.ReferencePrice == nil {
		return false
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(s.DropPercent).Div(decimal.NewFromInt(100)))
	return obs.Price.LessThanOrEqual(s.ReferencePrice.Mul(factor))
}

// BackInStock fires when the product becomes available.
type BackInStock struct{}

// Validate accepts any settings.
func (BackInStock) Validate(*domain.AlertSettings) error { return nil }

// Satisfied reports whether the observation is in stock.
func (BackInStock) Satisfied(_ *domain.AlertSettings, obs *domain.PriceObservation) bool {
	return obs.Availability == domain.AvailabilityInStock
}
