// Package store defines the datastore abstraction for retail-price-tracker.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOutOfOrder is returned when an observation is older than the
	// latest stored observation for the same product.
	ErrOutOfOrder = errors.New("observation out of order")
	// ErrConflict is returned when an alert changed state underneath a
	// conditional update.
	ErrConflict = errors.New("concurrent modification")
)

// ProductQuery defines optional filters for product listings.
type ProductQuery struct {
	Store     string
	Search    string // case-insensitive substring of canonical_name
	StaleOnly bool
	Limit     int // default 50
	Offset    int
}

// ScheduleEntry is the scheduling view of a tracked product. A product is
// tracked while it has an open alert or its own poll interval.
type ScheduleEntry struct {
	ProductID     string
	Store         string
	URL           string
	LastCheckedAt *time.Time
	PollInterval  time.Duration
	Stale         bool
	// AlertPollInterval is the tightest poll interval requested by the
	// product's open alerts, zero when none asked for one.
	AlertPollInterval time.Duration
}

// FailureResult reports the product's failure state after a failed scrape.
type FailureResult struct {
	ConsecutiveFailures int
	Stale               bool
	BecameStale         bool
}

// Store defines all data access operations for retail-price-tracker.
type Store interface {
	// Products
	UpsertProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	FindProductByRef(ctx context.Context, store, storeRef string) (*domain.Product, error)
	ListProductsByStore(ctx context.Context, store string) ([]domain.Product, error)
	ListProducts(ctx context.Context, q *ProductQuery) ([]domain.Product, int, error)
	RecordProductSuccess(ctx context.Context, id string, obs *domain.PriceObservation) error
	RecordProductFailure(ctx context.Context, id string, at time.Time, staleAfter int) (*FailureResult, error)
	SetProductStale(ctx context.Context, id string, stale bool) error
	ListSchedulableProducts(ctx context.Context) ([]ScheduleEntry, error)

	// Price history
	AppendObservation(ctx context.Context, o *domain.PriceObservation) error
	GetObservation(ctx context.Context, id string) (*domain.PriceObservation, error)
	LatestObservation(ctx context.Context, productID string) (*domain.PriceObservation, error)
	ListObservations(ctx context.Context, productID string, from, to time.Time, limit int) ([]domain.PriceObservation, error)

	// Alerts
	CreateAlert(ctx context.Context, a *domain.Alert, intent *domain.NotificationIntent) error
	GetAlert(ctx context.Context, id string) (*domain.Alert, error)
	ListOpenAlertsByProduct(ctx context.Context, productID string) ([]domain.Alert, error)
	ListAlertsByUser(ctx context.Context, userRef string) ([]domain.Alert, error)
	ListExpiredAlerts(ctx context.Context, now time.Time) ([]domain.Alert, error)
	CountOpenAlerts(ctx context.Context) (int, error)
	// CommitEvaluation persists an alert transition and its intent (if any)
	// atomically. The update only applies while the alert is still in
	// prevState; otherwise ErrConflict is returned and nothing is written.
	CommitEvaluation(
		ctx context.Context,
		prevState domain.AlertState,
		a *domain.Alert,
		intent *domain.NotificationIntent,
	) error

	// Notification outbox
	GetIntent(ctx context.Context, id string) (*domain.NotificationIntent, error)
	ListPendingIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error)
	ListFailedIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error)
	MarkIntentDelivered(ctx context.Context, id string, attempts int, at time.Time) error
	MarkIntentFailed(ctx context.Context, id string, attempts int, lastErr string) error

	// Stats
	GetStats(ctx context.Context, now time.Time) (*domain.Stats, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
