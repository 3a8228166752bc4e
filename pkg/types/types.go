// Package domain defines the core business types for the retail price tracker.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Availability represents the normalized stock state reported by a store.
type Availability string

// Availability constants.
const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityPreorder   Availability = "preorder"
	AvailabilityUnknown    Availability = "unknown"
)

// Product is a canonical tracked item at one store.
type Product struct {
	ID            string `json:"id"                    db:"id"`
	CanonicalName string `json:"canonical_name"        db:"canonical_name"`
	Store         string `json:"store"                 db:"store"`
	StoreRef      string `json:"store_ref"             db:"store_ref"`
	URL           string `json:"url,omitempty"         db:"url"`
	ImageURL      string `json:"image_url,omitempty"   db:"image_url"`
	Description   string `json:"description,omitempty" db:"description"`

	// Mutable tracking state
	LastKnownPrice      *decimal.Decimal `json:"last_known_price,omitempty" db:"last_known_price"`
	Currency            string           `json:"currency"                   db:"currency"`
	Availability        Availability     `json:"availability"               db:"availability"`
	LastCheckedAt       *time.Time       `json:"last_checked_at,omitempty"  db:"last_checked_at"`
	PollInterval        time.Duration    `json:"poll_interval"              db:"poll_interval_seconds"`
	ConsecutiveFailures int              `json:"consecutive_failures"       db:"consecutive_failures"`
	Stale               bool             `json:"stale"                      db:"stale"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RawObservation is an unnormalized record as returned by an extractor.
type RawObservation struct {
	Store            string    `json:"store"`
	Name             string    `json:"name"`
	PriceText        string    `json:"price_text"`
	Currency         string    `json:"currency,omitempty"`
	URL              string    `json:"url,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	AvailabilityText string    `json:"availability_text,omitempty"`
	Description      string    `json:"description,omitempty"`
	StoreProductID   string    `json:"store_product_id,omitempty"`
	ObservedAt       time.Time `json:"observed_at"`
}

// NormalizedObservation is a RawObservation after canonicalization,
// ready to be resolved to a Product and appended to history.
type NormalizedObservation struct {
	Store         string          `json:"store"`
	CanonicalName string          `json:"canonical_name"`
	StoreRef      string          `json:"store_ref"`
	URL           string          `json:"url,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Availability  Availability    `json:"availability"`
	ObservedAt    time.Time       `json:"observed_at"`
}

// Completeness counts the optional fields populated on the record.
func (o *NormalizedObservation) Completeness() int {
	n := 0
	for _, s := range []string{o.ImageURL, o.URL, o.Description} {
		if s != "" {
			n++
		}
	}
	if o.StoreRef != "" && o.StoreRef != o.URL {
		n++
	}
	if o.Availability != "" && o.Availability != AvailabilityUnknown {
		n++
	}
	return n
}

// PriceObservation is an immutable price sample for a product.
type PriceObservation struct {
	ID           string          `json:"id"                   db:"id"`
	ProductID    string          `json:"product_id"           db:"product_id"`
	Price        decimal.Decimal `json:"price"                db:"price"`
	Currency     string          `json:"currency"             db:"currency"`
	ObservedAt   time.Time       `json:"observed_at"          db:"observed_at"`
	Availability Availability    `json:"availability"         db:"availability"`
	SourceURL    string          `json:"source_url,omitempty" db:"source_url"`
}

// AlertState is the lifecycle state of an alert.
type AlertState string

// Alert state constants.
const (
	AlertActive    AlertState = "active"
	AlertTriggered AlertState = "triggered"
	AlertClosed    AlertState = "closed"
	AlertExpired   AlertState = "expired"
	AlertStopped   AlertState = "stopped"
)

// Terminal reports whether no further transitions are possible.
func (s AlertState) Terminal() bool {
	switch s {
	case AlertClosed, AlertExpired, AlertStopped:
		return true
	default:
		return false
	}
}

// Condition kinds understood by the evaluator's default predicates.
const (
	ConditionPriceAtOrBelow = "price_at_or_below"
	ConditionPercentDrop    = "percent_drop"
	ConditionBackInStock    = "back_in_stock"
)

// AlertSettings holds the user-configured trigger parameters.
type AlertSettings struct {
	Condition      string           `json:"condition"`
	Threshold      *decimal.Decimal `json:"threshold,omitempty"`
	DropPercent    float64          `json:"drop_percent,omitempty"`
	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty"`
	Recurring      bool             `json:"recurring"`
	PollInterval   time.Duration    `json:"poll_interval,omitempty"`

	// Contact
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Alert is a user's standing request to be notified about a product's price.
type Alert struct {
	ID        string        `json:"id"         db:"id"`
	UserRef   string        `json:"user_ref"   db:"user_ref"`
	ProductID string        `json:"product_id" db:"product_id"`
	Settings  AlertSettings `json:"settings"   db:"settings"`
	State     AlertState    `json:"state"      db:"state"`

	// ConditionMet is true while the last evaluated observation satisfied
	// the predicate. A notification fires only on the false -> true edge.
	ConditionMet bool `json:"condition_met" db:"condition_met"`

	LastEvaluatedObservationID string     `json:"last_evaluated_observation_id,omitempty" db:"last_evaluated_observation_id"`
	LastEvaluatedAt            *time.Time `json:"last_evaluated_at,omitempty"             db:"last_evaluated_at"`
	LastNotifiedAt             *time.Time `json:"last_notified_at,omitempty"              db:"last_notified_at"`
	StoppedAt                  *time.Time `json:"stopped_at,omitempty"                    db:"stopped_at"`
	ExpiresAt                  time.Time  `json:"expires_at"                              db:"expires_at"`
	CreatedAt                  time.Time  `json:"created_at"                              db:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"                              db:"updated_at"`
}

// IntentKind identifies the reason for a notification.
type IntentKind string

// Intent kind constants.
const (
	IntentPriceDropped    IntentKind = "price_dropped"
	IntentTrackingExpired IntentKind = "tracking_expired"
	IntentTrackingStopped IntentKind = "tracking_stopped"
	IntentTrackingStarted IntentKind = "tracking_started"
)

// IntentStatus is the delivery state of a notification intent.
type IntentStatus string

// Intent status constants.
const (
	IntentPending        IntentStatus = "pending"
	IntentDelivered      IntentStatus = "delivered"
	IntentDeliveryFailed IntentStatus = "delivery_failed"
)

// NotificationIntent is a request to notify a user, keyed deterministically
// so that replays collapse onto the same row.
type NotificationIntent struct {
	ID            string       `json:"id"                       db:"id"`
	AlertID       string       `json:"alert_id"                 db:"alert_id"`
	ObservationID string       `json:"observation_id,omitempty" db:"observation_id"`
	Kind          IntentKind   `json:"kind"                     db:"kind"`
	Status        IntentStatus `json:"status"                   db:"status"`
	Attempts      int          `json:"attempts"                 db:"attempts"`
	LastError     string       `json:"last_error,omitempty"     db:"last_error"`
	CreatedAt     time.Time    `json:"created_at"               db:"created_at"`
	DeliveredAt   *time.Time   `json:"delivered_at,omitempty"   db:"delivered_at"`
}

// IntentKey builds the idempotency key for an intent. Intents without an
// observation (stop, start, expiry) use "-" in that position.
func IntentKey(alertID string, kind IntentKind, observationID string) string {
	if observationID == "" {
		observationID = "-"
	}
	return alertID + "/" + string(kind) + "/" + observationID
}

// NewIntent returns a pending intent with its deterministic key set.
func NewIntent(alertID string, kind IntentKind, observationID string, now time.Time) *NotificationIntent {
	return &NotificationIntent{
		ID:            IntentKey(alertID, kind, observationID),
		AlertID:       alertID,
		ObservationID: observationID,
		Kind:          kind,
		Status:        IntentPending,
		CreatedAt:     now,
	}
}

// ScrapeJob is a unit of extraction work owned by the scheduler.
type ScrapeJob struct {
	Fingerprint string    `json:"fingerprint"`
	Store       string    `json:"store"`
	ProductID   string    `json:"product_id,omitempty"`
	URL         string    `json:"url,omitempty"`
	Query       string    `json:"query,omitempty"`
	Category    string    `json:"category,omitempty"`
	Probe       bool      `json:"probe,omitempty"`
	Attempt     int       `json:"attempt"`
	StartedAt   time.Time `json:"started_at"`
}

// ProductFingerprint identifies an in-flight refresh of a single product.
func ProductFingerprint(productID string) string {
	return "product:" + productID
}

// QueryFingerprint identifies an in-flight search against one store.
// The query is expected to already be normalized.
func QueryFingerprint(store, query, category string) string {
	var b strings.Builder
	b.WriteString("query:")
	b.WriteString(store)
	b.WriteString(":")
	b.WriteString(query)
	if category != "" {
		b.WriteString(":")
		b.WriteString(category)
	}
	return b.String()
}

// Stats is an aggregate snapshot of the tracker.
type Stats struct {
	TotalProducts     int      `json:"total_products"`
	StaleProducts     int      `json:"stale_products"`
	ActiveAlerts      int      `json:"active_alerts"`
	TotalUsers        int      `json:"total_users"`
	ObservationsToday int      `json:"observations_today"`
	PendingIntents    int      `json:"pending_intents"`
	DeliveryFailures  int      `json:"delivery_failures"`
	DegradedStores    []string `json:"degraded_stores,omitempty"`
}

// Trend summarizes a product's price history over a window.
type Trend struct {
	ProductID string          `json:"product_id"`
	Window    time.Duration   `json:"window"`
	Samples   int             `json:"samples"`
	Currency  string          `json:"currency,omitempty"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Average   decimal.Decimal `json:"average"`
	First     decimal.Decimal `json:"first"`
	Last      decimal.Decimal `json:"last"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
}
