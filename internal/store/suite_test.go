package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// storeFactory returns a fresh, migrated, empty store.
type storeFactory func(t *testing.T) store.Store

// runStoreSuite exercises the Store contract against one backend.
func runStoreSuite(t *testing.T, newStore storeFactory, parallel bool) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"upsert product", testUpsertProduct},
		{"list products", testListProducts},
		{"product failures", testProductFailures},
		{"observation ordering", testObservationOrdering},
		{"alert lifecycle", testAlertLifecycle},
		{"commit evaluation conflict", testCommitConflict},
		{"intent idempotency", testIntentIdempotency},
		{"intent delivery", testIntentDelivery},
		{"schedulable products", testSchedulableProducts},
		{"stats", testStats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if parallel {
				t.Parallel()
			}
			tt.fn(t, newStore(t))
		})
	}
}

func seedProduct(t *testing.T, s store.Store, storeName, ref string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		CanonicalName: "samsung galaxy s24 128gb " + ref,
		Store:         storeName,
		StoreRef:      ref,
		URL:           "https://" + storeName + ".example/p/" + ref,
		Currency:      "ILS",
	}
	require.NoError(t, s.UpsertProduct(context.Background(), p))
	return p
}

func seedObservation(t *testing.T, s store.Store, productID, price string, at time.Time) *domain.PriceObservation {
	t.Helper()
	o := &domain.PriceObservation{
		ProductID:    productID,
		Price:        decimal.RequireFromString(price),
		Currency:     "ILS",
		ObservedAt:   at,
		Availability: domain.AvailabilityInStock,
	}
	require.NoError(t, s.AppendObservation(context.Background(), o))
	return o
}

func newAlert(productID, user string) *domain.Alert {
	threshold := decimal.RequireFromString("135")
	return &domain.Alert{
		UserRef:   user,
		ProductID: productID,
		Settings: domain.AlertSettings{
			Condition:    domain.ConditionPriceAtOrBelow,
			Threshold:    &threshold,
			PollInterval: 30 * time.Minute,
			Email:        user + "@example.com",
		},
		State:     domain.AlertActive,
		ExpiresAt: base.Add(7 * 24 * time.Hour),
		CreatedAt: base,
	}
}

func testUpsertProduct(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := seedProduct(t, s, "ksp", "id:100")
	require.NotEmpty(t, p.ID)

	again := &domain.Product{
		CanonicalName: "ignored on conflict",
		Store:         "ksp",
		StoreRef:      "id:100",
		ImageURL:      "https://ksp.example/img/100.jpg",
		Currency:      "ILS",
	}
	require.NoError(t, s.UpsertProduct(ctx, again))
	assert.Equal(t, p.ID, again.ID)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CanonicalName, got.CanonicalName)
	assert.Equal(t, p.URL, got.URL, "empty url must not overwrite")
	assert.Equal(t, "https://ksp.example/img/100.jpg", got.ImageURL)
	assert.Equal(t, domain.AvailabilityUnknown, got.Availability)
	assert.Nil(t, got.LastKnownPrice)

	byRef, err := s.FindProductByRef(ctx, "ksp", "id:100")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byRef.ID)

	_, err = s.FindProductByRef(ctx, "ksp", "id:missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetProduct(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListProducts(t *testing.T, s store.Store) {
	ctx := context.Background()

	seedProduct(t, s, "ksp", "id:1")
	seedProduct(t, s, "ksp", "id:2")
	stale := seedProduct(t, s, "bug", "id:3")
	require.NoError(t, s.SetProductStale(ctx, stale.ID, true))

	byStore, err := s.ListProductsByStore(ctx, "ksp")
	require.NoError(t, err)
	assert.Len(t, byStore, 2)

	products, total, err := s.ListProducts(ctx, &store.ProductQuery{Store: "ksp", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, products, 1)

	products, total, err = s.ListProducts(ctx, &store.ProductQuery{StaleOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, stale.ID, products[0].ID)
	assert.True(t, products[0].Stale)

	_, total, err = s.ListProducts(ctx, &store.ProductQuery{Search: "GALAXY"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	assert.ErrorIs(t, s.SetProductStale(ctx, "00000000-0000-0000-0000-000000000000", true), store.ErrNotFound)
}

func testProductFailures(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:fail")

	res, err := s.RecordProductFailure(ctx, p.ID, base, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ConsecutiveFailures)
	assert.False(t, res.Stale)

	_, err = s.RecordProductFailure(ctx, p.ID, base.Add(time.Minute), 3)
	require.NoError(t, err)

	res, err = s.RecordProductFailure(ctx, p.ID, base.Add(2*time.Minute), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ConsecutiveFailures)
	assert.True(t, res.Stale)
	assert.True(t, res.BecameStale)

	res, err = s.RecordProductFailure(ctx, p.ID, base.Add(3*time.Minute), 3)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.False(t, res.BecameStale, "already stale")

	obs := &domain.PriceObservation{
		Price:        decimal.RequireFromString("99.90"),
		Currency:     "ILS",
		ObservedAt:   base.Add(time.Hour),
		Availability: domain.AvailabilityInStock,
	}
	require.NoError(t, s.RecordProductSuccess(ctx, p.ID, obs))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ConsecutiveFailures)
	assert.False(t, got.Stale)
	require.NotNil(t, got.LastKnownPrice)
	assert.True(t, decimal.RequireFromString("99.90").Equal(*got.LastKnownPrice))
	require.NotNil(t, got.LastCheckedAt)
	assert.True(t, base.Add(time.Hour).Equal(*got.LastCheckedAt))
	assert.Equal(t, domain.AvailabilityInStock, got.Availability)

	_, err = s.RecordProductFailure(ctx, "00000000-0000-0000-0000-000000000000", base, 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testObservationOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:hist")

	_, err := s.LatestObservation(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := seedObservation(t, s, p.ID, "150", base)
	seedObservation(t, s, p.ID, "140", base.Add(time.Hour))
	// Equal timestamps are accepted and keep append order.
	last := seedObservation(t, s, p.ID, "130", base.Add(time.Hour))

	older := &domain.PriceObservation{
		ProductID:    p.ID,
		Price:        decimal.RequireFromString("120"),
		Currency:     "ILS",
		ObservedAt:   base.Add(30 * time.Minute),
		Availability: domain.AvailabilityInStock,
	}
	assert.ErrorIs(t, s.AppendObservation(ctx, older), store.ErrOutOfOrder)

	latest, err := s.LatestObservation(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)

	byID, err := s.GetObservation(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(byID.Price))
	assert.True(t, base.Equal(byID.ObservedAt))

	_, err = s.GetObservation(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.True(t, decimal.NewFromInt(130).Equal(latest.Price))

	all, err := s.ListObservations(ctx, p.ID, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, last.ID, all[2].ID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].ObservedAt.Before(all[i-1].ObservedAt))
	}

	window, err := s.ListObservations(ctx, p.ID, base.Add(time.Minute), base.Add(2*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.True(t, decimal.NewFromInt(140).Equal(window[0].Price))
}

func testAlertLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:alert")

	a := newAlert(p.ID, "dana")
	start := domain.NewIntent("", domain.IntentTrackingStarted, "", base)
	require.NoError(t, s.CreateAlert(ctx, a, start))
	require.NotEmpty(t, a.ID)
	assert.Equal(t, domain.IntentKey(a.ID, domain.IntentTrackingStarted, ""), start.ID)

	got, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertActive, got.State)
	assert.Equal(t, "dana@example.com", got.Settings.Email)
	assert.Equal(t, 30*time.Minute, got.Settings.PollInterval)
	require.NotNil(t, got.Settings.Threshold)
	assert.True(t, decimal.NewFromInt(135).Equal(*got.Settings.Threshold))
	assert.True(t, a.ExpiresAt.Equal(got.ExpiresAt))

	intent, err := s.GetIntent(ctx, start.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPending, intent.Status)

	open, err := s.ListOpenAlertsByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	byUser, err := s.ListAlertsByUser(ctx, "dana")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	count, err := s.CountOpenAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, err := s.ListExpiredAlerts(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)

	expired, err = s.ListExpiredAlerts(ctx, a.ExpiresAt)
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	now := base.Add(2 * time.Hour)
	got.State = domain.AlertStopped
	got.StoppedAt = &now
	got.UpdatedAt = now
	stop := domain.NewIntent(got.ID, domain.IntentTrackingStopped, "", now)
	require.NoError(t, s.CommitEvaluation(ctx, domain.AlertActive, got, stop))

	open, err = s.ListOpenAlertsByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	stopped, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStopped, stopped.State)
	require.NotNil(t, stopped.StoppedAt)
	assert.True(t, now.Equal(*stopped.StoppedAt))

	_, err = s.GetAlert(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testCommitConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:conflict")
	a := newAlert(p.ID, "lior")
	require.NoError(t, s.CreateAlert(ctx, a, nil))

	a.State = domain.AlertTriggered
	a.ConditionMet = true
	a.UpdatedAt = base.Add(time.Minute)
	intent := domain.NewIntent(a.ID, domain.IntentPriceDropped, "obs-1", base)

	// The stored alert is active, not triggered.
	err := s.CommitEvaluation(ctx, domain.AlertTriggered, a, intent)
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = s.GetIntent(ctx, intent.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "intent must roll back with the alert")

	require.NoError(t, s.CommitEvaluation(ctx, domain.AlertActive, a, intent))
	got, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertTriggered, got.State)
	assert.True(t, got.ConditionMet)
}

func testIntentIdempotency(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:idem")
	a := newAlert(p.ID, "noa")
	a.Settings.Recurring = true
	require.NoError(t, s.CreateAlert(ctx, a, nil))

	for range 2 {
		a.UpdatedAt = base.Add(time.Minute)
		intent := domain.NewIntent(a.ID, domain.IntentPriceDropped, "obs-7", base)
		require.NoError(t, s.CommitEvaluation(ctx, domain.AlertActive, a, intent))
	}

	pending, err := s.ListPendingIntents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func testIntentDelivery(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := seedProduct(t, s, "ksp", "id:deliver")
	a := newAlert(p.ID, "omer")
	require.NoError(t, s.CreateAlert(ctx, a, domain.NewIntent("", domain.IntentTrackingStarted, "", base)))

	a.State = domain.AlertTriggered
	a.UpdatedAt = base.Add(time.Minute)
	drop := domain.NewIntent(a.ID, domain.IntentPriceDropped, "obs-1", base.Add(time.Minute))
	require.NoError(t, s.CommitEvaluation(ctx, domain.AlertActive, a, drop))

	pending, err := s.ListPendingIntents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.IntentTrackingStarted, pending[0].Kind, "oldest first")

	deliveredAt := base.Add(2 * time.Minute)
	require.NoError(t, s.MarkIntentDelivered(ctx, pending[0].ID, 1, deliveredAt))
	require.NoError(t, s.MarkIntentFailed(ctx, drop.ID, 5, "webhook: 500"))

	pending, err = s.ListPendingIntents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	failed, err := s.ListFailedIntents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 5, failed[0].Attempts)
	assert.Equal(t, "webhook: 500", failed[0].LastError)

	delivered, err := s.GetIntent(ctx, domain.IntentKey(a.ID, domain.IntentTrackingStarted, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.True(t, deliveredAt.Equal(*delivered.DeliveredAt))
}

func testSchedulableProducts(t *testing.T, s store.Store) {
	ctx := context.Background()
	tracked := seedProduct(t, s, "ksp", "id:tracked")
	seedProduct(t, s, "ksp", "id:untracked")
	polled := &domain.Product{
		CanonicalName: "logitech mx master 3s",
		Store:         "bug",
		StoreRef:      "id:polled",
		URL:           "https://bug.example/p/polled",
		Currency:      "ILS",
		PollInterval:  6 * time.Hour,
	}
	require.NoError(t, s.UpsertProduct(ctx, polled))

	fast := newAlert(tracked.ID, "a")
	fast.Settings.PollInterval = 10 * time.Minute
	require.NoError(t, s.CreateAlert(ctx, fast, nil))
	require.NoError(t, s.CreateAlert(ctx, newAlert(tracked.ID, "b"), nil))

	entries, err := s.ListSchedulableProducts(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := make(map[string]store.ScheduleEntry, len(entries))
	for _, e := range entries {
		byID[e.ProductID] = e
	}
	alerted, ok := byID[tracked.ID]
	require.True(t, ok)
	assert.Equal(t, "ksp", alerted.Store)
	assert.Equal(t, 10*time.Minute, alerted.AlertPollInterval)
	assert.Nil(t, alerted.LastCheckedAt)

	own, ok := byID[polled.ID]
	require.True(t, ok, "a product with its own poll interval is scheduled without alerts")
	assert.Equal(t, 6*time.Hour, own.PollInterval)
	assert.Zero(t, own.AlertPollInterval)
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	p1 := seedProduct(t, s, "ksp", "id:s1")
	p2 := seedProduct(t, s, "bug", "id:s2")
	require.NoError(t, s.SetProductStale(ctx, p2.ID, true))

	seedObservation(t, s, p1.ID, "100", base.Add(-36*time.Hour))
	seedObservation(t, s, p1.ID, "90", base)

	require.NoError(t, s.CreateAlert(ctx, newAlert(p1.ID, "u1"), domain.NewIntent("", domain.IntentTrackingStarted, "", base)))
	require.NoError(t, s.CreateAlert(ctx, newAlert(p2.ID, "u1"), nil))
	require.NoError(t, s.CreateAlert(ctx, newAlert(p2.ID, "u2"), nil))

	st, err := s.GetStats(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalProducts)
	assert.Equal(t, 1, st.StaleProducts)
	assert.Equal(t, 3, st.ActiveAlerts)
	assert.Equal(t, 2, st.TotalUsers)
	assert.Equal(t, 1, st.ObservationsToday)
	assert.Equal(t, 1, st.PendingIntents)
	assert.Equal(t, 0, st.DeliveryFailures)
}
