package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/notify"
	"github.com/donaldgifford/retail-price-tracker/internal/notify/mocks"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *store.SQLiteStore
	product *domain.Product
	alert   *domain.Alert
	obs     *domain.PriceObservation
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	p := &domain.Product{
		CanonicalName: "sony wh-1000xm5",
		Store:         "ksp",
		StoreRef:      "id:5",
		URL:           "https://ksp.example/item/5",
		Currency:      "ILS",
	}
	require.NoError(t, s.UpsertProduct(ctx, p))

	obs := &domain.PriceObservation{
		ProductID:    p.ID,
		Price:        decimal.RequireFromString("1149.9"),
		Currency:     "ILS",
		ObservedAt:   t0,
		Availability: domain.AvailabilityInStock,
		SourceURL:    "https://ksp.example/item/5?ref=scrape",
	}
	require.NoError(t, s.AppendObservation(ctx, obs))
	require.NoError(t, s.RecordProductSuccess(ctx, p.ID, obs))

	threshold := decimal.NewFromInt(1200)
	a := &domain.Alert{
		UserRef:   "user-1",
		ProductID: p.ID,
		State:     domain.AlertActive,
		Settings: domain.AlertSettings{
			Condition: domain.ConditionPriceAtOrBelow,
			Threshold: &threshold,
			Email:     "user@example.com",
		},
		ExpiresAt: t0.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.CreateAlert(ctx, a, nil))

	return &fixture{store: s, product: p, alert: a, obs: obs}
}

// intent commits an intent of kind for the fixture's alert and returns it.
func (f *fixture) intent(t *testing.T, kind domain.IntentKind, observationID string) *domain.NotificationIntent {
	t.Helper()
	ctx := context.Background()

	a, err := f.store.GetAlert(ctx, f.alert.ID)
	require.NoError(t, err)
	in := domain.NewIntent(a.ID, kind, observationID, t0)
	require.NoError(t, f.store.CommitEvaluation(ctx, a.State, a, in))
	return in
}

func (f *fixture) reload(t *testing.T, id string) *domain.NotificationIntent {
	t.Helper()
	in, err := f.store.GetIntent(context.Background(), id)
	require.NoError(t, err)
	return in
}

func fastConfig() notify.DispatcherConfig {
	return notify.DispatcherConfig{
		QueueSize:       8,
		Workers:         1,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func newTransport(t *testing.T) *mocks.MockTransport {
	t.Helper()
	tr := &mocks.MockTransport{}
	t.Cleanup(func() { tr.AssertExpectations(t) })
	tr.EXPECT().Name().Return("mock").Maybe()
	return tr
}

func TestDispatcher_DeliversPendingIntent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	in := f.intent(t, domain.IntentPriceDropped, f.obs.ID)

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).
		Run(func(_ context.Context, n *notify.Notification) {
			assert.Equal(t, in.ID, n.IntentID)
			assert.Equal(t, "1149.90", n.Price)
			assert.Equal(t, "user@example.com", n.Email)
		}).
		Return(nil).Once()

	d := notify.NewDispatcher(f.store, tr, fastConfig(),
		notify.WithLogger(quietLogger()),
		notify.WithNowFunc(func() time.Time { return t0.Add(time.Minute) }),
	)
	require.NoError(t, d.Enqueue(ctx, in))
	assert.Equal(t, 1, d.Deliver(ctx))

	got := f.reload(t, in.ID)
	assert.Equal(t, domain.IntentDelivered, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, got.DeliveredAt.Equal(t0.Add(time.Minute)))
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	in := f.intent(t, domain.IntentPriceDropped, f.obs.ID)

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).Return(errors.New("connection reset")).Twice()
	tr.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	d := notify.NewDispatcher(f.store, tr, fastConfig(), notify.WithLogger(quietLogger()))
	require.NoError(t, d.Enqueue(ctx, in))
	assert.Equal(t, 1, d.Deliver(ctx))

	got := f.reload(t, in.ID)
	assert.Equal(t, domain.IntentDelivered, got.Status)
	assert.Equal(t, 3, got.Attempts)
}

func TestDispatcher_ExhaustedRetriesLeaveAlertUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	in := f.intent(t, domain.IntentPriceDropped, f.obs.ID)
	before, err := f.store.GetAlert(ctx, f.alert.ID)
	require.NoError(t, err)

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).Return(errors.New("gateway timeout")).Times(3)

	d := notify.NewDispatcher(f.store, tr, fastConfig(), notify.WithLogger(quietLogger()))
	require.NoError(t, d.Enqueue(ctx, in))
	assert.Zero(t, d.Deliver(ctx))

	got := f.reload(t, in.ID)
	assert.Equal(t, domain.IntentDeliveryFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	assert.Contains(t, got.LastError, "gateway timeout")

	after, err := f.store.GetAlert(ctx, f.alert.ID)
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestDispatcher_PermanentErrorStopsRetrying(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	in := f.intent(t, domain.IntentTrackingStarted, "")

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).
		Return(backoff.Permanent(errors.New("webhook returned 404"))).Once()

	d := notify.NewDispatcher(f.store, tr, fastConfig(), notify.WithLogger(quietLogger()))
	require.NoError(t, d.Enqueue(ctx, in))
	assert.Zero(t, d.Deliver(ctx))

	got := f.reload(t, in.ID)
	assert.Equal(t, domain.IntentDeliveryFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestDispatcher_SkipsNonPendingIntents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	in := f.intent(t, domain.IntentTrackingStarted, "")
	require.NoError(t, f.store.MarkIntentDelivered(ctx, in.ID, 1, t0))

	tr := newTransport(t)
	d := notify.NewDispatcher(f.store, tr, fastConfig(), notify.WithLogger(quietLogger()))
	require.NoError(t, d.Enqueue(ctx, in))
	assert.Zero(t, d.Deliver(ctx))
	tr.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_EnqueueDedupAndQueueFull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	first := f.intent(t, domain.IntentTrackingStarted, "")
	second := f.intent(t, domain.IntentPriceDropped, f.obs.ID)

	cfg := fastConfig()
	cfg.QueueSize = 1
	d := notify.NewDispatcher(f.store, newTransport(t), cfg, notify.WithLogger(quietLogger()))

	require.NoError(t, d.Enqueue(ctx, first))
	require.NoError(t, d.Enqueue(ctx, first), "duplicate enqueue is ignored")
	assert.ErrorIs(t, d.Enqueue(ctx, second), notify.ErrQueueFull)
}

func TestDispatcher_RecoverQueuesOutbox(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	f.intent(t, domain.IntentTrackingStarted, "")
	f.intent(t, domain.IntentPriceDropped, f.obs.ID)

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Times(2)

	d := notify.NewDispatcher(f.store, tr, fastConfig(), notify.WithLogger(quietLogger()))
	n, err := d.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, d.Deliver(ctx))

	pending, err := f.store.ListPendingIntents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatcher_RecoverSkipsQueuedIntents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := setup(t)
	queued := f.intent(t, domain.IntentTrackingStarted, "")
	f.intent(t, domain.IntentPriceDropped, f.obs.ID)
	f.intent(t, domain.IntentTrackingExpired, "")

	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Times(3)

	cfg := fastConfig()
	cfg.QueueSize = 3
	d := notify.NewDispatcher(f.store, tr, cfg, notify.WithLogger(quietLogger()))
	require.NoError(t, d.Enqueue(ctx, queued))

	n, err := d.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the intent already queued is not counted again")

	n, err = d.Recover(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "queue is full")

	assert.Equal(t, 3, d.Deliver(ctx))
	pending, err := f.store.ListPendingIntents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatcher_Run(t *testing.T) {
	t.Parallel()
	f := setup(t)
	in := f.intent(t, domain.IntentPriceDropped, f.obs.ID)

	var sent atomic.Int32
	tr := newTransport(t)
	tr.EXPECT().Send(mock.Anything, mock.Anything).
		Run(func(context.Context, *notify.Notification) { sent.Add(1) }).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.Workers = 2
	cfg.RecoverInterval = 10 * time.Millisecond
	d := notify.NewDispatcher(f.store, tr, cfg, notify.WithLogger(quietLogger()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	// Picked up by the periodic recover, no explicit Enqueue.
	assert.Eventually(t, func() bool {
		got, err := f.store.GetIntent(context.Background(), in.ID)
		return err == nil && got.Status == domain.IntentDelivered
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), sent.Load())
}
