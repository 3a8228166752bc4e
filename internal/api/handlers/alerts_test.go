package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	"github.com/donaldgifford/retail-price-tracker/internal/api/handlers"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	storeMocks "github.com/donaldgifford/retail-price-tracker/internal/store/mocks"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// fakeAlertManager implements handlers.AlertManager for testing.
type fakeAlertManager struct {
	createErr error
	stopped   *domain.Alert
	stopErr   error
	created   []*domain.Alert
}

func (f *fakeAlertManager) CreateAlert(_ context.Context, a *domain.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = "a1"
	a.State = domain.AlertActive
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAlertManager) StopAlert(_ context.Context, _ string) (*domain.Alert, error) {
	return f.stopped, f.stopErr
}

func TestAlertsHandler_CreateAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       map[string]any
		mgr        *fakeAlertManager
		wantStatus int
		check      func(t *testing.T, a *domain.Alert)
	}{
		{
			name: "threshold alert",
			body: map[string]any{
				"user":          "u-42",
				"product_id":    "p1",
				"threshold":     "135.00",
				"poll_interval": "30m",
				"email":         "dana@example.com",
			},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, a *domain.Alert) {
				t.Helper()
				require.NotNil(t, a.Settings.Threshold)
				assert.True(t, a.Settings.Threshold.Equal(decimal.RequireFromString("135")))
				assert.Equal(t, 30*time.Minute, a.Settings.PollInterval)
				assert.Equal(t, "dana@example.com", a.Settings.Email)
				assert.True(t, a.ExpiresAt.IsZero(), "default duration is applied by the evaluator")
			},
		},
		{
			name: "duration in days sets expiry",
			body: map[string]any{
				"user":          "u-42",
				"product_id":    "p1",
				"condition":     "percent_drop",
				"drop_percent":  10,
				"duration_days": 3,
			},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, a *domain.Alert) {
				t.Helper()
				assert.Equal(t, domain.ConditionPercentDrop, a.Settings.Condition)
				assert.InDelta(t, 10.0, a.Settings.DropPercent, 0.001)
				assert.WithinDuration(t, time.Now().Add(72*time.Hour), a.ExpiresAt, time.Minute)
			},
		},
		{
			name:       "threshold is not a number",
			body:       map[string]any{"user": "u-42", "product_id": "p1", "threshold": "cheap"},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad poll interval",
			body:       map[string]any{"user": "u-42", "product_id": "p1", "poll_interval": "often"},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown condition is rejected by schema",
			body:       map[string]any{"user": "u-42", "product_id": "p1", "condition": "price_doubled"},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing user",
			body:       map[string]any{"product_id": "p1"},
			mgr:        &fakeAlertManager{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "evaluator rejects the alert",
			body: map[string]any{"user": "u-42", "product_id": "p9"},
			mgr: &fakeAlertManager{
				createErr: fmt.Errorf("%w: product p9 does not exist", alert.ErrInvalidAlert),
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "store failure",
			body:       map[string]any{"user": "u-42", "product_id": "p1"},
			mgr:        &fakeAlertManager{createErr: fmt.Errorf("creating alert: %w", assert.AnError)},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(tt.mgr, storeMocks.NewMockStore(t)))

			resp := api.Post("/api/v1/alerts", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.check != nil {
				require.Len(t, tt.mgr.created, 1)
				assert.Contains(t, resp.Body.String(), `"id":"a1"`)
				tt.check(t, tt.mgr.created[0])
			}
		})
	}
}

func TestAlertsHandler_GetAlert(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().GetAlert(mock.Anything, "a1").
			Return(&domain.Alert{ID: "a1", State: domain.AlertActive}, nil).Once()

		_, api := humatest.New(t)
		handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(&fakeAlertManager{}, ms))

		resp := api.Get("/api/v1/alerts/a1")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"state":"active"`)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().GetAlert(mock.Anything, "a9").Return(nil, store.ErrNotFound).Once()

		_, api := humatest.New(t)
		handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(&fakeAlertManager{}, ms))

		resp := api.Get("/api/v1/alerts/a9")
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestAlertsHandler_ListAlerts(t *testing.T) {
	t.Parallel()

	t.Run("by user", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().ListAlertsByUser(mock.Anything, "u-42").
			Return([]domain.Alert{{ID: "a1"}, {ID: "a2"}}, nil).Once()

		_, api := humatest.New(t)
		handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(&fakeAlertManager{}, ms))

		resp := api.Get("/api/v1/alerts?user=u-42")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"total":2`)
	})

	t.Run("user is required", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(&fakeAlertManager{}, storeMocks.NewMockStore(t)))

		resp := api.Get("/api/v1/alerts")
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestAlertsHandler_StopAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mgr        *fakeAlertManager
		wantStatus int
	}{
		{
			name:       "active alert is stopped",
			mgr:        &fakeAlertManager{stopped: &domain.Alert{ID: "a1", State: domain.AlertStopped}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing alert",
			mgr:        &fakeAlertManager{stopErr: store.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "closed alert cannot be stopped",
			mgr: &fakeAlertManager{
				stopped: &domain.Alert{ID: "a1", State: domain.AlertClosed},
				stopErr: fmt.Errorf("%w: closed", alert.ErrTerminal),
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(tt.mgr, storeMocks.NewMockStore(t)))

			resp := api.Post("/api/v1/alerts/a1/stop")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}
}
