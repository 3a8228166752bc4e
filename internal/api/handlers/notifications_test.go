package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/api/handlers"
	storeMocks "github.com/donaldgifford/retail-price-tracker/internal/store/mocks"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

func TestNotificationsHandler_ListFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "default limit",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().ListFailedIntents(mock.Anything, 50).
					Return([]domain.NotificationIntent{{
						ID:        "a1/price_dropped/o3",
						Kind:      domain.IntentPriceDropped,
						Status:    domain.IntentDeliveryFailed,
						Attempts:  5,
						LastError: "webhook returned 502",
					}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"last_error":"webhook returned 502"`,
		},
		{
			name:  "explicit limit and empty result",
			query: "?limit=5",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().ListFailedIntents(mock.Anything, 5).Return(nil, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name: "store error",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().ListFailedIntents(mock.Anything, 50).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			tt.setupMock(ms)

			_, api := humatest.New(t)
			handlers.RegisterNotificationRoutes(api, handlers.NewNotificationsHandler(ms))

			resp := api.Get("/api/v1/notifications/failed" + tt.query)
			require.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
		})
	}
}
