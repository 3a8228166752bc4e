package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	alertMocks "github.com/donaldgifford/retail-price-tracker/internal/alert/mocks"
	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/normalize"
	storeMocks "github.com/donaldgifford/retail-price-tracker/internal/store/mocks"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// newSchedulerTestEngine returns an engine backed by a mock store.
func newSchedulerTestEngine(t *testing.T) (*Engine, *storeMocks.MockStore) {
	t.Helper()
	ms := storeMocks.NewMockStore(t)
	reg, err := extract.NewRegistry()
	require.NoError(t, err)

	eng := NewEngine(ms, reg,
		normalize.New(normalize.Config{}),
		history.New(ms, history.WithLogger(quietLogger())),
		alert.NewEvaluator(ms, alertMocks.NewMockSink(t), alert.WithLogger(quietLogger())),
		Config{},
		WithLogger(quietLogger()),
	)
	return eng, ms
}

func TestNewScheduler_RegistersCronEntries(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine(t)

	sched, err := NewScheduler(eng, MaintenanceConfig{}, quietLogger())
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 4)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine(t)

	sched, err := NewScheduler(eng, MaintenanceConfig{
		SweepInterval:   time.Hour,
		ReloadInterval:  time.Hour,
		StatsInterval:   time.Hour,
		RecoverInterval: time.Hour,
	}, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunSweep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(ms *storeMocks.MockStore)
	}{
		{
			name: "nothing to expire",
			setup: func(ms *storeMocks.MockStore) {
				ms.EXPECT().ListExpiredAlerts(mock.Anything, mock.Anything).Return(nil, nil).Once()
			},
		},
		{
			name: "store error is logged",
			setup: func(ms *storeMocks.MockStore) {
				ms.EXPECT().ListExpiredAlerts(mock.Anything, mock.Anything).
					Return(nil, errors.New("connection reset")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eng, ms := newSchedulerTestEngine(t)
			tt.setup(ms)

			sched, err := NewScheduler(eng, MaintenanceConfig{}, quietLogger())
			require.NoError(t, err)
			sched.runSweep()
		})
	}
}

func TestScheduler_RunReload(t *testing.T) {
	t.Parallel()

	eng, ms := newSchedulerTestEngine(t)
	ms.EXPECT().ListSchedulableProducts(mock.Anything).Return(nil, errors.New("db down")).Once()

	sched, err := NewScheduler(eng, MaintenanceConfig{}, quietLogger())
	require.NoError(t, err)
	sched.runReload()

	select {
	case <-eng.cmds:
		t.Fatal("failed reload must not touch the schedule")
	default:
	}
}

func TestScheduler_RunStats(t *testing.T) {
	t.Parallel()

	eng, ms := newSchedulerTestEngine(t)
	ms.EXPECT().GetStats(mock.Anything, mock.Anything).
		Return(&domain.Stats{TotalProducts: 4, ActiveAlerts: 2}, nil).Once()
	ms.EXPECT().GetStats(mock.Anything, mock.Anything).
		Return(nil, errors.New("db down")).Once()

	sched, err := NewScheduler(eng, MaintenanceConfig{}, quietLogger())
	require.NoError(t, err)
	sched.runStats()
	sched.runStats()
}

type failingRecoverer struct{}

func (failingRecoverer) Recover(context.Context) (int, error) {
	return 0, errors.New("outbox unavailable")
}

func TestScheduler_RunRecover(t *testing.T) {
	t.Parallel()

	eng, _ := newSchedulerTestEngine(t)
	r := &countingRecoverer{}
	WithRecoverer(r)(eng)

	sched, err := NewScheduler(eng, MaintenanceConfig{}, quietLogger())
	require.NoError(t, err)
	sched.runRecover()
	assert.Equal(t, int32(1), r.calls.Load())

	WithRecoverer(failingRecoverer{})(eng)
	sched.runRecover()
}
