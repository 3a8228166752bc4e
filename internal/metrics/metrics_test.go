package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, ScrapeDuration)
	assert.NotNil(t, ScrapeJobsTotal)
	assert.NotNil(t, SchedulerQueueDepth)
	assert.NotNil(t, StoreDegraded)
	assert.NotNil(t, NormalizationRejectedTotal)
	assert.NotNil(t, DedupDiscardedTotal)
	assert.NotNil(t, ObservationsAppendedTotal)
	assert.NotNil(t, AlertsFiredTotal)
	assert.NotNil(t, NotificationFailuresTotal)
	assert.NotNil(t, NotificationDuration)
	assert.NotNil(t, NotificationQueueDepth)
}

func TestLabeledCounters(t *testing.T) {
	t.Parallel()

	c := ScrapeJobsTotal.WithLabelValues("metrics-test-store", "success")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(c), 0.0001)
}

func TestGauges(t *testing.T) {
	t.Parallel()

	g := StoreDegraded.WithLabelValues("metrics-test-store")
	g.Set(1)
	assert.InDelta(t, 1, testutil.ToFloat64(g), 0)
	g.Set(0)
	assert.InDelta(t, 0, testutil.ToFloat64(g), 0)
}
