// Package metrics defines Prometheus metrics for retail-price-tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rpt"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route template.",
	}, []string{"method", "route", "status"})

	HTTPPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_total",
		Help:      "Handler panics recovered by the API, by route template.",
	}, []string{"route"})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the liveness probe last succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the readiness probe last succeeded.",
	})
)

// Scrape metrics.
var (
	ScrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Duration of scrape jobs in seconds, including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"store"})

	ScrapeJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_jobs_total",
		Help:      "Total scrape jobs by outcome.",
	}, []string{"store", "outcome"})

	ScrapeObservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_observations_total",
		Help:      "Total raw observations returned by extractors.",
	}, []string{"store"})

	ScrapeSkippedElementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_skipped_elements_total",
		Help:      "Total page elements skipped because they could not be parsed.",
	}, []string{"store"})

	SchedulerQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_queue_depth",
		Help:      "Number of products waiting in the due queue.",
	})

	SchedulerInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_in_flight",
		Help:      "Number of scrape jobs currently running.",
	})

	SchedulerRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_rejected_total",
		Help:      "Total job submissions rejected by reason.",
	}, []string{"reason"})

	SchedulerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_panics_total",
		Help:      "Total panics recovered in the scheduler loop or its workers.",
	})

	StoreDegraded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_degraded",
		Help:      "1 while a store's circuit breaker is open or half-open.",
	}, []string{"store"})

	StoreRequestsRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_requests_remaining",
		Help:      "Requests left in the store's daily quota.",
	}, []string{"store"})

	ProductsStaleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_stale_total",
		Help:      "Total products marked stale after repeated failures.",
	})
)

// Normalizer metrics.
var (
	NormalizationRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "normalization_rejected_total",
		Help:      "Total raw observations rejected by the normalizer.",
	}, []string{"store"})

	DedupDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dedup_discarded_total",
		Help:      "Total observations discarded as duplicates within a batch.",
	}, []string{"store"})
)

// History metrics.
var (
	ObservationsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_appended_total",
		Help:      "Total price observations appended to history.",
	})

	ObservationsOutOfOrderTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_out_of_order_total",
		Help:      "Total observations discarded for arriving older than the latest entry.",
	})
)

// Alert metrics.
var (
	AlertsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_fired_total",
		Help:      "Total alert transitions that produced a notification intent.",
	}, []string{"kind"})

	AlertsEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_evaluated_total",
		Help:      "Total alert evaluations performed.",
	})

	AlertsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alerts_active",
		Help:      "Number of alerts in a non-terminal state.",
	})

	ProductsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "products_tracked",
		Help:      "Number of known products.",
	})
)

// Notification metrics.
var (
	NotificationsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total notification intents delivered.",
	}, []string{"kind"})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total notification intents that exhausted delivery retries.",
	}, []string{"kind"})

	NotificationAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_attempts_total",
		Help:      "Total transport send attempts.",
	})

	NotificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of a single transport send.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"transport"})

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Number of intents waiting for delivery.",
	})
)
