package main

import "errors"

// KnownMetrics is the set of metric names exported by retail-price-tracker
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"rpt_http_request_duration_seconds": true,
	"rpt_http_requests_total":           true,
	"rpt_http_panics_total":             true,

	// Health metrics.
	"rpt_healthz_up": true,
	"rpt_readyz_up":  true,

	// Scrape metrics.
	"rpt_scrape_duration_seconds":       true,
	"rpt_scrape_jobs_total":             true,
	"rpt_scrape_observations_total":     true,
	"rpt_scrape_skipped_elements_total": true,

	// Scheduler metrics.
	"rpt_scheduler_queue_depth":        true,
	"rpt_scheduler_in_flight":          true,
	"rpt_scheduler_rejected_total":     true,
	"rpt_scheduler_panics_total":       true,
	"rpt_store_degraded":               true,
	"rpt_store_requests_remaining":     true,
	"rpt_products_stale_total":         true,
	"rpt_normalization_rejected_total": true,
	"rpt_dedup_discarded_total":        true,

	// History metrics.
	"rpt_observations_appended_total":     true,
	"rpt_observations_out_of_order_total": true,

	// Alert metrics.
	"rpt_alerts_fired_total":     true,
	"rpt_alerts_evaluated_total": true,
	"rpt_alerts_active":          true,
	"rpt_products_tracked":       true,

	// Notification metrics.
	"rpt_notifications_delivered_total": true,
	"rpt_notification_failures_total":   true,
	"rpt_notification_attempts_total":   true,
	"rpt_notification_duration_seconds": true,
	"rpt_notification_queue_depth":      true,

	// Recording rules.
	"rpt:http_requests:rate5m":                  true,
	"rpt:http_errors:rate5m":                    true,
	"rpt:http_request_duration:p95_5m_by_route": true,
	"rpt:scrape_jobs:rate5m":                    true,
	"rpt:scrape_failures:rate5m":                true,
	"rpt:scrape_observations:rate5m":            true,
	"rpt:notification_duration:p95_5m":          true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
