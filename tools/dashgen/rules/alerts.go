package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// retail-price-tracker operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("rpt-alerts", RuleGroup{
		Name: "rpt-alerts",
		Rules: []Rule{
			{
				Alert: "RptDown",
				Expr:  `absent(up{job="retail-price-tracker"})`,
				For:   "2m",
				Labels: map[string]string{
					"severity": "critical",
				},
				Annotations: map[string]string{
					"summary":     "Retail Price Tracker is down",
					"description": "The retail-price-tracker job has been absent for more than 2 minutes.",
				},
			},
			{
				Alert: "RptReadinessDown",
				Expr:  `rpt_readyz_up == 0`,
				For:   "2m",
				Labels: map[string]string{
					"severity": "critical",
				},
				Annotations: map[string]string{
					"summary":     "Retail Price Tracker readiness check is failing",
					"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
				},
			},
			{
				Alert: "RptHighErrorRate",
				Expr:  `rpt:http_errors:rate5m / rpt:http_requests:rate5m > 0.05`,
				For:   "5m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "High HTTP error rate on Retail Price Tracker",
					"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
				},
			},
			{
				Alert: "RptScrapeFailures",
				Expr:  `rpt:scrape_failures:rate5m / rpt:scrape_jobs:rate5m > 0.25`,
				For:   "10m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "Scrape failure ratio is elevated",
					"description": "More than a quarter of scrape jobs have failed over the last 10 minutes.",
				},
			},
			{
				Alert: "RptStoreDegraded",
				Expr:  `max by (store) (rpt_store_degraded) == 1`,
				For:   "10m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "A store circuit breaker is open",
					"description": "Scrapes against {{ $labels.store }} have been suspended for more than 10 minutes.",
				},
			},
			{
				Alert: "RptStoreQuotaExhausted",
				Expr:  `rpt_store_requests_remaining == 0`,
				For:   "0m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "A store daily request quota is exhausted",
					"description": "No requests are left for {{ $labels.store }} until the daily reset.",
				},
			},
			{
				Alert: "RptSchedulerPanics",
				Expr:  `increase(rpt_scheduler_panics_total[15m]) > 0`,
				For:   "0m",
				Labels: map[string]string{
					"severity": "critical",
				},
				Annotations: map[string]string{
					"summary":     "The scrape scheduler recovered from a panic",
					"description": "A panic escaped a scheduler step or worker in the last 15 minutes.",
				},
			},
			{
				Alert: "RptNotificationFailures",
				Expr:  `increase(rpt_notification_failures_total[5m]) > 0`,
				For:   "1m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "Notification delivery failures detected",
					"description": "One or more notification intents exhausted their delivery retries.",
				},
			},
			{
				Alert: "RptAPIPanics",
				Expr:  `increase(rpt_http_panics_total[15m]) > 0`,
				For:   "0m",
				Labels: map[string]string{
					"severity": "warning",
				},
				Annotations: map[string]string{
					"summary":     "An API handler panicked",
					"description": "Requests to {{ $labels.route }} hit a recovered panic in the last 15 minutes.",
				},
			},
		},
	})
}
