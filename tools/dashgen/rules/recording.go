package rules

// RecordingRules returns the pre-computed rate expressions used by the
// dashboard and the alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("rpt-recording-rules", RuleGroup{
		Name: "rpt-recording",
		Rules: []Rule{
			{
				Record: "rpt:http_requests:rate5m",
				Expr:   `sum(rate(rpt_http_requests_total[5m]))`,
			},
			{
				Record: "rpt:http_errors:rate5m",
				Expr:   `sum(rate(rpt_http_requests_total{status=~"5.."}[5m]))`,
			},
			{
				Record: "rpt:http_request_duration:p95_5m_by_route",
				Expr: `histogram_quantile(0.95, sum by (le, method, route) ` +
					`(rate(rpt_http_request_duration_seconds_bucket{route!="unmatched"}[5m])))`,
			},
			{
				Record: "rpt:scrape_jobs:rate5m",
				Expr:   `sum(rate(rpt_scrape_jobs_total[5m]))`,
			},
			{
				Record: "rpt:scrape_failures:rate5m",
				Expr:   `sum(rate(rpt_scrape_jobs_total{outcome!~"success|cancelled"}[5m]))`,
			},
			{
				Record: "rpt:scrape_observations:rate5m",
				Expr:   `sum(rate(rpt_scrape_observations_total[5m]))`,
			},
			{
				Record: "rpt:notification_duration:p95_5m",
				Expr:   `histogram_quantile(0.95, sum(rate(rpt_notification_duration_seconds_bucket[5m])) by (le))`,
			},
		},
	})
}
