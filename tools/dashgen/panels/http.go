package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate shows API throughput per route template. Requests the router
// could not place are one extra series, so URL scans stand out.
func RequestRate() *timeseries.PanelBuilder {
	return lineChart("Request Rate by Route", "API requests per second by route template").
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum by (method, route) (rate(`+Series("rpt_http_requests_total", `route!="unmatched"`)+`[5m]))`,
			RouteLegend, "A",
		)).
		WithTarget(PromQuery(
			`sum(rate(`+Series("rpt_http_requests_total", `route="unmatched"`)+`[5m]))`,
			"unmatched", "B",
		)).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly())
}

// RouteLatency shows p95 latency per route from the recording rule, with
// the p99 across all routes for reference.
func RouteLatency() *timeseries.PanelBuilder {
	return lineChart("Route Latency", "p95 request duration per route template; p99 over all routes").
		Span(TSWidth).
		WithTarget(PromQuery(`rpt:http_request_duration:p95_5m_by_route`, RouteLegend, "A")).
		WithTarget(PromQuery(
			`histogram_quantile(0.99, sum by (le) (rate(`+
				Series("rpt_http_request_duration_seconds_bucket", `route!="unmatched"`)+`[5m])))`,
			"p99 all routes", "B",
		)).
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly())
}

// ErrorRate shows the share of API requests answered with a 5xx.
func ErrorRate() *timeseries.PanelBuilder {
	return lineChart("Error Rate %", "HTTP 5xx responses as a percentage of API requests").
		Span(TSWidth).
		WithTarget(PromQuery(`rpt:http_errors:rate5m / rpt:http_requests:rate5m * 100`, "5xx %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}

// HandlerPanics counts panics recovered by the API over the last day.
func HandlerPanics() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Handler Panics (24h)").
		Description("Panics recovered by the API middleware, all routes").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sum(increase(`+Series("rpt_http_panics_total")+`[24h]))`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
