package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ScrapeJobsRate returns a timeseries panel showing finished scrape jobs per
// second split by outcome.
func ScrapeJobsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Scrape Jobs").
		Description("Finished scrape jobs per second by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(`+Series("rpt_scrape_jobs_total")+`[5m])) by (outcome)`,
			"{{outcome}}", "A",
		)).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ScrapeDuration returns a timeseries panel showing p95 scrape latency per
// store.
func ScrapeDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Scrape Duration (p95)").
		Description("95th percentile duration of a scrape job per store").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(`+Series("rpt_scrape_duration_seconds_bucket")+`[5m])) by (le, store))`,
			"{{store}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ObservationsRate returns a timeseries panel showing observations extracted
// per minute alongside those rejected by the normalizer.
func ObservationsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Observations / min").
		Description("Observations extracted, rejected and skipped per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`rpt:scrape_observations:rate5m * 60`, "extracted", "A")).
		WithTarget(PromQuery(
			`sum(rate(`+Series("rpt_normalization_rejected_total")+`[5m])) * 60`,
			"rejected", "B",
		)).
		WithTarget(PromQuery(
			`sum(rate(`+Series("rpt_scrape_skipped_elements_total")+`[5m])) * 60`,
			"skipped", "C",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
