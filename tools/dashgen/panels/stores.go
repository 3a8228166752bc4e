package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DegradedStores returns a stat panel counting stores whose breaker is not
// closed.
func DegradedStores() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Degraded Stores").
		Description("Stores whose circuit breaker is open or half-open").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(8).
		WithTarget(PromQuery(`sum(`+Series("rpt_store_degraded")+`)`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 2)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// RequestsRemaining returns a timeseries panel showing each store's
// remaining daily request quota.
func RequestsRemaining() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Daily Quota Remaining").
		Description("Requests left in each store's daily quota").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(Series("rpt_store_requests_remaining"), "{{store}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("last", "min")).
		Thresholds(ThresholdsRedGreen(50)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// StaleProducts returns a stat panel showing products marked stale in the
// last 24 hours.
func StaleProducts() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Products Marked Stale (24h)").
		Description("Products marked stale after repeated scrape failures").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(8).
		WithTarget(PromQuery(`increase(`+Series("rpt_products_stale_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
