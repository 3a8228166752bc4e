package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SchedulerLoad returns a timeseries panel showing the due queue depth and
// the number of jobs in flight.
func SchedulerLoad() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Scheduler Load").
		Description("Scheduled products waiting and jobs currently running").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(Series("rpt_scheduler_queue_depth"), "queued", "A")).
		WithTarget(PromQuery(Series("rpt_scheduler_in_flight"), "in flight", "B")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SchedulerRejections returns a timeseries panel showing jobs the scheduler
// refused, by reason.
func SchedulerRejections() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rejected Jobs").
		Description("Jobs dropped at admission per minute by reason").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(`+Series("rpt_scheduler_rejected_total")+`[5m])) by (reason) * 60`,
			"{{reason}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
