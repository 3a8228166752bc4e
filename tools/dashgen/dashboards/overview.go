// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/retail-price-tracker/tools/dashgen/panels"
)

// BuildOverview constructs the RPT Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("RPT Overview").
		Uid("rpt-overview").
		Tags([]string{"rpt", "retail-price-tracker"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.CatalogStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.RouteLatency()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.HandlerPanics()))

	// Row 3: Scraping.
	b.WithRow(dashboard.NewRowBuilder("Scraping").
		WithPanel(panels.ScrapeJobsRate()).
		WithPanel(panels.ScrapeDuration()).
		WithPanel(panels.ObservationsRate()))

	// Row 4: Stores.
	b.WithRow(dashboard.NewRowBuilder("Stores").
		WithPanel(panels.DegradedStores()).
		WithPanel(panels.RequestsRemaining()).
		WithPanel(panels.StaleProducts()))

	// Row 5: Scheduler.
	b.WithRow(dashboard.NewRowBuilder("Scheduler").
		WithPanel(panels.SchedulerLoad()).
		WithPanel(panels.SchedulerRejections()))

	// Row 6: Alerts.
	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.AlertsRate()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationQueue()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
