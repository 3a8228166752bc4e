package validate_test

import (
	"testing"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/tools/dashgen/rules"
	"github.com/donaldgifford/retail-price-tracker/tools/dashgen/validate"
)

var known = map[string]bool{
	"rpt_scrape_jobs_total":       true,
	"rpt_scrape_duration_seconds": true,
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		want    []string
		wantErr bool
	}{
		{
			name: "rate",
			expr: `sum(rate(rpt_scrape_jobs_total{outcome="success"}[5m])) by (store)`,
			want: []string{"rpt_scrape_jobs_total"},
		},
		{
			name: "binary expression",
			expr: `rpt:scrape_failures:rate5m / rpt:scrape_jobs:rate5m`,
			want: []string{"rpt:scrape_failures:rate5m", "rpt:scrape_jobs:rate5m"},
		},
		{
			name: "function without selectors",
			expr: `time()`,
			want: []string{},
		},
		{
			name:    "unbalanced",
			expr:    `sum(rate(rpt_scrape_jobs_total[5m])`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := validate.Metrics(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func panel(expr string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("test").
		WithTarget(prometheus.NewDataqueryBuilder().Expr(expr).RefId("A"))
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expr       string
		wantOk     bool
		wantErrSub string
	}{
		{
			name:   "histogram bucket resolves to base metric",
			expr:   `histogram_quantile(0.95, sum(rate(rpt_scrape_duration_seconds_bucket[5m])) by (le))`,
			wantOk: true,
		},
		{
			name:       "unknown metric",
			expr:       `rate(spt_ingestion_listings_total[5m])`,
			wantErrSub: `unknown metric "spt_ingestion_listings_total"`,
		},
		{
			name:       "bad promql",
			expr:       `rate(rpt_scrape_jobs_total[5m]`,
			wantErrSub: "invalid PromQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dash, err := dashboard.NewDashboardBuilder("t").
				WithRow(dashboard.NewRowBuilder("row").WithPanel(panel(tt.expr))).
				Build()
			require.NoError(t, err)

			res := validate.Dashboard(dash, known)
			assert.Equal(t, tt.wantOk, res.Ok(), res.Errors)
			if tt.wantErrSub != "" {
				require.Len(t, res.Errors, 1)
				assert.Contains(t, res.Errors[0], tt.wantErrSub)
			}
		})
	}
}

func TestRules_RecordedNamesAreKnown(t *testing.T) {
	t.Parallel()

	cr := rules.PrometheusRule{Spec: rules.PrometheusRuleSpec{Groups: []rules.RuleGroup{{
		Name: "g",
		Rules: []rules.Rule{
			{Record: "rpt:scrape_jobs:rate5m", Expr: `sum(rate(rpt_scrape_jobs_total[5m]))`},
			{Alert: "Busy", Expr: `rpt:scrape_jobs:rate5m > 10`},
			{Expr: `up`},
		},
	}}}}

	res := validate.Rules(cr, known)
	require.Len(t, res.Errors, 2, res.Errors)
	assert.Contains(t, res.Errors[0], "neither record nor alert")
	assert.Contains(t, res.Errors[1], `unknown metric "up"`)
}
