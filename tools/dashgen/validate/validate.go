// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and every metric it selects must be known.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/retail-price-tracker/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings do
// not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool { return len(r.Errors) == 0 }

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// histogramSuffixes are stripped before looking a series up in the known
// metric set.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Metrics parses expr and returns the metric names it selects, sorted.
func Metrics(expr string) ([]string, error) {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		if vs, ok := node.(*parser.VectorSelector); ok && vs.Name != "" {
			seen[vs.Name] = struct{}{}
		}
		return nil
	})
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

func (r *Result) checkExpr(where, expr string, known map[string]bool) {
	names, err := Metrics(expr)
	if err != nil {
		r.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}
	for _, n := range names {
		if !knownMetric(n, known) {
			r.errorf("%s: unknown metric %q", where, n)
		}
	}
}

// Dashboard validates every Prometheus target in d, including panels nested
// in rows.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for _, p := range d.Panels {
		switch {
		case p.Panel != nil:
			res.checkPanel(p.Panel, known)
		case p.RowPanel != nil:
			if len(p.RowPanel.Panels) == 0 {
				res.warnf("row with id %d has no panels", p.RowPanel.Id)
			}
			for i := range p.RowPanel.Panels {
				res.checkPanel(&p.RowPanel.Panels[i], known)
			}
		}
	}
	return res
}

func (r *Result) checkPanel(p *dashboard.Panel, known map[string]bool) {
	title := "untitled"
	if p.Title != nil {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		r.warnf("panel %q has no targets", title)
		return
	}
	for _, t := range p.Targets {
		q, ok := t.(*prometheus.Dataquery)
		if !ok {
			r.warnf("panel %q has a non-prometheus target", title)
			continue
		}
		r.checkExpr(fmt.Sprintf("panel %q", title), q.Expr, known)
	}
}

// Rules validates every expression in the rule groups. Names recorded by
// earlier rules count as known for later ones.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	all := make(map[string]bool, len(known))
	for k, v := range known {
		all[k] = v
	}
	for _, g := range cr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if name == "" {
				name = rule.Alert
			}
			if rule.Record == "" && rule.Alert == "" {
				res.errorf("group %q: rule has neither record nor alert", g.Name)
			}
			res.checkExpr(fmt.Sprintf("rule %q", name), rule.Expr, all)
			if rule.Record != "" {
				all[rule.Record] = true
			}
		}
	}
	return res
}
