package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/retail-price-tracker/internal/api/client"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

const timeLayout = "2006-01-02 15:04"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func price(p *domain.Product) string {
	if p.LastKnownPrice == nil {
		return "-"
	}
	return p.LastKnownPrice.StringFixed(2) + " " + p.Currency
}

func when(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printProductsTable(w io.Writer, products []domain.Product) error {
	tw := newTabWriter(w)
	tw.writef("ID\tSTORE\tNAME\tPRICE\tAVAILABILITY\tCHECKED\tSTALE\n")
	for i := range products {
		p := &products[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			p.ID,
			p.Store,
			truncate(p.CanonicalName, 40),
			price(p),
			p.Availability,
			when(p.LastCheckedAt),
			p.Stale,
		)
	}
	return tw.finish()
}

func printProductDetail(w io.Writer, p *domain.Product) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", p.ID)
	tw.writef("Name:\t%s\n", p.CanonicalName)
	tw.writef("Store:\t%s (%s)\n", p.Store, p.StoreRef)
	tw.writef("URL:\t%s\n", p.URL)
	tw.writef("Price:\t%s\n", price(p))
	tw.writef("Availability:\t%s\n", p.Availability)
	tw.writef("Last checked:\t%s\n", when(p.LastCheckedAt))
	tw.writef("Failures:\t%d\n", p.ConsecutiveFailures)
	tw.writef("Stale:\t%v\n", p.Stale)
	if p.Description != "" {
		tw.writef("Description:\t%s\n", truncate(p.Description, 80))
	}
	return tw.finish()
}

func printHistoryTable(w io.Writer, obs []domain.PriceObservation) error {
	tw := newTabWriter(w)
	tw.writef("OBSERVED\tPRICE\tAVAILABILITY\n")
	for i := range obs {
		tw.writef("%s\t%s %s\t%s\n",
			obs[i].ObservedAt.Local().Format(timeLayout),
			obs[i].Price.StringFixed(2),
			obs[i].Currency,
			obs[i].Availability,
		)
	}
	return tw.finish()
}

func printTrend(w io.Writer, t *domain.Trend) error {
	tw := newTabWriter(w)
	tw.writef("Window:\t%s (%d samples)\n", t.Window, t.Samples)
	tw.writef("Range:\t%s .. %s\n", t.From.Local().Format(timeLayout), t.To.Local().Format(timeLayout))
	tw.writef("First:\t%s %s\n", t.First.StringFixed(2), t.Currency)
	tw.writef("Last:\t%s %s\n", t.Last.StringFixed(2), t.Currency)
	tw.writef("Min:\t%s %s\n", t.Min.StringFixed(2), t.Currency)
	tw.writef("Max:\t%s %s\n", t.Max.StringFixed(2), t.Currency)
	tw.writef("Average:\t%s %s\n", t.Average.StringFixed(2), t.Currency)
	return tw.finish()
}

func condition(s *domain.AlertSettings) string {
	switch s.Condition {
	case domain.ConditionPercentDrop:
		return fmt.Sprintf("drop >= %.1f%%", s.DropPercent)
	case domain.ConditionBackInStock:
		return "back in stock"
	default:
		if s.Threshold == nil {
			return s.Condition
		}
		return "<= " + s.Threshold.StringFixed(2)
	}
}

func printAlertsTable(w io.Writer, alerts []domain.Alert) error {
	tw := newTabWriter(w)
	tw.writef("ID\tPRODUCT\tCONDITION\tSTATE\tEXPIRES\tNOTIFIED\n")
	for i := range alerts {
		a := &alerts[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			a.ProductID,
			condition(&a.Settings),
			a.State,
			when(&a.ExpiresAt),
			when(a.LastNotifiedAt),
		)
	}
	return tw.finish()
}

func printAlertDetail(w io.Writer, a *domain.Alert) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", a.ID)
	tw.writef("User:\t%s\n", a.UserRef)
	tw.writef("Product:\t%s\n", a.ProductID)
	tw.writef("Condition:\t%s\n", condition(&a.Settings))
	tw.writef("Recurring:\t%v\n", a.Settings.Recurring)
	tw.writef("State:\t%s\n", a.State)
	tw.writef("Expires:\t%s\n", when(&a.ExpiresAt))
	tw.writef("Last evaluated:\t%s\n", when(a.LastEvaluatedAt))
	tw.writef("Last notified:\t%s\n", when(a.LastNotifiedAt))
	return tw.finish()
}

func printStats(w io.Writer, s *domain.Stats) error {
	tw := newTabWriter(w)
	tw.writef("Products:\t%d (%d stale)\n", s.TotalProducts, s.StaleProducts)
	tw.writef("Active alerts:\t%d\n", s.ActiveAlerts)
	tw.writef("Users:\t%d\n", s.TotalUsers)
	tw.writef("Observations today:\t%d\n", s.ObservationsToday)
	tw.writef("Pending notifications:\t%d\n", s.PendingIntents)
	tw.writef("Delivery failures:\t%d\n", s.DeliveryFailures)
	degraded := "none"
	if len(s.DegradedStores) > 0 {
		degraded = fmt.Sprint(s.DegradedStores)
	}
	tw.writef("Degraded stores:\t%s\n", degraded)
	return tw.finish()
}

func printStoresTable(w io.Writer, stores []apiclient.StoreStatus) error {
	tw := newTabWriter(w)
	tw.writef("STORE\tBREAKER\tUSED TODAY\tREMAINING\tRESETS\n")
	for i := range stores {
		s := &stores[i]
		remaining := "unlimited"
		if s.Remaining >= 0 {
			remaining = fmt.Sprintf("%d", s.Remaining)
		}
		tw.writef("%s\t%s\t%d\t%s\t%s\n", s.Name, s.Breaker, s.DailyUsed, remaining, when(s.ResetAt))
	}
	return tw.finish()
}

func printIntentsTable(w io.Writer, intents []domain.NotificationIntent) error {
	tw := newTabWriter(w)
	tw.writef("ID\tKIND\tATTEMPTS\tCREATED\tERROR\n")
	for i := range intents {
		n := &intents[i]
		tw.writef("%s\t%s\t%d\t%s\t%s\n",
			n.ID, n.Kind, n.Attempts, when(&n.CreatedAt), truncate(n.LastError, 50))
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to maxLen runes. Product names are often Hebrew, so
// it counts runes, not bytes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
