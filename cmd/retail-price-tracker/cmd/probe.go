package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
)

// probeResult is the outcome of checking one store.
type probeResult struct {
	Store   string
	Status  string
	Latency time.Duration
	Err     error
}

func probeCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that every configured store is reachable",
		Long: "Sends a lightweight request to each configured store and reports whether it " +
			"answered. Stores whose extractor cannot probe are reported as skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := newRegistry(cfg.Stores)
			if err != nil {
				return fmt.Errorf("building extractors: %w", err)
			}

			results := probeStores(cmd.Context(), registry, timeout)
			if err := printProbeResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			for _, r := range results {
				if r.Err != nil {
					return fmt.Errorf("store %s unreachable: %w", r.Store, r.Err)
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-store probe timeout")
	return cmd
}

// probeStores probes each registered store in registration order.
func probeStores(ctx context.Context, registry *extract.Registry, timeout time.Duration) []probeResult {
	stores := registry.Stores()
	results := make([]probeResult, 0, len(stores))
	for _, name := range stores {
		ex, _ := registry.Get(name)
		prober, ok := ex.(extract.Prober)
		if !ok {
			results = append(results, probeResult{Store: name, Status: "skipped"})
			continue
		}

		pctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := prober.Probe(pctx)
		cancel()

		r := probeResult{Store: name, Status: "ok", Latency: time.Since(start), Err: err}
		if err != nil {
			r.Status = "error"
		}
		results = append(results, r)
	}
	return results
}

func printProbeResults(w io.Writer, results []probeResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tSTATUS\tLATENCY\tERROR")
	for _, r := range results {
		latency, detail := "-", ""
		if r.Status != "skipped" {
			latency = r.Latency.Round(time.Millisecond).String()
		}
		if r.Err != nil {
			detail = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Store, r.Status, latency, detail)
	}
	return tw.Flush()
}
