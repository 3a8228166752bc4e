package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/retail-price-tracker/internal/config"
	"github.com/donaldgifford/retail-price-tracker/internal/normalize"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

type scrapeOptions struct {
	store    string
	category string
	limit    int
	json     bool
}

func scrapeCommand() *cobra.Command {
	var opts scrapeOptions

	cmd := &cobra.Command{
		Use:   "scrape [query]",
		Short: "Run a one-off store search and print the normalized results",
		Long: "Extracts and normalizes a search against the configured stores without " +
			"touching the database. Useful for checking store selectors.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			obs, err := scrapeOnce(cmd.Context(), cfg, log, args[0], &opts)
			if err != nil {
				return err
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(obs)
			}
			return printObservations(cmd.OutOrStdout(), obs)
		},
	}
	cmd.Flags().StringVar(&opts.store, "store", "", "only search this store")
	cmd.Flags().StringVar(&opts.category, "category", "", "store category to search within")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum results per store")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func scrapeOnce(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	query string,
	opts *scrapeOptions,
) ([]domain.NormalizedObservation, error) {
	n := newNormalizer(&cfg.Normalizer, log)
	target := extract.Target{Query: n.Query(query), Category: opts.category}
	if target.Query == "" {
		return nil, fmt.Errorf("query %q is empty after normalization", query)
	}

	var out []domain.NormalizedObservation
	matched := false
	for i := range cfg.Stores {
		sc := &cfg.Stores[i]
		if opts.store != "" && sc.Name != opts.store {
			continue
		}
		matched = true

		ex, err := newExtractor(sc)
		if err != nil {
			return nil, err
		}
		res, err := ex.Extract(ctx, target, opts.limit)
		if err != nil {
			log.Error("extraction failed", "store", sc.Name, "error", err)
			continue
		}
		for _, pe := range res.Skipped {
			log.Warn("skipped element", "store", sc.Name, "error", pe)
		}
		out = append(out, n.Batch(res.Observations, normalize.Source{
			Store:    sc.Name,
			BaseURL:  sc.BaseURL,
			Currency: sc.Currency,
		})...)
	}
	if !matched {
		return nil, fmt.Errorf("store %q is not configured", opts.store)
	}
	return out, nil
}

func printObservations(w io.Writer, obs []domain.NormalizedObservation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tNAME\tPRICE\tAVAILABILITY\tURL")
	for i := range obs {
		o := &obs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			o.Store, o.CanonicalName, o.Price.StringFixed(2), o.Currency, o.Availability, o.URL)
	}
	return tw.Flush()
}
