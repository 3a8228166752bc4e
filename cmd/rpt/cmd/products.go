package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/retail-price-tracker/internal/api/client"
)

func productsCmd() *cobra.Command {
	productsRoot := &cobra.Command{
		Use:   "products",
		Short: "Query tracked products",
		Long:  "Query tracked products and inspect their price history.",
	}

	productsRoot.AddCommand(
		productsListCmd(),
		productsGetCmd(),
		productsHistoryCmd(),
		productsTrendCmd(),
		productsStaleCmd(),
	)

	return productsRoot
}

func productsListCmd() *cobra.Command {
	var f apiclient.ProductFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products with optional filters",
		Example: `  # All products at one store
  rpt products list --store ksp

  # Products that stopped scraping
  rpt products list --stale`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := newClient().ListProducts(ctx, f)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Products) == 0 {
				fmt.Println("No products found.")
				return nil
			}
			fmt.Printf("Showing %d of %d products\n\n", len(resp.Products), resp.Total)
			return printProductsTable(os.Stdout, resp.Products)
		},
	}
	cmd.Flags().StringVar(&f.Store, "store", "", "store filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "name substring filter")
	cmd.Flags().BoolVar(&f.Stale, "stale", false, "only stale products")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "result offset")

	return cmd
}

func productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show product details",
		Example: `  rpt products get 6f1c...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			p, err := newClient().GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(p)
			}
			return printProductDetail(os.Stdout, p)
		},
	}
}

func productsHistoryCmd() *cobra.Command {
	var (
		since time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:     "history <id>",
		Short:   "Show price observations",
		Example: `  rpt products history 6f1c... --since 168h`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			obs, err := newClient().History(ctx, args[0], from, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(obs)
			}
			if len(obs) == 0 {
				fmt.Println("No observations.")
				return nil
			}
			return printHistoryTable(os.Stdout, obs)
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "only observations newer than this")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum observations")

	return cmd
}

func productsTrendCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "trend <id>",
		Short: "Summarize prices over a trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			t, err := newClient().Trend(ctx, args[0], window)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(t)
			}
			return printTrend(os.Stdout, t)
		},
	}
	cmd.Flags().DurationVar(&window, "window", 30*24*time.Hour, "trailing window")

	return cmd
}

func productsStaleCmd() *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "stale <id>",
		Short: "Mark a product stale, or clear the flag",
		Example: `  rpt products stale 6f1c...
  rpt products stale 6f1c... --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			if err := newClient().MarkStale(ctx, args[0], !unset); err != nil {
				return err
			}
			fmt.Printf("Product %s stale=%v\n", args[0], !unset)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "clear the stale flag")

	return cmd
}
