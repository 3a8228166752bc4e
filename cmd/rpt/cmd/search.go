package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		category string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tracked products, scraping stores on a miss",
		Long: "Search returns products already tracked. When nothing matches,\n" +
			"the server queues a scrape of every store and the command reports\n" +
			"the queued jobs; run it again once they finish.",
		Example: `  rpt search "מעבד Intel i7"
  rpt search "sony wh-1000xm5" --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			res, err := newClient().Search(ctx, args[0], category, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}

			switch res.Status {
			case "scrape_requested":
				fmt.Printf("No cached results. Queued %d scrape job(s).\n", len(res.Jobs))
				return nil
			case "scrape_in_flight":
				fmt.Println("No cached results yet. A scrape for this query is already running.")
				return nil
			}
			return printProductsTable(os.Stdout, res.Products)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "store category")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")

	return cmd
}

func scrapeCmd() *cobra.Command {
	var (
		category  string
		productID string
	)

	cmd := &cobra.Command{
		Use:   "scrape [query]",
		Short: "Queue a store search or refresh one product",
		Example: `  rpt scrape "sony wh-1000xm5"
  rpt scrape --product 6f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			c := newClient()
			if productID != "" {
				if len(args) > 0 {
					return errors.New("pass either a query or --product, not both")
				}
				if err := c.RefreshProduct(ctx, productID); err != nil {
					return err
				}
				fmt.Printf("Refresh of %s queued\n", productID)
				return nil
			}
			if len(args) == 0 {
				return errors.New("a query or --product is required")
			}

			jobs, err := c.RequestScrape(ctx, args[0], category)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(jobs)
			}
			for i := range jobs {
				fmt.Printf("queued %s\n", jobs[i].Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "store category")
	cmd.Flags().StringVar(&productID, "product", "", "product ID to refresh")

	return cmd
}
