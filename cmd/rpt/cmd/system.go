package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			s, err := newClient().Stats(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printStats(os.Stdout, s)
		},
	}
}

func storesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "Show circuit breaker state and request quota per store",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			stores, err := newClient().Stores(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(stores)
			}
			return printStoresTable(os.Stdout, stores)
		},
	}
}

func notificationsCmd() *cobra.Command {
	var limit int

	root := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect notification delivery",
	}

	failed := &cobra.Command{
		Use:   "failed",
		Short: "List notifications that exhausted their retries",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			intents, err := newClient().FailedNotifications(ctx, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(intents)
			}
			if len(intents) == 0 {
				fmt.Println("No failed notifications.")
				return nil
			}
			return printIntentsTable(os.Stdout, intents)
		},
	}
	failed.Flags().IntVar(&limit, "limit", 50, "maximum results")

	root.AddCommand(failed)
	return root
}
