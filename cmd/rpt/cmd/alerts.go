package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/retail-price-tracker/internal/api/client"
)

func alertsCmd() *cobra.Command {
	alertsRoot := &cobra.Command{
		Use:   "alerts",
		Short: "Manage price alerts",
		Long:  "Create, inspect and stop price alerts on tracked products.",
	}

	alertsRoot.AddCommand(
		alertsCreateCmd(),
		alertsListCmd(),
		alertsGetCmd(),
		alertsStopCmd(),
	)

	return alertsRoot
}

func alertsCreateCmd() *cobra.Command {
	var req apiclient.AlertRequest

	cmd := &cobra.Command{
		Use:   "create <product-id>",
		Short: "Alert a user when a product's price drops",
		Example: `  # Notify when the price is at or below 135
  rpt alerts create 6f1c... --user u-42 --threshold 135

  # Notify on a 10% drop from the current price, for 30 days
  rpt alerts create 6f1c... --user u-42 --condition percent_drop --drop 10 --days 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			req.ProductID = args[0]
			a, err := newClient().CreateAlert(ctx, &req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(a)
			}
			return printAlertDetail(os.Stdout, a)
		},
	}
	cmd.Flags().StringVar(&req.User, "user", "", "user reference (required)")
	cmd.Flags().StringVar(&req.Condition, "condition", "", "price_at_or_below, percent_drop or back_in_stock")
	cmd.Flags().StringVar(&req.Threshold, "threshold", "", "target price")
	cmd.Flags().Float64Var(&req.DropPercent, "drop", 0, "required drop in percent")
	cmd.Flags().StringVar(&req.ReferencePrice, "reference", "", "reference price for percent_drop")
	cmd.Flags().BoolVar(&req.Recurring, "recurring", false, "re-arm after firing")
	cmd.Flags().StringVar(&req.PollInterval, "poll", "", "check interval, e.g. 30m")
	cmd.Flags().IntVar(&req.DurationDays, "days", 0, "tracking duration in days (server default 7)")
	cmd.Flags().StringVar(&req.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "contact phone")
	cobra.CheckErr(cmd.MarkFlagRequired("user"))

	return cmd
}

func alertsListCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List a user's alerts",
		Example: `  rpt alerts list --user u-42`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			alerts, err := newClient().ListAlerts(ctx, user)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(alerts)
			}
			if len(alerts) == 0 {
				fmt.Println("No alerts found.")
				return nil
			}
			return printAlertsTable(os.Stdout, alerts)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user reference (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("user"))

	return cmd
}

func alertsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			a, err := newClient().GetAlert(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(a)
			}
			return printAlertDetail(os.Stdout, a)
		},
	}
}

func alertsStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			a, err := newClient().StopAlert(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Alert %s is %s\n", a.ID, a.State)
			return nil
		},
	}
}
