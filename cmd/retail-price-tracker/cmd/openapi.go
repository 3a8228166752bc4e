package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func openapiCommand() *cobra.Command {
	var (
		output string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Write the OpenAPI document for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Routes only need their types; no store or engine is contacted.
			_, api := newServer(nil, nil, slog.New(slog.DiscardHandler))

			render := api.OpenAPI().MarshalJSON
			if asYAML {
				render = api.OpenAPI().YAML
			}
			data, err := render()
			if err != nil {
				return fmt.Errorf("rendering openapi: %w", err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "OpenAPI document written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write YAML instead of JSON")
	return cmd
}
