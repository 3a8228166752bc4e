package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const migrateTimeout = 60 * time.Second

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()

			s, err := openStore(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck // best-effort close after migrating

			log.Info("running migrations", "driver", cfg.Database.Driver)
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			log.Info("migrations complete")
			return nil
		},
	}
}
