package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/sentivision/pkg/logger"
)

func newMigrateCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := cc.ensureConfig(ctx)
			if err != nil {
				return err
			}
			store, err := cc.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Get().Info(ctx, "schema is up to date", logger.String("driver", cfg.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}
