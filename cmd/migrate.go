package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables if they are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			e.logger.Info("migration complete")
			return nil
		},
	}
}
