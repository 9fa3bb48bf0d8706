package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <id-or-name>",
		Short: "Print one catalog entry as JSON",
		Long: `Looks an entry up by numeric ID or by name (case-insensitive). When
nothing matches, the placeholder entry is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Lookup(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup %q: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), entry)
		},
	}
}
