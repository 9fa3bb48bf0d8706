package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// entityCounter is the part of the store the emptiness guard needs.
type entityCounter interface {
	CountEntities(ctx context.Context) (int, error)
}

type ingestOptions struct {
	force   bool
	migrate bool
}

func newIngestCmd() *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scrape the configured ID range and write it to Postgres",
		Long: `Seeds one job per ID, drains the queue with the worker pool, and writes
entities, types and type links in a single transaction. The run report is
printed as JSON and published to the configured topic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "ingest even when the catalog already holds rows (duplicates them)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "create missing tables before ingesting")
	return cmd
}

func runIngest(cmd *cobra.Command, opts *ingestOptions) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.migrate {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := guardEmpty(ctx, store, opts.force, e.logger); err != nil {
		return err
	}

	var cl closers
	defer cl.closeAll()
	pipeline, err := buildPipeline(ctx, e.cfg, store, e.logger, &cl)
	if err != nil {
		return err
	}

	report, runErr := pipeline.Run(ctx)
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		e.logger.Warn("print report failed", zap.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("ingest: %w", runErr)
	}
	return nil
}

// guardEmpty refuses to ingest into a populated catalog unless forced. The
// writer only inserts, so a second run would duplicate every row.
func guardEmpty(ctx context.Context, counter entityCounter, force bool, logger *zap.Logger) error {
	n, err := counter.CountEntities(ctx)
	if err != nil {
		return fmt.Errorf("count existing rows: %w", err)
	}
	if n == 0 {
		return nil
	}
	if !force {
		return fmt.Errorf("catalog already holds %d rows; pass --force to ingest again", n)
	}
	logger.Warn("ingesting into a populated catalog", zap.Int("existing_rows", n))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
