package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reqsync/internal/messaging/producer"
	worker "reqsync/processing"
	remote "reqsync/remote/client"
	"reqsync/storage/store"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass against the configured store",
		Long: `Run one reconciliation pass: probe the admin system, then push every
pending record once. Do not run it against a pebble store that the
ingestion service currently holds open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			ctx := cmd.Context()

			client, err := remote.NewHTTPClient(cfg.Remote, logger)
			if err != nil {
				return err
			}
			recordStore, err := store.New(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer recordStore.Close()

			eventProducer, err := producer.New(cfg.KafkaProducer, logger)
			if err != nil {
				return err
			}
			defer eventProducer.Close()

			stats := worker.New(cfg.Reconciler, logger, recordStore, client, client, eventProducer).RunOnce(ctx)

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"skipped":     stats.Skipped,
					"pending":     stats.Pending,
					"attempted":   stats.Attempted,
					"synced":      stats.Synced,
					"rejected":    stats.Rejected,
					"unreachable": stats.Unreachable,
					"duration_ms": stats.Duration.Milliseconds(),
				})
			}
			if stats.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "remote unreachable, pass skipped")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending=%d attempted=%d synced=%d rejected=%d unreachable=%d (%v)\n",
				stats.Pending, stats.Attempted, stats.Synced, stats.Rejected, stats.Unreachable, stats.Duration)
			return nil
		},
	}
}
