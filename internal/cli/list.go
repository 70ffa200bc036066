package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"reqsync/internal/models"
	"reqsync/storage/store"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var syncFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.SyncState(syncFilter)
			if filter != "" && !filter.Valid() {
				return fmt.Errorf("invalid --sync %q: must be pending, synced or rejected", syncFilter)
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			recordStore, err := store.New(cmd.Context(), cfg.Storage, newLogger(cmd))
			if err != nil {
				return err
			}
			defer recordStore.Close()

			records, err := recordStore.List(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]models.Record, 0, len(records))
			for _, rec := range records {
				if filter == "" || rec.SyncState == filter {
					out = append(out, rec)
				}
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tNAME\tMOBILE\tSYNC\tREASON")
			for _, rec := range out {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.CreatedAt.Format(time.RFC3339),
					rec.Payload.Name, rec.Payload.Mobile, rec.SyncState, rec.RejectReason)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&syncFilter, "sync", "", "only records in this sync state (pending|synced|rejected)")
	return cmd
}
