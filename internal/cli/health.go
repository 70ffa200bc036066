package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	remote "reqsync/remote/client"
)

// ErrRemoteUnreachable makes relayctl exit non-zero when the probe fails.
var ErrRemoteUnreachable = errors.New("remote unreachable")

// NewHealthCommand creates the health command.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the admin system's health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			client, err := remote.NewHTTPClient(cfg.Remote, newLogger(cmd))
			if err != nil {
				return err
			}

			reachable := client.IsReachable(cmd.Context())
			if rootOpts.Format == "json" {
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{"remote": client.BaseURL(), "reachable": reachable}); err != nil {
					return err
				}
			} else {
				state := "reachable"
				if !reachable {
					state = "unreachable"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.BaseURL(), state)
			}

			if !reachable {
				return ErrRemoteUnreachable
			}
			return nil
		},
	}
}
