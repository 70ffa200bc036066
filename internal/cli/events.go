package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"reqsync/config"
	"reqsync/internal/messaging/consumer"
	"reqsync/internal/models"
)

// consumerFactory is replaced in tests.
var consumerFactory = func(cfg config.KafkaConsumerConfig, logger *log.Logger) (consumer.Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka_consumer.brokers is not configured")
	}
	return consumer.NewKafkaConsumer(cfg, logger)
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		maxEvents  int
		typeFilter string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow record lifecycle events (ingested, synced, rejected)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.EventType(typeFilter)
			switch filter {
			case "", models.EventIngested, models.EventSynced, models.EventRejected:
			default:
				return fmt.Errorf("invalid --type %q", typeFilter)
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			c, err := consumerFactory(cfg.KafkaConsumer, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			seen := 0
			for maxEvents <= 0 || seen < maxEvents {
				evt, ack, err := c.Consume(ctx)
				if err != nil {
					if ctx.Err() != nil || errors.Is(err, consumer.ErrClosed) {
						return nil
					}
					if errors.Is(err, consumer.ErrUndecodable) {
						continue
					}
					return err
				}
				ack(true)
				if filter != "" && evt.Type != filter {
					continue
				}
				seen++

				if rootOpts.Format == "json" {
					if err := writeJSON(cmd.OutOrStdout(), evt); err != nil {
						return err
					}
					continue
				}
				line := fmt.Sprintf("%s  %-8s  %s", evt.Timestamp, evt.Type, evt.RecordID)
				if evt.Reason != "" {
					line += "  " + evt.Reason
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxEvents, "max", "n", 0, "stop after this many events (0 follows until interrupted)")
	cmd.Flags().StringVar(&typeFilter, "type", "", "only events of this type (ingested|synced|rejected)")
	return cmd
}
