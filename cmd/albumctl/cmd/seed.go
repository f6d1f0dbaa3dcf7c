package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/postgres"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		sink     string
		truncate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write generated records to Kafka or PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			ctx := cmd.Context()
			records := dataset.Generate(dataset.ShapeFrom(cfg.Dataset))
			log := slog.Default().With("component", "seed", "sink", sink)

			switch sink {
			case "kafka":
				producer := kafka.NewProducer(cfg.Kafka)
				defer producer.Close()
				if err := dataset.PublishRecords(ctx, producer, records); err != nil {
					return err
				}
			case "postgres":
				client, err := postgres.New(ctx, cfg.Postgres)
				if err != nil {
					return err
				}
				defer client.Close()
				if err := dataset.NewPostgresSink(client).Write(ctx, records, truncate); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown sink %q: must be kafka or postgres", sink)
			}
			log.Info("records seeded", "count", len(records))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records into %s\n", len(records), sink)
			return nil
		},
	}

	cmd.Flags().StringVar(&sink, "sink", "kafka", "destination: kafka or postgres")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "empty the postgres table first")
	return cmd
}
