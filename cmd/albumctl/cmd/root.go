// Package cmd provides the albumctl subcommands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/logger"
	"github.com/spf13/cobra"
)

type cfgKey struct{}

// NewRootCmd creates the albumctl root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "albumctl",
		Short:         "Benchmark, seed and query album credit stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKey{}, cfg))
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newLookupCmd())
	return cmd
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(cfgKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// logClose runs closeFn and logs, rather than returns, its error.
func logClose(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		slog.Warn("closing "+what, "error", err)
	}
}
