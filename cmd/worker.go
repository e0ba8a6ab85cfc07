package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCount int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the enrichment worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if workerCount > 0 {
			cfg.Worker.Concurrency = workerCount
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		depth, err := env.Queue.Depth(ctx)
		if err == nil {
			zap.L().Info("starting workers", zap.Int("queue_depth", depth))
		}

		return env.Workers.Run(ctx)
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "worker count (default from config)")
	rootCmd.AddCommand(workerCmd)
}
