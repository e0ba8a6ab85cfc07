package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleInterval time.Duration

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run ingestion periodically on a fixed interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		interval := scheduleInterval
		if interval <= 0 {
			interval = cfg.Schedule.Interval()
		}

		zap.L().Info("schedule started", zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// First run immediately, then on every tick.
		for {
			runScheduledIngest(ctx, env)

			select {
			case <-ctx.Done():
				zap.L().Info("schedule stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func runScheduledIngest(ctx context.Context, env *pipelineEnv) {
	if ctx.Err() != nil {
		return
	}

	to := time.Now().UTC()
	from := to.Add(-time.Duration(cfg.Feed.WindowHours) * time.Hour)

	result, err := env.Ingest.Run(ctx, cfg.Feed.Query, from, to, cfg.Feed.MaxPages)
	if err != nil {
		zap.L().Error("scheduled ingestion failed", zap.Error(err))
		return
	}
	zap.L().Info("scheduled ingestion finished",
		zap.Int("new", result.New),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", result.Invalid),
		zap.Int("failed", result.Failed),
	)
}

func init() {
	scheduleCmd.Flags().DurationVar(&scheduleInterval, "interval", 0, "run interval (default from config)")
	rootCmd.AddCommand(scheduleCmd)
}
