package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestQuery string
	ingestHours int
	ingestPages int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one fetch-dedup-enqueue pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		query := ingestQuery
		if query == "" {
			query = cfg.Feed.Query
		}
		hours := ingestHours
		if hours <= 0 {
			hours = cfg.Feed.WindowHours
		}
		pages := ingestPages
		if pages <= 0 {
			pages = cfg.Feed.MaxPages
		}

		to := time.Now().UTC()
		from := to.Add(-time.Duration(hours) * time.Hour)

		result, err := env.Ingest.Run(ctx, query, from, to, pages)
		if err != nil {
			return err
		}

		zap.L().Info("ingestion finished",
			zap.Int("total", result.Total),
			zap.Int("new", result.New),
			zap.Int("duplicates", result.Duplicates),
			zap.Int("invalid", result.Invalid),
			zap.Int("failed", result.Failed),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "feed query (default from config)")
	ingestCmd.Flags().IntVar(&ingestHours, "hours", 0, "lookback window in hours (default from config)")
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "max pages to fetch (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
