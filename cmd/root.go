package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "newswatch",
	Short: "Financial news ingestion and enrichment pipeline",
	Long:  "Fetches financial news from a NewsAPI-compatible feed, deduplicates and queues new articles, and enriches them with relevance, summary, and sentiment via Claude before persisting.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
