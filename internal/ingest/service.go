// Package ingest orchestrates one ingestion run: fetch from the feed,
// drop known URLs, enqueue the rest for enrichment.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/dedup"
	"github.com/sells-group/newswatch/internal/feed"
	"github.com/sells-group/newswatch/internal/model"
)

// Service wires the fetch, dedup, and enqueue steps of an ingestion run.
type Service struct {
	feed   *feed.Client
	gate   *dedup.Gate
	broker *Broker
}

// NewService assembles an ingestion service from its steps.
func NewService(f *feed.Client, g *dedup.Gate, b *Broker) *Service {
	return &Service{feed: f, gate: g, broker: b}
}

// Run executes one ingestion pass for the query over [from, to] and returns
// the batch tally. Partial fetches still flow through dedup and enqueue, so
// an upstream outage mid-pagination loses only the unfetched pages.
func (s *Service) Run(ctx context.Context, query string, from, to time.Time, maxPages int) (model.EnqueueResult, error) {
	log := zap.L().With(zap.String("query", query))

	candidates, stats, err := s.feed.Fetch(ctx, query, from, to, maxPages)
	if err != nil {
		return model.EnqueueResult{}, err
	}

	fresh, duplicates, err := s.gate.Filter(ctx, candidates)
	if err != nil {
		return model.EnqueueResult{}, err
	}

	result := s.broker.Submit(ctx, fresh)
	result.Total = stats.Fetched + stats.Invalid
	result.Duplicates = duplicates
	result.Invalid = stats.Invalid

	log.Info("ingest: run complete",
		zap.Int("total", result.Total),
		zap.Int("new", result.New),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", result.Invalid),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
