package ingest

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/queue"
)

// defaultSubmitConcurrency bounds parallel enqueue calls per batch.
const defaultSubmitConcurrency = 8

// Broker hands deduplicated candidates to the durable queue. Individual
// enqueue failures are counted, not fatal; the rest of the batch proceeds.
type Broker struct {
	queue       queue.Queue
	concurrency int
}

// NewBroker creates a broker over the given queue.
func NewBroker(q queue.Queue, concurrency int) *Broker {
	if concurrency <= 0 {
		concurrency = defaultSubmitConcurrency
	}
	return &Broker{queue: q, concurrency: concurrency}
}

// Submit enqueues the batch and returns the per-item tally. Context
// cancellation stops submission; items not yet attempted count as failed.
func (b *Broker) Submit(ctx context.Context, candidates []model.CandidateArticle) model.EnqueueResult {
	result := model.EnqueueResult{Total: len(candidates)}
	if len(candidates) == 0 {
		return result
	}

	var (
		mu       sync.Mutex
		enqueued int
		failed   int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range candidates {
		candidate := candidates[i]
		g.Go(func() error {
			err := b.queue.Enqueue(ctx, candidate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				zap.L().Warn("ingest: enqueue failed",
					zap.String("url", candidate.URL),
					zap.Error(err))
				return nil
			}
			enqueued++
			return nil
		})
	}
	_ = g.Wait()

	result.New = enqueued
	result.Failed = failed
	return result
}
