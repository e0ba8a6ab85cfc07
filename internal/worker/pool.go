package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/queue"
	"github.com/sells-group/newswatch/pkg/anthropic"
)

// Options tunes the worker pool.
type Options struct {
	// Workers is the number of concurrent consumers. Default: 4.
	Workers int

	// MaxRetries is how many redeliveries an item gets before it is
	// dead-lettered. Default: 3.
	MaxRetries int

	// RetryDelay is the linear backoff unit between redeliveries; retry n
	// waits RetryDelay × n. Default: 30s.
	RetryDelay time.Duration

	// IdleDelay is how long a worker sleeps after finding the queue empty.
	// Default: 2s.
	IdleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 30 * time.Second
	}
	if o.IdleDelay <= 0 {
		o.IdleDelay = 2 * time.Second
	}
	return o
}

// Pool runs a fixed set of workers against the queue until the context is
// cancelled.
type Pool struct {
	queue queue.Queue
	proc  *Processor
	opts  Options
}

// NewPool creates a worker pool.
func NewPool(q queue.Queue, proc *Processor, opts Options) *Pool {
	return &Pool{queue: q, proc: proc, opts: opts.withDefaults()}
}

// Run blocks until ctx is cancelled, then waits for in-flight items to be
// released or acknowledged. The returned error is nil on a clean shutdown.
func (p *Pool) Run(ctx context.Context) error {
	zap.L().Info("worker: pool starting", zap.Int("workers", p.opts.Workers))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Workers; i++ {
		id := i
		g.Go(func() error {
			p.runWorker(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("worker: pool stopped")
	return nil
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	log := zap.L().With(zap.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return
		}

		item, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("worker: dequeue failed", zap.Error(err))
			p.sleep(ctx, p.opts.IdleDelay)
			continue
		}
		if item == nil {
			p.sleep(ctx, p.opts.IdleDelay)
			continue
		}

		p.handle(ctx, item, log)
	}
}

// handle processes one leased item and settles it with the queue. Settlement
// uses a background-derived context so a shutdown mid-item still releases
// the lease instead of waiting out the visibility timeout.
func (p *Pool) handle(ctx context.Context, item *model.QueueItem, log *zap.Logger) {
	outcome, err := p.proc.Process(ctx, item)

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown, not a processing failure: hand the item back at its
			// current retry count for immediate redelivery.
			if relErr := p.queue.Release(settleCtx, item.ID, item.RetryCount, 0); relErr != nil {
				log.Warn("worker: release on shutdown failed",
					zap.String("item_id", item.ID), zap.Error(relErr))
			}
			return
		}

		// A rejected capability request is deterministic; redelivery would
		// replay the same failure. Dead-letter it now.
		if anthropic.IsInvalidRequest(err) {
			log.Error("worker: capability rejected request, dead-lettering item",
				zap.String("item_id", item.ID),
				zap.String("url", item.Article.URL),
				zap.Error(err))
			if failErr := p.queue.Fail(settleCtx, item.ID, err.Error()); failErr != nil {
				log.Warn("worker: dead-letter failed",
					zap.String("item_id", item.ID), zap.Error(failErr))
			}
			return
		}

		next := item.RetryCount + 1
		if next > p.opts.MaxRetries {
			log.Error("worker: retries exhausted, dead-lettering item",
				zap.String("item_id", item.ID),
				zap.String("url", item.Article.URL),
				zap.Error(err))
			if failErr := p.queue.Fail(settleCtx, item.ID, err.Error()); failErr != nil {
				log.Warn("worker: dead-letter failed",
					zap.String("item_id", item.ID), zap.Error(failErr))
			}
			return
		}

		delay := p.opts.RetryDelay * time.Duration(next)
		log.Warn("worker: processing failed, scheduling retry",
			zap.String("item_id", item.ID),
			zap.Int("retry", next),
			zap.Duration("delay", delay),
			zap.Error(err))
		if relErr := p.queue.Release(settleCtx, item.ID, next, delay); relErr != nil {
			log.Warn("worker: release failed",
				zap.String("item_id", item.ID), zap.Error(relErr))
		}
		return
	}

	if ackErr := p.queue.Complete(settleCtx, item.ID); ackErr != nil {
		log.Warn("worker: ack failed, item will be redelivered",
			zap.String("item_id", item.ID),
			zap.Error(ackErr))
		return
	}

	switch outcome {
	case OutcomeDiscarded:
		log.Debug("worker: item discarded", zap.String("item_id", item.ID))
	case OutcomeDuplicate:
		log.Debug("worker: item was duplicate", zap.String("item_id", item.ID))
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
