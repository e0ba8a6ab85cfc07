// Package queue provides the durable work queue between ingestion and the
// enrichment workers. Items survive process restarts; delivery is
// at-least-once with lease-based redelivery after a crash.
package queue

import (
	"context"
	"time"

	"github.com/sells-group/newswatch/internal/model"
)

// DefaultVisibilityTimeout is how long a dequeued item stays leased to a
// worker before it becomes eligible for redelivery.
const DefaultVisibilityTimeout = 5 * time.Minute

// Queue is the broker-agnostic work queue contract. Backends guarantee an
// item is leased to at most one worker at a time.
type Queue interface {
	// Enqueue accepts an article for asynchronous processing.
	Enqueue(ctx context.Context, article model.CandidateArticle) error

	// Dequeue leases the next available item, or returns (nil, nil) when
	// the queue is empty.
	Dequeue(ctx context.Context) (*model.QueueItem, error)

	// Complete acknowledges successful processing of a leased item.
	Complete(ctx context.Context, id string) error

	// Release returns a leased item to the queue for redelivery after
	// delay, recording the new retry count.
	Release(ctx context.Context, id string, retryCount int, delay time.Duration) error

	// Fail marks a leased item as dead after retry exhaustion. Dead items
	// do not re-enter the queue.
	Fail(ctx context.Context, id string, reason string) error

	// Depth returns the number of items queued or in flight.
	Depth(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
