package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/newswatch/internal/model"
)

// fakeQueue records enqueued articles and fails URLs on a deny list.
type fakeQueue struct {
	mu       sync.Mutex
	enqueued []model.CandidateArticle
	failURLs map[string]bool
}

func (q *fakeQueue) Enqueue(_ context.Context, article model.CandidateArticle) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failURLs[article.URL] {
		return errors.New("queue unavailable")
	}
	q.enqueued = append(q.enqueued, article)
	return nil
}

func (q *fakeQueue) Dequeue(context.Context) (*model.QueueItem, error) { return nil, nil }
func (q *fakeQueue) Complete(context.Context, string) error            { return nil }
func (q *fakeQueue) Release(context.Context, string, int, time.Duration) error {
	return nil
}
func (q *fakeQueue) Fail(context.Context, string, string) error { return nil }
func (q *fakeQueue) Depth(context.Context) (int, error)         { return 0, nil }
func (q *fakeQueue) Migrate(context.Context) error              { return nil }
func (q *fakeQueue) Close() error                               { return nil }

func candidates(urls ...string) []model.CandidateArticle {
	out := make([]model.CandidateArticle, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.CandidateArticle{
			Title:       "Title",
			URL:         u,
			Source:      "Example News",
			PublishedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		})
	}
	return out
}

func TestSubmitEnqueuesAll(t *testing.T) {
	q := &fakeQueue{}
	b := NewBroker(q, 4)

	result := b.Submit(context.Background(), candidates("https://a", "https://b", "https://c"))
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.New)
	assert.Zero(t, result.Failed)
	assert.Len(t, q.enqueued, 3)
}

func TestSubmitEmptyBatch(t *testing.T) {
	q := &fakeQueue{}
	b := NewBroker(q, 4)

	result := b.Submit(context.Background(), nil)
	assert.Zero(t, result.Total)
	assert.Zero(t, result.New)
}

func TestSubmitCountsFailuresWithoutBlockingRest(t *testing.T) {
	q := &fakeQueue{failURLs: map[string]bool{"https://b": true}}
	b := NewBroker(q, 2)

	result := b.Submit(context.Background(), candidates("https://a", "https://b", "https://c"))
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, q.enqueued, 2)
}
