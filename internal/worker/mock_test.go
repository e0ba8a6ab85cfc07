package worker

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/pkg/anthropic"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ExistsByURL(ctx context.Context, urls []string) (map[string]bool, error) {
	args := m.Called(ctx, urls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockStore) UpsertArticle(ctx context.Context, article *model.EnrichedArticle) (bool, error) {
	args := m.Called(ctx, article)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ListTrackedTickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) CountArticles(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

type mockCapability struct {
	mock.Mock
}

func (m *mockCapability) Complete(ctx context.Context, req anthropic.CompletionRequest) (*anthropic.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.CompletionResponse), args.Error(1)
}

// recordingQueue captures settlement calls for pool tests.
type recordingQueue struct {
	mu       sync.Mutex
	items    []*model.QueueItem
	complete []string
	released []releaseCall
	failed   []failCall
}

type releaseCall struct {
	id         string
	retryCount int
	delay      time.Duration
}

type failCall struct {
	id     string
	reason string
}

func (q *recordingQueue) Enqueue(context.Context, model.CandidateArticle) error { return nil }

func (q *recordingQueue) Dequeue(context.Context) (*model.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (q *recordingQueue) Complete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.complete = append(q.complete, id)
	return nil
}

func (q *recordingQueue) Release(_ context.Context, id string, retryCount int, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released = append(q.released, releaseCall{id: id, retryCount: retryCount, delay: delay})
	return nil
}

func (q *recordingQueue) Fail(_ context.Context, id string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, failCall{id: id, reason: reason})
	return nil
}

func (q *recordingQueue) Depth(context.Context) (int, error) { return len(q.items), nil }
func (q *recordingQueue) Migrate(context.Context) error      { return nil }
func (q *recordingQueue) Close() error                       { return nil }
