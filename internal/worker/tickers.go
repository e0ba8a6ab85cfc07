package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/store"
)

// tickerCacheTTL bounds how stale the tracked-ticker set may get between
// store reads.
const tickerCacheTTL = 5 * time.Minute

// TickerSource supplies the tracked tickers the relevance gate checks
// articles against.
type TickerSource interface {
	Tickers(ctx context.Context) ([]string, error)
}

// StoreTickerSource reads tracked tickers from the store with a short cache.
// An empty store falls back to the statically configured set, and a read
// failure falls back to the last known set.
type StoreTickerSource struct {
	store    store.Store
	fallback []string

	mu        sync.Mutex
	cached    []string
	fetchedAt time.Time
	nowFunc   func() time.Time
}

// NewStoreTickerSource creates a ticker source over the store with the given
// configured fallback set.
func NewStoreTickerSource(s store.Store, fallback []string) *StoreTickerSource {
	return &StoreTickerSource{
		store:    s,
		fallback: fallback,
		nowFunc:  time.Now,
	}
}

func (t *StoreTickerSource) Tickers(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached != nil && t.nowFunc().Sub(t.fetchedAt) < tickerCacheTTL {
		return t.cached, nil
	}

	tickers, err := t.store.ListTrackedTickers(ctx)
	if err != nil {
		zap.L().Warn("worker: tracked ticker lookup failed, using last known set", zap.Error(err))
		if t.cached != nil {
			return t.cached, nil
		}
		return t.fallback, nil
	}
	if len(tickers) == 0 {
		tickers = t.fallback
	}

	t.cached = tickers
	t.fetchedAt = t.nowFunc()
	return tickers, nil
}

// StaticTickerSource serves a fixed ticker set, for tests and for running
// without a tracked-ticker table.
type StaticTickerSource []string

func (t StaticTickerSource) Tickers(context.Context) ([]string, error) {
	return t, nil
}
