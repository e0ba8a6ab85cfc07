// Package dedup filters already-persisted articles out of a fetched batch
// before they reach the queue.
package dedup

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/store"
)

// Gate checks candidate articles against the article store by URL.
type Gate struct {
	store store.Store
}

// NewGate creates a dedup gate backed by the given store.
func NewGate(s store.Store) *Gate {
	return &Gate{store: s}
}

// Filter returns the candidates whose URLs are not yet persisted, plus the
// number of duplicates removed. The whole batch is checked with a single
// store lookup. A lookup failure fails open: the full batch passes through
// and the persistence layer's upsert absorbs any duplicates.
func (g *Gate) Filter(ctx context.Context, candidates []model.CandidateArticle) ([]model.CandidateArticle, int, error) {
	if len(candidates) == 0 {
		return nil, 0, nil
	}

	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.URL)
	}

	seen, err := g.store.ExistsByURL(ctx, urls)
	if err != nil {
		zap.L().Warn("dedup: lookup failed, passing batch through",
			zap.Int("candidates", len(candidates)),
			zap.Error(err))
		return candidates, 0, nil
	}

	fresh := make([]model.CandidateArticle, 0, len(candidates))
	duplicates := 0
	for _, c := range candidates {
		if seen[c.URL] {
			duplicates++
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, duplicates, nil
}
