// Package store persists enriched articles and tracked tickers.
package store

import (
	"context"

	"github.com/sells-group/newswatch/internal/model"
)

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// ExistsByURL returns, for the given batch of URLs, which ones already
	// have a persisted article. One round trip regardless of batch size.
	ExistsByURL(ctx context.Context, urls []string) (map[string]bool, error)

	// UpsertArticle inserts the article keyed by URL. A conflicting URL is
	// ignored (insert-or-ignore); the bool reports whether a row was written.
	UpsertArticle(ctx context.Context, article *model.EnrichedArticle) (bool, error)

	// ListTrackedTickers returns the ticker symbols the relevance gate
	// checks articles against.
	ListTrackedTickers(ctx context.Context) ([]string, error)

	// CountArticles returns the number of persisted articles, for the
	// status endpoint.
	CountArticles(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
