package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_UpsertAndExists(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	inserted, err := s.UpsertArticle(ctx, enriched("https://a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	known, err := s.ExistsByURL(ctx, []string{"https://a", "https://b"})
	require.NoError(t, err)
	assert.True(t, known["https://a"])
	assert.False(t, known["https://b"])
}

func TestSQLiteStore_UpsertDuplicateIsIgnored(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := s.UpsertArticle(ctx, enriched("https://a"))
	require.NoError(t, err)
	assert.True(t, first)

	again := enriched("https://a")
	again.Summary = "different summary"
	second, err := s.UpsertArticle(ctx, again)
	require.NoError(t, err)
	assert.False(t, second)

	n, err := s.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_ExistsByURL_EmptyBatch(t *testing.T) {
	s := newTestSQLiteStore(t)

	known, err := s.ExistsByURL(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, known)
}

func TestSQLiteStore_ListTrackedTickers(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	tickers, err := s.ListTrackedTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickers)

	_, err = s.DB().ExecContext(ctx, `INSERT INTO tracked_tickers (ticker) VALUES ('NVDA'), ('AAPL')`)
	require.NoError(t, err)

	tickers, err = s.ListTrackedTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, tickers)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}
