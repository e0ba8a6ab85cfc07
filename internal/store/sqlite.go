package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/newswatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-node
// deployments and local development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying handle so the queue can share the same file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS articles (
	url                  TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	source               TEXT NOT NULL,
	published_at         DATETIME NOT NULL,
	summary              TEXT NOT NULL,
	sentiment_score      REAL NOT NULL,
	sentiment_label      TEXT NOT NULL,
	companies            TEXT NOT NULL DEFAULT '[]',
	relevance_confidence REAL NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	processed_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
CREATE INDEX IF NOT EXISTS idx_articles_sentiment_label ON articles(sentiment_label);

CREATE TABLE IF NOT EXISTS tracked_tickers (
	ticker     TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ExistsByURL(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return known, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := s.db.QueryContext(ctx, `SELECT url FROM articles WHERE url IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: exists by url")
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan url")
		}
		known[u] = true
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: exists by url rows")
	}
	return known, nil
}

func (s *SQLiteStore) UpsertArticle(ctx context.Context, article *model.EnrichedArticle) (bool, error) {
	companies, err := json.Marshal(article.Companies)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal companies")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (url, title, source, published_at, summary, sentiment_score, sentiment_label, companies, relevance_confidence, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING`,
		article.URL, article.Title, article.Source, article.PublishedAt,
		article.Summary, article.SentimentScore, string(article.SentimentLabel),
		string(companies), article.RelevanceConfidence, article.CreatedAt, article.ProcessedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: upsert article %s", article.URL)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) ListTrackedTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM tracked_tickers ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ticker")
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked tickers rows")
	}
	return tickers, nil
}

func (s *SQLiteStore) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count articles")
	}
	return n, nil
}
