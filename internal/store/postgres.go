package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/newswatch/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool returns the underlying database pool so the queue can share it.
func (s *PostgresStore) Pool() Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS articles (
	url                  TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	source               TEXT NOT NULL,
	published_at         TIMESTAMPTZ NOT NULL,
	summary              TEXT NOT NULL,
	sentiment_score      DOUBLE PRECISION NOT NULL,
	sentiment_label      TEXT NOT NULL,
	companies            JSONB NOT NULL DEFAULT '[]',
	relevance_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
CREATE INDEX IF NOT EXISTS idx_articles_sentiment_label ON articles(sentiment_label);

CREATE TABLE IF NOT EXISTS tracked_tickers (
	ticker     TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ExistsByURL(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return known, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT url FROM articles WHERE url = ANY($1)`, urls)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: exists by url")
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "postgres: scan url")
		}
		known[u] = true
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: exists by url rows")
	}
	return known, nil
}

func (s *PostgresStore) UpsertArticle(ctx context.Context, article *model.EnrichedArticle) (bool, error) {
	companies, err := json.Marshal(article.Companies)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal companies")
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO articles (url, title, source, published_at, summary, sentiment_score, sentiment_label, companies, relevance_confidence, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (url) DO NOTHING`,
		article.URL, article.Title, article.Source, article.PublishedAt,
		article.Summary, article.SentimentScore, string(article.SentimentLabel),
		companies, article.RelevanceConfidence, article.CreatedAt, article.ProcessedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: upsert article %s", article.URL)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListTrackedTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT ticker FROM tracked_tickers ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticker")
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked tickers rows")
	}
	return tickers, nil
}

func (s *PostgresStore) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count articles")
	}
	return n, nil
}
