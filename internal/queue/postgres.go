package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/store"
)

// PostgresQueue implements Queue on a Postgres table. Dequeue uses
// FOR UPDATE SKIP LOCKED so concurrent workers never lease the same item.
type PostgresQueue struct {
	pool              store.Pool
	visibilityTimeout time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewPostgres creates a queue sharing the store's connection pool.
func NewPostgres(pool store.Pool, visibilityTimeout time.Duration) *PostgresQueue {
	if visibilityTimeout <= 0 {
		visibilityTimeout = DefaultVisibilityTimeout
	}
	return &PostgresQueue{
		pool:              pool,
		visibilityTimeout: visibilityTimeout,
		nowFunc:           time.Now,
	}
}

const postgresQueueMigration = `
CREATE TABLE IF NOT EXISTS queue_items (
	id              TEXT PRIMARY KEY,
	article         JSONB NOT NULL,
	status          TEXT NOT NULL DEFAULT 'queued',
	retry_count     INT NOT NULL DEFAULT 0,
	last_error      TEXT,
	enqueued_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	leased_until    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_queue_items_status_next ON queue_items(status, next_attempt_at);
CREATE INDEX IF NOT EXISTS idx_queue_items_leased_until ON queue_items(leased_until);
`

func (q *PostgresQueue) Migrate(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, postgresQueueMigration); err != nil {
		return eris.Wrap(err, "queue: migrate")
	}
	return nil
}

// Close is a no-op; the pool is owned by the store.
func (q *PostgresQueue) Close() error {
	return nil
}

func (q *PostgresQueue) Enqueue(ctx context.Context, article model.CandidateArticle) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return eris.Wrap(err, "queue: marshal article")
	}

	now := q.nowFunc().UTC()
	_, err = q.pool.Exec(ctx, `
		INSERT INTO queue_items (id, article, status, retry_count, enqueued_at, next_attempt_at)
		VALUES ($1, $2, 'queued', 0, $3, $3)`,
		uuid.New().String(), payload, now,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: enqueue %s", article.URL)
	}
	return nil
}

func (q *PostgresQueue) Dequeue(ctx context.Context) (*model.QueueItem, error) {
	now := q.nowFunc().UTC()

	// Claim either a ready queued item or a processing item whose lease
	// expired (crashed worker).
	row := q.pool.QueryRow(ctx, `
		UPDATE queue_items SET status = 'processing', leased_until = $1
		WHERE id = (
			SELECT id FROM queue_items
			WHERE (status = 'queued' AND next_attempt_at <= $2)
			   OR (status = 'processing' AND leased_until <= $2)
			ORDER BY enqueued_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, article, retry_count, enqueued_at`,
		now.Add(q.visibilityTimeout), now,
	)

	var (
		item    model.QueueItem
		payload []byte
	)
	if err := row.Scan(&item.ID, &payload, &item.RetryCount, &item.EnqueuedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "queue: dequeue")
	}

	if err := json.Unmarshal(payload, &item.Article); err != nil {
		return nil, eris.Wrapf(err, "queue: unmarshal article for item %s", item.ID)
	}
	return &item, nil
}

func (q *PostgresQueue) Complete(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE queue_items SET status = 'done', leased_until = NULL WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "queue: complete %s", id)
	}
	return nil
}

func (q *PostgresQueue) Release(ctx context.Context, id string, retryCount int, delay time.Duration) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE queue_items
		SET status = 'queued', retry_count = $1, next_attempt_at = $2, leased_until = NULL
		WHERE id = $3`,
		retryCount, q.nowFunc().UTC().Add(delay), id,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: release %s", id)
	}
	return nil
}

func (q *PostgresQueue) Fail(ctx context.Context, id string, reason string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE queue_items SET status = 'dead', last_error = $1, leased_until = NULL WHERE id = $2`,
		reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: fail %s", id)
	}
	return nil
}

func (q *PostgresQueue) Depth(ctx context.Context) (int, error) {
	var n int
	err := q.pool.QueryRow(ctx,
		`SELECT count(*) FROM queue_items WHERE status IN ('queued', 'processing')`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "queue: depth")
	}
	return n, nil
}
