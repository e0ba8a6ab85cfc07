package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/newswatch/internal/model"
)

// SQLiteQueue implements Queue on a SQLite table. Claiming is serialized by
// a transaction plus the busy timeout; adequate for single-node deployments.
type SQLiteQueue struct {
	db                *sql.DB
	visibilityTimeout time.Duration
	nowFunc           func() time.Time
}

// NewSQLite creates a queue sharing the store's database handle.
func NewSQLite(db *sql.DB, visibilityTimeout time.Duration) *SQLiteQueue {
	if visibilityTimeout <= 0 {
		visibilityTimeout = DefaultVisibilityTimeout
	}
	return &SQLiteQueue{
		db:                db,
		visibilityTimeout: visibilityTimeout,
		nowFunc:           time.Now,
	}
}

const sqliteQueueMigration = `
CREATE TABLE IF NOT EXISTS queue_items (
	id              TEXT PRIMARY KEY,
	article         TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'queued',
	retry_count     INTEGER NOT NULL DEFAULT 0,
	last_error      TEXT,
	enqueued_at     DATETIME NOT NULL,
	next_attempt_at DATETIME NOT NULL,
	leased_until    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_queue_items_status_next ON queue_items(status, next_attempt_at);
`

func (q *SQLiteQueue) Migrate(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, sqliteQueueMigration)
	return eris.Wrap(err, "queue: migrate")
}

// Close is a no-op; the handle is owned by the store.
func (q *SQLiteQueue) Close() error {
	return nil
}

func (q *SQLiteQueue) Enqueue(ctx context.Context, article model.CandidateArticle) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return eris.Wrap(err, "queue: marshal article")
	}

	now := q.nowFunc().UTC()
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO queue_items (id, article, status, retry_count, enqueued_at, next_attempt_at)
		VALUES (?, ?, 'queued', 0, ?, ?)`,
		uuid.New().String(), string(payload), now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: enqueue %s", article.URL)
	}
	return nil
}

func (q *SQLiteQueue) Dequeue(ctx context.Context) (*model.QueueItem, error) {
	now := q.nowFunc().UTC()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "queue: begin dequeue tx")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, article, retry_count, enqueued_at FROM queue_items
		WHERE (status = 'queued' AND next_attempt_at <= ?)
		   OR (status = 'processing' AND leased_until <= ?)
		ORDER BY enqueued_at
		LIMIT 1`,
		now, now,
	)

	var (
		item    model.QueueItem
		payload string
	)
	if err := row.Scan(&item.ID, &payload, &item.RetryCount, &item.EnqueuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "queue: dequeue scan")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE queue_items SET status = 'processing', leased_until = ? WHERE id = ?`,
		now.Add(q.visibilityTimeout), item.ID,
	); err != nil {
		return nil, eris.Wrapf(err, "queue: lease item %s", item.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "queue: commit dequeue tx")
	}

	if err := json.Unmarshal([]byte(payload), &item.Article); err != nil {
		return nil, eris.Wrapf(err, "queue: unmarshal article for item %s", item.ID)
	}
	return &item, nil
}

func (q *SQLiteQueue) Complete(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE queue_items SET status = 'done', leased_until = NULL WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "queue: complete %s", id)
	}
	return nil
}

func (q *SQLiteQueue) Release(ctx context.Context, id string, retryCount int, delay time.Duration) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE queue_items
		SET status = 'queued', retry_count = ?, next_attempt_at = ?, leased_until = NULL
		WHERE id = ?`,
		retryCount, q.nowFunc().UTC().Add(delay), id,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: release %s", id)
	}
	return nil
}

func (q *SQLiteQueue) Fail(ctx context.Context, id string, reason string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE queue_items SET status = 'dead', last_error = ?, leased_until = NULL WHERE id = ?`,
		reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: fail %s", id)
	}
	return nil
}

func (q *SQLiteQueue) Depth(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT count(*) FROM queue_items WHERE status IN ('queued', 'processing')`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "queue: depth")
	}
	return n, nil
}
