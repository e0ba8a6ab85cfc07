package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/dedup"
	"github.com/sells-group/newswatch/internal/enrich"
	"github.com/sells-group/newswatch/internal/feed"
	"github.com/sells-group/newswatch/internal/ingest"
	"github.com/sells-group/newswatch/internal/queue"
	"github.com/sells-group/newswatch/internal/store"
	"github.com/sells-group/newswatch/internal/worker"
	anthropicpkg "github.com/sells-group/newswatch/pkg/anthropic"
	"github.com/sells-group/newswatch/pkg/newsapi"
)

// pipelineEnv holds the initialized store, queue, and services shared by the
// ingest/worker/schedule/serve commands.
type pipelineEnv struct {
	Store   store.Store
	Queue   queue.Queue
	Ingest  *ingest.Service
	Workers *worker.Pool
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Queue != nil {
		_ = pe.Queue.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initEnv sets up the store, queue, feed and capability clients, and builds
// the ingestion service and worker pool. Callers should defer env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Feed.Key == "" {
		return nil, eris.New("feed API key is required (NEWSWATCH_FEED_KEY)")
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (NEWSWATCH_ANTHROPIC_KEY)")
	}

	st, q, err := initBackend(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	if err := q.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate queue")
	}

	apiClient := newsapi.NewClient(cfg.Feed.Key, newsapi.WithBaseURL(cfg.Feed.BaseURL))
	feedClient := feed.NewClient(apiClient, feed.Options{
		PageSize:    cfg.Feed.PageSize,
		MaxRetries:  cfg.Feed.MaxRetries,
		RetryDelay:  cfg.Feed.RetryDelay(),
		MinInterval: cfg.Feed.MinInterval(),
	})

	gate := dedup.NewGate(st)
	broker := ingest.NewBroker(q, 0)
	svc := ingest.NewService(feedClient, gate, broker)

	capability := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithModel(cfg.Anthropic.Model),
		anthropicpkg.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
		anthropicpkg.WithRateLimit(cfg.Anthropic.RatePerSec, 1),
	)
	analyzer := enrich.NewAnalyzer(capability, enrich.Options{
		MaxContentLen: cfg.Enrich.MaxContentLen,
		SummaryMaxLen: cfg.Enrich.SummaryMaxLen,
	})

	tickers := worker.NewStoreTickerSource(st, cfg.Tickers)
	proc := worker.NewProcessor(analyzer, st, tickers)
	pool := worker.NewPool(q, proc, worker.Options{
		Workers:    cfg.Worker.Concurrency,
		MaxRetries: cfg.Worker.MaxRetries,
		RetryDelay: cfg.Worker.RetryDelay(),
	})

	zap.L().Info("environment initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("model", cfg.Anthropic.Model),
	)

	return &pipelineEnv{
		Store:   st,
		Queue:   q,
		Ingest:  svc,
		Workers: pool,
	}, nil
}

// initBackend creates the store and queue on the configured driver. Both
// share one database so a single transaction boundary covers lease updates.
func initBackend(ctx context.Context) (store.Store, queue.Queue, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "newswatch.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, queue.NewSQLite(st.DB(), cfg.Queue.VisibilityTimeout()), nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, nil, err
		}
		return st, queue.NewPostgres(st.Pool(), cfg.Queue.VisibilityTimeout()), nil
	default:
		return nil, nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
