// Package feed implements the article source client: page-by-page fetching
// from the upstream feed under rate limiting and retry discipline, with
// validation of raw entries into CandidateArticles.
package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/resilience"
	"github.com/sells-group/newswatch/pkg/newsapi"
)

// Options tunes the source client.
type Options struct {
	// PageSize is the number of entries requested per page. Default: 100.
	PageSize int

	// MaxRetries is the total number of attempts per page. Default: 3.
	MaxRetries int

	// RetryDelay is the linear backoff unit for transport errors. Default: 5s.
	RetryDelay time.Duration

	// RateLimitDelay is the linear backoff unit applied on an upstream
	// rate-limit signal. Default: 60s.
	RateLimitDelay time.Duration

	// MinInterval is the minimum time between the completion of one feed
	// request and the start of the next, including retries. Default: 1s.
	MinInterval time.Duration

	// Now and Sleep are injectable for tests; nil means wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.RateLimitDelay <= 0 {
		o.RateLimitDelay = 60 * time.Second
	}
	if o.MinInterval <= 0 {
		o.MinInterval = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		}
	}
	return o
}

// FetchStats reports what happened during a fetch for observability.
type FetchStats struct {
	Pages   int `json:"pages"`
	Fetched int `json:"fetched"`
	Invalid int `json:"invalid"`
}

// Client fetches and validates candidate articles. Pages are fetched strictly
// sequentially; the pacer serializes requests against the upstream rate budget.
type Client struct {
	api  newsapi.Client
	opts Options

	// mu serializes whole Fetch calls. The upstream rate budget is shared,
	// so two callers must never run interleaved fetch loops.
	mu sync.Mutex

	// lastDone is the completion time of the previous feed request. Zero
	// until the first request finishes. Guarded by mu.
	lastDone time.Time
}

// NewClient creates a source client over the given feed API.
func NewClient(api newsapi.Client, opts Options) *Client {
	return &Client{api: api, opts: opts.withDefaults()}
}

// Fetch retrieves up to maxPages pages for the query and time window,
// materializing validated CandidateArticles page by page. Pagination stops at
// the first empty page, the first short page, or maxPages. A page that
// exhausts its retries ends pagination early; pages fetched before it are
// still returned.
func (c *Client) Fetch(ctx context.Context, query string, from, to time.Time, maxPages int) ([]model.CandidateArticle, FetchStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := zap.L().With(zap.String("query", query))

	var (
		out   []model.CandidateArticle
		stats FetchStats
	)

	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, query, from, to, page)
		if err != nil {
			if ctx.Err() != nil {
				return out, stats, ctx.Err()
			}
			// Degrade: treat a dead page as the last page rather than
			// discarding everything fetched so far.
			log.Warn("feed: page fetch exhausted retries, stopping pagination",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		stats.Pages++
		if len(resp.Articles) == 0 {
			break
		}

		for i := range resp.Articles {
			candidate := toCandidate(&resp.Articles[i])
			if err := candidate.Validate(); err != nil {
				stats.Invalid++
				log.Debug("feed: rejecting invalid entry",
					zap.String("url", candidate.URL),
					zap.Error(err),
				)
				continue
			}
			out = append(out, candidate)
			stats.Fetched++
		}

		// A short page is the upstream's last-page signal.
		if len(resp.Articles) < c.opts.PageSize {
			break
		}
	}

	log.Info("feed: fetch complete",
		zap.Int("pages", stats.Pages),
		zap.Int("fetched", stats.Fetched),
		zap.Int("invalid", stats.Invalid),
	)

	return out, stats, nil
}

// fetchPage fetches a single page with retries. Every attempt waits out the
// min-interval floor relative to the previous request's completion.
func (c *Client) fetchPage(ctx context.Context, query string, from, to time.Time, page int) (*newsapi.EverythingResponse, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    c.opts.MaxRetries,
		Delay:          c.opts.RetryDelay,
		RateLimitDelay: c.opts.RateLimitDelay,
		Sleep:          c.opts.Sleep,
		OnRetry:        resilience.RetryLogger("newsapi", "everything"),
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*newsapi.EverythingResponse, error) {
		c.pace(ctx)
		resp, err := c.api.Everything(ctx, newsapi.EverythingRequest{
			Query:    query,
			From:     from,
			To:       to,
			Page:     page,
			PageSize: c.opts.PageSize,
		})
		c.lastDone = c.opts.Now()
		return resp, err
	})
}

// pace blocks until at least MinInterval has elapsed since the previous
// request completed.
func (c *Client) pace(ctx context.Context) {
	if c.lastDone.IsZero() {
		return
	}
	elapsed := c.opts.Now().Sub(c.lastDone)
	if wait := c.opts.MinInterval - elapsed; wait > 0 {
		c.opts.Sleep(ctx, wait)
	}
}

// toCandidate converts a raw feed entry into the pipeline's typed shape.
// Description is preferred for the body; some feeds only populate content.
func toCandidate(a *newsapi.Article) model.CandidateArticle {
	body := a.Description
	if body == "" {
		body = a.Content
	}
	return model.CandidateArticle{
		Title:       a.Title,
		URL:         a.URL,
		Source:      a.Source.Name,
		PublishedAt: a.PublishedAt,
		Body:        body,
	}
}
