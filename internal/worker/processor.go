// Package worker consumes the durable queue and runs each article through
// the enrichment stages to persistence.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/enrich"
	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/store"
)

// Outcome describes how processing of one item ended.
type Outcome int

const (
	// OutcomePersisted means the article was enriched and written.
	OutcomePersisted Outcome = iota
	// OutcomeDuplicate means enrichment succeeded but the URL was already
	// persisted by an earlier delivery.
	OutcomeDuplicate
	// OutcomeDiscarded means the relevance gate rejected the article.
	OutcomeDiscarded
)

// Processor runs the enrichment state machine for a single queue item:
// relevance gate, then summarization, then sentiment, then persistence.
// A retried item restarts from the beginning; every stage is idempotent and
// the final upsert makes redelivery safe.
type Processor struct {
	analyzer *enrich.Analyzer
	store    store.Store
	tickers  TickerSource
	nowFunc  func() time.Time
}

// NewProcessor assembles a processor.
func NewProcessor(a *enrich.Analyzer, s store.Store, t TickerSource) *Processor {
	return &Processor{
		analyzer: a,
		store:    s,
		tickers:  t,
		nowFunc:  time.Now,
	}
}

// Process runs one item through the pipeline. A non-nil error means the item
// should be retried or dead-lettered by the caller; stage fallbacks inside
// the analyzer absorb capability outages, so errors here are rare.
func (p *Processor) Process(ctx context.Context, item *model.QueueItem) (Outcome, error) {
	article := item.Article
	log := zap.L().With(
		zap.String("item_id", item.ID),
		zap.String("url", article.URL),
	)

	tickers, err := p.tickers.Tickers(ctx)
	if err != nil {
		return 0, err
	}

	relevance, err := p.analyzer.CheckRelevance(ctx, article.Title, article.Body, tickers)
	if err != nil {
		return 0, err
	}
	if !relevance.Relevant {
		log.Debug("worker: article not relevant, discarding",
			zap.Float64("confidence", relevance.Confidence))
		return OutcomeDiscarded, nil
	}

	summary, err := p.analyzer.Summarize(ctx, article.Title, article.Body)
	if err != nil {
		return 0, err
	}

	sentiment, err := p.analyzer.ClassifySentiment(ctx, article.Title, article.Body)
	if err != nil {
		return 0, err
	}

	now := p.nowFunc().UTC()
	enriched := &model.EnrichedArticle{
		Title:               article.Title,
		URL:                 article.URL,
		Source:              article.Source,
		PublishedAt:         article.PublishedAt,
		Summary:             summary,
		SentimentScore:      sentiment.Score,
		SentimentLabel:      sentiment.Label,
		Companies:           relevance.Companies,
		RelevanceConfidence: relevance.Confidence,
		CreatedAt:           now,
		ProcessedAt:         now,
	}

	inserted, err := p.store.UpsertArticle(ctx, enriched)
	if err != nil {
		return 0, err
	}
	if !inserted {
		log.Debug("worker: article already persisted, dropping redelivery")
		return OutcomeDuplicate, nil
	}

	log.Info("worker: article persisted",
		zap.String("sentiment", string(sentiment.Label)),
		zap.Float64("score", sentiment.Score),
		zap.Strings("companies", relevance.Companies),
	)
	return OutcomePersisted, nil
}
