// Package enrich runs queued articles through the relevance, summarization,
// and sentiment stages backed by the completion capability.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/newswatch/internal/model"
	"github.com/sells-group/newswatch/internal/resilience"
	"github.com/sells-group/newswatch/pkg/anthropic"
)

const (
	// DefaultMaxContentLen caps article bodies before prompting.
	DefaultMaxContentLen = 2000

	// DefaultSummaryMaxLen bounds the summarization stage's output.
	DefaultSummaryMaxLen = 200
)

// Options tunes the analyzer's content and output bounds.
type Options struct {
	MaxContentLen int
	SummaryMaxLen int
}

func (o Options) withDefaults() Options {
	if o.MaxContentLen <= 0 {
		o.MaxContentLen = DefaultMaxContentLen
	}
	if o.SummaryMaxLen <= 0 {
		o.SummaryMaxLen = DefaultSummaryMaxLen
	}
	return o
}

// Analyzer implements the three enrichment stages. Each stage degrades to a
// documented fallback when the capability is unavailable; only a malformed
// request surfaces as an error.
type Analyzer struct {
	client  anthropic.Client
	breaker *resilience.CircuitBreaker
	opts    Options
}

// NewAnalyzer creates an analyzer around a completion client.
func NewAnalyzer(client anthropic.Client, opts Options) *Analyzer {
	return &Analyzer{
		client:  client,
		breaker: resilience.NewCircuitBreaker(circuitConfig()),
		opts:    opts.withDefaults(),
	}
}

// CheckRelevance determines whether the article concerns any tracked ticker.
// With no tracked tickers nothing can match, so no capability call is made.
// Capability failures fail open: the article stays in the pipeline at half
// confidence rather than being silently dropped.
func (a *Analyzer) CheckRelevance(ctx context.Context, title, body string, tickers []string) (model.RelevanceResult, error) {
	if len(tickers) == 0 {
		return model.RelevanceResult{Relevant: false, Companies: []string{}, Confidence: 0.0}, nil
	}

	content := Truncate(body, a.opts.MaxContentLen)
	resp, err := a.complete(ctx, relevanceSystem, relevancePrompt(title, content, tickers))
	if err != nil {
		if anthropic.IsInvalidRequest(err) {
			return model.RelevanceResult{}, err
		}
		zap.L().Warn("enrich: relevance check failed, keeping article",
			zap.String("title", title),
			zap.Error(err))
		return model.RelevanceResult{Relevant: true, Companies: []string{}, Confidence: 0.5}, nil
	}

	payload, err := parseRelevance(resp.Text)
	if err != nil {
		zap.L().Warn("enrich: unparseable relevance response, keeping article",
			zap.String("title", title),
			zap.Error(err))
		return model.RelevanceResult{Relevant: true, Companies: []string{}, Confidence: 0.5}, nil
	}

	companies := payload.Companies
	if companies == nil {
		companies = []string{}
	}
	return model.RelevanceResult{
		Relevant:   payload.Relevant,
		Companies:  companies,
		Confidence: payload.Confidence,
	}, nil
}

// Summarize produces a bounded summary of the article. On capability failure
// the truncated body stands in; the summary field is never left empty.
func (a *Analyzer) Summarize(ctx context.Context, title, body string) (string, error) {
	content := Truncate(body, a.opts.MaxContentLen)

	resp, err := a.complete(ctx, summarySystem, summaryPrompt(title, content, a.opts.SummaryMaxLen))
	if err != nil {
		if anthropic.IsInvalidRequest(err) {
			return "", err
		}
		zap.L().Warn("enrich: summarization failed, using truncated body",
			zap.String("title", title),
			zap.Error(err))
		return BoundSummary(content, a.opts.SummaryMaxLen), nil
	}

	summary := BoundSummary(resp.Text, a.opts.SummaryMaxLen)
	if summary == "" {
		summary = BoundSummary(content, a.opts.SummaryMaxLen)
	}
	return summary, nil
}

// ClassifySentiment scores the article's tone. Scores are clamped to [-1, 1]
// and labels normalized; capability failures degrade to a neutral result.
func (a *Analyzer) ClassifySentiment(ctx context.Context, title, body string) (model.SentimentResult, error) {
	content := Truncate(body, a.opts.MaxContentLen)

	neutral := model.SentimentResult{Score: 0.0, Label: model.SentimentNeutral, Confidence: 0.0}

	resp, err := a.complete(ctx, sentimentSystem, sentimentPrompt(title, content))
	if err != nil {
		if anthropic.IsInvalidRequest(err) {
			return model.SentimentResult{}, err
		}
		zap.L().Warn("enrich: sentiment classification failed, defaulting to neutral",
			zap.String("title", title),
			zap.Error(err))
		return neutral, nil
	}

	payload, err := parseSentiment(resp.Text)
	if err != nil {
		zap.L().Warn("enrich: unparseable sentiment response, defaulting to neutral",
			zap.String("title", title),
			zap.Error(err))
		return neutral, nil
	}

	return model.SentimentResult{
		Score:      model.ClampScore(payload.Score),
		Label:      model.NormalizeSentimentLabel(payload.Label),
		Confidence: payload.Confidence,
	}, nil
}

func circuitConfig() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("enrich: capability circuit state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
	return cfg
}

func (a *Analyzer) complete(ctx context.Context, system, prompt string) (*anthropic.CompletionResponse, error) {
	return resilience.ExecuteVal(ctx, a.breaker, func(ctx context.Context) (*anthropic.CompletionResponse, error) {
		return a.client.Complete(ctx, anthropic.CompletionRequest{
			System: system,
			Prompt: prompt,
		})
	})
}
