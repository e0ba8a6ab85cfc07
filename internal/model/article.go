package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// SentimentLabel categorizes an article's sentiment.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// NormalizeSentimentLabel maps arbitrary capability output onto one of the
// three supported labels. Anything unrecognized becomes neutral.
func NormalizeSentimentLabel(s string) SentimentLabel {
	switch SentimentLabel(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return SentimentLabel(s)
	default:
		return SentimentNeutral
	}
}

// ClampScore bounds a sentiment score to [-1.0, 1.0].
func ClampScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}

// CandidateArticle is a raw article as produced by the feed client, before
// enrichment. The canonical URL is its natural key.
type CandidateArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body"`
}

// Validate checks the fields required before an article may enter the
// dedup and enqueue path.
func (a *CandidateArticle) Validate() error {
	switch {
	case a.Title == "":
		return eris.New("article: missing title")
	case a.URL == "":
		return eris.New("article: missing url")
	case a.Source == "":
		return eris.New("article: missing source")
	case a.PublishedAt.IsZero():
		return eris.New("article: missing published timestamp")
	}
	return nil
}

// EnrichedArticle is the persisted record produced by the worker pipeline.
type EnrichedArticle struct {
	Title               string         `json:"title"`
	URL                 string         `json:"url"`
	Source              string         `json:"source"`
	PublishedAt         time.Time      `json:"published_at"`
	Summary             string         `json:"summary"`
	SentimentScore      float64        `json:"sentiment_score"`
	SentimentLabel      SentimentLabel `json:"sentiment_label"`
	Companies           []string       `json:"companies"`
	RelevanceConfidence float64        `json:"relevance_confidence"`
	CreatedAt           time.Time      `json:"created_at"`
	ProcessedAt         time.Time      `json:"processed_at"`
}

// RelevanceResult is the outcome of the relevance gate stage.
type RelevanceResult struct {
	Relevant   bool     `json:"relevant"`
	Companies  []string `json:"companies"`
	Confidence float64  `json:"confidence"`
}

// SentimentResult is the outcome of the sentiment classification stage.
type SentimentResult struct {
	Score      float64        `json:"sentiment_score"`
	Label      SentimentLabel `json:"sentiment_label"`
	Confidence float64        `json:"confidence"`
}
