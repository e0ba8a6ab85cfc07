package model

import "time"

// QueueItemStatus tracks the lifecycle of a queued article.
type QueueItemStatus string

const (
	QueueStatusQueued     QueueItemStatus = "queued"
	QueueStatusProcessing QueueItemStatus = "processing"
	QueueStatusDone       QueueItemStatus = "done"
	QueueStatusDead       QueueItemStatus = "dead"
)

// QueueItem wraps a CandidateArticle for transport to the worker pipeline.
// Items are durable rows in the queue backend and survive process restarts.
type QueueItem struct {
	ID         string           `json:"id"`
	Article    CandidateArticle `json:"article"`
	RetryCount int              `json:"retry_count"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
}

// EnqueueResult tallies the outcome of one ingestion run.
type EnqueueResult struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Failed     int `json:"failed"`
}

// Add merges another result into this one.
func (r *EnqueueResult) Add(other EnqueueResult) {
	r.Total += other.Total
	r.New += other.New
	r.Duplicates += other.Duplicates
	r.Invalid += other.Invalid
	r.Failed += other.Failed
}
