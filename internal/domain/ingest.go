package domain

import "time"

// FeedResult holds the per-feed outcome of one ingestion attempt.
type FeedResult struct {
	Processed int
	Errors    int
}

// IngestStats holds statistics about a full ingestion run.
type IngestStats struct {
	Feeds     int
	Processed int
	Errors    int
	Duration  time.Duration
}
