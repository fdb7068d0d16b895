package domain

import "time"

type Feed struct {
	ID               int64      `db:"id" json:"id"`
	UserID           int64      `db:"user_id" json:"user_id"`
	URL              string     `db:"url" json:"url"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	LastFetchedAt    *time.Time `db:"last_fetched_at" json:"last_fetched_at"`
	LastErrorAt      *time.Time `db:"last_error_at" json:"last_error_at"`
	LastErrorMessage *string    `db:"last_error_message" json:"last_error_message"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateFeedParams struct {
	UserID      int64
	URL         string
	Title       string
	Description *string
}

// ParsedFeed is the result of fetching and parsing a feed URL.
type ParsedFeed struct {
	Title string
	Items []ParsedItem
}

// ParsedItem is a single entry from a parsed feed. Link may be empty for
// malformed entries; such items are skipped during ingestion.
type ParsedItem struct {
	Title       string
	Link        string
	Content     string
	Snippet     string
	Author      string
	PublishedAt *time.Time
}
