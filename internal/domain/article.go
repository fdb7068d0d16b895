package domain

import "time"

type Article struct {
	ID          int64      `db:"id" json:"id"`
	FeedID      int64      `db:"feed_id" json:"feed_id"`
	Title       string     `db:"title" json:"title"`
	URL         string     `db:"url" json:"url"`
	Description *string    `db:"description" json:"description"`
	Content     *string    `db:"content" json:"content"`
	Author      *string    `db:"author" json:"author"`
	OGImageURL  *string    `db:"og_image_url" json:"og_image_url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateArticleParams struct {
	FeedID      int64
	Title       string
	URL         string
	Description *string
	Content     *string
	Author      *string
	OGImageURL  *string
	PublishedAt *time.Time
}
