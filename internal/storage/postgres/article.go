package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"comore/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Exists reports whether an article with the exact URL is already stored.
// This is the dedup gate; the unique index on url is the authoritative guard.
func (s *ArticleStore) Exists(ctx context.Context, url string) (bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		"SELECT id FROM articles WHERE url = $1", url)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ArticleStore) Create(ctx context.Context, params domain.CreateArticleParams) (*domain.Article, error) {
	query := `
		INSERT INTO articles (
			feed_id, title, url, description, content, author,
			og_image_url, published_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, feed_id, title, url, description, content, author,
		          og_image_url, published_at, created_at, updated_at`

	var article domain.Article
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &article, query,
		params.FeedID,
		params.Title,
		params.URL,
		params.Description,
		params.Content,
		params.Author,
		params.OGImageURL,
		params.PublishedAt,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleStore) DeleteByFeedID(ctx context.Context, feedID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM articles WHERE feed_id = $1", feedID)
	return err
}
