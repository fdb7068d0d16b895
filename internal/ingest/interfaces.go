package ingest

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"comore/internal/domain"
)

type FeedStore interface {
	ListActive(ctx context.Context) ([]domain.Feed, error)
	MarkFetched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, params domain.CreateArticleParams) (*domain.Article, error)
}

type Parser interface {
	ParseURL(ctx context.Context, url string) (*domain.ParsedFeed, error)
}

type Enricher interface {
	FetchPreviewImage(ctx context.Context, url string) *string
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}
