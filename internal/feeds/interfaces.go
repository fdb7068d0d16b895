package feeds

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"comore/internal/domain"
)

type FeedStore interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Feed, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	ExistsByUserAndURL(ctx context.Context, userID int64, url string) (bool, error)
	Create(ctx context.Context, params domain.CreateFeedParams) (*domain.Feed, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
}

type ArticleStore interface {
	DeleteByFeedID(ctx context.Context, feedID int64) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
