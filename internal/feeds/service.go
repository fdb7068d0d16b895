package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"comore/internal/domain"
)

var (
	ErrFeedLimitExceeded = errors.New("feed limit exceeded")
	ErrFeedAlreadyExists = errors.New("feed url already exists for this user")
	ErrInvalidFeedURL    = errors.New("invalid feed url")
	ErrFeedNotFound      = errors.New("feed not found or access denied")
)

// Service owns feed lifecycle operations outside the ingestion loop.
type Service struct {
	feeds      FeedStore
	articles   ArticleStore
	txManager  TransactionManager
	logger     *slog.Logger
	maxPerUser int
}

func NewService(
	feeds FeedStore,
	articles ArticleStore,
	txManager TransactionManager,
	logger *slog.Logger,
	maxPerUser int,
) *Service {
	return &Service{
		feeds:      feeds,
		articles:   articles,
		txManager:  txManager,
		logger:     logger,
		maxPerUser: maxPerUser,
	}
}

func (s *Service) Create(ctx context.Context, params domain.CreateFeedParams) (*domain.Feed, error) {
	u, err := url.Parse(params.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidFeedURL
	}

	count, err := s.feeds.CountByUser(ctx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("count feeds: %w", err)
	}
	if count >= s.maxPerUser {
		return nil, ErrFeedLimitExceeded
	}

	exists, err := s.feeds.ExistsByUserAndURL(ctx, params.UserID, params.URL)
	if err != nil {
		return nil, fmt.Errorf("check feed url: %w", err)
	}
	if exists {
		return nil, ErrFeedAlreadyExists
	}

	if params.Title == "" {
		params.Title = params.URL
	}

	feed, err := s.feeds.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}

	s.logger.Info("feed created", "feed_id", feed.ID, "user_id", feed.UserID, "url", feed.URL)
	return feed, nil
}

// List returns all feeds owned by the user.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Feed, error) {
	feeds, err := s.feeds.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return feeds, nil
}

// Delete removes a feed and its articles in one transaction. Deleting the
// articles first is safe: when the feed row turns out not to belong to the
// caller, the transaction rolls back.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.articles.DeleteByFeedID(ctx, id); err != nil {
			return fmt.Errorf("delete articles: %w", err)
		}

		deleted, err := s.feeds.Delete(ctx, id, userID)
		if err != nil {
			return fmt.Errorf("delete feed: %w", err)
		}
		if !deleted {
			return ErrFeedNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("feed deleted", "feed_id", id, "user_id", userID)
	return nil
}
