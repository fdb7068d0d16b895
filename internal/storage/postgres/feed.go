package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"comore/internal/domain"
)

type FeedStore struct {
	db *sqlx.DB
}

func NewFeedStore(db *sqlx.DB) *FeedStore {
	return &FeedStore{db: db}
}

// ListActive returns every feed the orchestrator should consider, in no
// particular order.
func (s *FeedStore) ListActive(ctx context.Context) ([]domain.Feed, error) {
	query := `
		SELECT id, user_id, url, title, description, is_active,
		       last_fetched_at, last_error_at, last_error_message,
		       created_at, updated_at
		FROM feeds
		WHERE is_active = true`

	var feeds []domain.Feed
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &feeds, query)
	return feeds, err
}

// MarkFetched records a successful fetch and clears any previous error state.
func (s *FeedStore) MarkFetched(ctx context.Context, id int64) error {
	query := `
		UPDATE feeds
		SET last_fetched_at = $2,
		    last_error_at = NULL,
		    last_error_message = NULL,
		    updated_at = $2
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, time.Now())
	return err
}

// MarkFailed records a failed fetch attempt along with the error message.
func (s *FeedStore) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE feeds
		SET last_fetched_at = $2,
		    last_error_at = $2,
		    last_error_message = $3,
		    updated_at = $2
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, time.Now(), message)
	return err
}

// ListByUser returns the user's feeds, newest first.
func (s *FeedStore) ListByUser(ctx context.Context, userID int64) ([]domain.Feed, error) {
	query := `
		SELECT id, user_id, url, title, description, is_active,
		       last_fetched_at, last_error_at, last_error_message,
		       created_at, updated_at
		FROM feeds
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var feeds []domain.Feed
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &feeds, query, userID)
	return feeds, err
}

func (s *FeedStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM feeds WHERE user_id = $1", userID)
	return count, err
}

func (s *FeedStore) ExistsByUserAndURL(ctx context.Context, userID int64, url string) (bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		"SELECT id FROM feeds WHERE user_id = $1 AND url = $2", userID, url)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FeedStore) Create(ctx context.Context, params domain.CreateFeedParams) (*domain.Feed, error) {
	query := `
		INSERT INTO feeds (user_id, url, title, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
		RETURNING id, user_id, url, title, description, is_active,
		          last_fetched_at, last_error_at, last_error_message,
		          created_at, updated_at`

	var feed domain.Feed
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &feed, query,
		params.UserID,
		params.URL,
		params.Title,
		params.Description,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// Delete removes a feed owned by userID. It reports whether a row was deleted.
func (s *FeedStore) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM feeds WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
