//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"comore/internal/domain"
	"comore/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_feeds.up.sql"),
			filepath.Join(migrationsPath, "002_create_articles.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM articles")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM feeds")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) createFeed(url string) *domain.Feed {
	store := NewFeedStore(s.db)
	feed, err := store.Create(s.ctx, domain.CreateFeedParams{
		UserID: 1,
		URL:    url,
		Title:  url,
	})
	s.Require().NoError(err)
	return feed
}

func (s *PostgresIntegrationSuite) TestFeedStore_ListActive() {
	store := NewFeedStore(s.db)

	feed := s.createFeed("https://one.example/feed.xml")
	s.createFeed("https://two.example/feed.xml")

	_, err := s.db.ExecContext(s.ctx, "UPDATE feeds SET is_active = false WHERE id = $1", feed.ID)
	s.NoError(err)

	active, err := store.ListActive(s.ctx)
	s.NoError(err)
	s.Len(active, 1)
	s.Equal("https://two.example/feed.xml", active[0].URL)
}

func (s *PostgresIntegrationSuite) TestFeedStore_ListByUser() {
	store := NewFeedStore(s.db)

	s.createFeed("https://one.example/feed.xml")
	s.createFeed("https://two.example/feed.xml")
	_, err := store.Create(s.ctx, domain.CreateFeedParams{
		UserID: 2,
		URL:    "https://other.example/feed.xml",
		Title:  "other user",
	})
	s.Require().NoError(err)

	list, err := store.ListByUser(s.ctx, 1)
	s.NoError(err)
	s.Len(list, 2)
	for _, feed := range list {
		s.Equal(int64(1), feed.UserID)
	}
}

func (s *PostgresIntegrationSuite) TestFeedStore_MarkFetchedClearsErrorState() {
	store := NewFeedStore(s.db)
	feed := s.createFeed("https://one.example/feed.xml")

	s.NoError(store.MarkFailed(s.ctx, feed.ID, "no such host"))

	var failed domain.Feed
	s.NoError(s.db.GetContext(s.ctx, &failed, "SELECT * FROM feeds WHERE id = $1", feed.ID))
	s.NotNil(failed.LastErrorAt)
	s.Require().NotNil(failed.LastErrorMessage)
	s.Equal("no such host", *failed.LastErrorMessage)
	s.NotNil(failed.LastFetchedAt)

	s.NoError(store.MarkFetched(s.ctx, feed.ID))

	var fetched domain.Feed
	s.NoError(s.db.GetContext(s.ctx, &fetched, "SELECT * FROM feeds WHERE id = $1", feed.ID))
	s.Nil(fetched.LastErrorAt)
	s.Nil(fetched.LastErrorMessage)
	s.NotNil(fetched.LastFetchedAt)
}

func (s *PostgresIntegrationSuite) TestFeedStore_DuplicateURLPerUser() {
	store := NewFeedStore(s.db)
	s.createFeed("https://one.example/feed.xml")

	_, err := store.Create(s.ctx, domain.CreateFeedParams{
		UserID: 1,
		URL:    "https://one.example/feed.xml",
		Title:  "dup",
	})
	s.Error(err)

	// Same URL under a different owner is fine.
	_, err = store.Create(s.ctx, domain.CreateFeedParams{
		UserID: 2,
		URL:    "https://one.example/feed.xml",
		Title:  "other owner",
	})
	s.NoError(err)
}

func (s *PostgresIntegrationSuite) TestArticleStore_CreateAndExists() {
	store := NewArticleStore(s.db)
	feed := s.createFeed("https://one.example/feed.xml")
	now := time.Now().Truncate(time.Microsecond)

	exists, err := store.Exists(s.ctx, "https://one.example/p1")
	s.NoError(err)
	s.False(exists)

	article, err := store.Create(s.ctx, domain.CreateArticleParams{
		FeedID:      feed.ID,
		Title:       "Post 1",
		URL:         "https://one.example/p1",
		Description: utils.Ptr("snippet"),
		Content:     utils.Ptr("<p>content</p>"),
		Author:      utils.Ptr("Jane Doe"),
		OGImageURL:  utils.Ptr("https://one.example/og.png"),
		PublishedAt: utils.Ptr(now),
	})
	s.NoError(err)
	s.Greater(article.ID, int64(0))
	s.Equal("Post 1", article.Title)

	exists, err = store.Exists(s.ctx, "https://one.example/p1")
	s.NoError(err)
	s.True(exists)
}

func (s *PostgresIntegrationSuite) TestArticleStore_URLUniqueAcrossFeeds() {
	store := NewArticleStore(s.db)
	feed1 := s.createFeed("https://one.example/feed.xml")
	feed2 := s.createFeed("https://two.example/feed.xml")

	_, err := store.Create(s.ctx, domain.CreateArticleParams{
		FeedID: feed1.ID,
		Title:  "shared",
		URL:    "https://shared.example/post",
	})
	s.NoError(err)

	// Two feeds listing the same article URL collide on the unique index.
	_, err = store.Create(s.ctx, domain.CreateArticleParams{
		FeedID: feed2.ID,
		Title:  "shared again",
		URL:    "https://shared.example/post",
	})
	s.Error(err)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles WHERE url = $1", "https://shared.example/post"))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_DeleteFeedRollsBack() {
	tm := NewTransactionManager(s.db)
	articleStore := NewArticleStore(s.db)
	feedStore := NewFeedStore(s.db)

	feed := s.createFeed("https://one.example/feed.xml")
	_, err := articleStore.Create(s.ctx, domain.CreateArticleParams{
		FeedID: feed.ID,
		Title:  "keep me",
		URL:    "https://one.example/p1",
	})
	s.NoError(err)

	// Wrong owner: feed delete misses, the surrounding transaction rolls
	// back the article deletion.
	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := articleStore.DeleteByFeedID(ctx, feed.ID); err != nil {
			return err
		}
		deleted, err := feedStore.Delete(ctx, feed.ID, 999)
		if err != nil {
			return err
		}
		if !deleted {
			return context.Canceled
		}
		return nil
	})
	s.Error(err)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles WHERE feed_id = $1", feed.ID))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_DeleteFeedCommits() {
	tm := NewTransactionManager(s.db)
	articleStore := NewArticleStore(s.db)
	feedStore := NewFeedStore(s.db)

	feed := s.createFeed("https://one.example/feed.xml")
	_, err := articleStore.Create(s.ctx, domain.CreateArticleParams{
		FeedID: feed.ID,
		Title:  "gone",
		URL:    "https://one.example/p1",
	})
	s.NoError(err)

	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := articleStore.DeleteByFeedID(ctx, feed.ID); err != nil {
			return err
		}
		deleted, err := feedStore.Delete(ctx, feed.ID, 1)
		if err != nil {
			return err
		}
		if !deleted {
			return context.Canceled
		}
		return nil
	})
	s.NoError(err)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM feeds"))
	s.Equal(0, count)
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM articles"))
	s.Equal(0, count)
}
