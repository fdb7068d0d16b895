package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"comore/internal/config"
	"comore/internal/domain"
)

const descriptionLimit = 500

// Service runs one ingestion pass over all active feeds: parse each feed,
// deduplicate items by URL, enrich new articles with a preview image and
// persist them. Each invocation is stateless and idempotent with respect to
// already-ingested URLs.
type Service struct {
	feeds     FeedStore
	articles  ArticleStore
	parser    Parser
	enricher  Enricher
	publisher Publisher
	logger    *slog.Logger
	batchSize int
}

func NewService(
	feeds FeedStore,
	articles ArticleStore,
	parser Parser,
	enricher Enricher,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.FetchConfig,
) *Service {
	return &Service{
		feeds:     feeds,
		articles:  articles,
		parser:    parser,
		enricher:  enricher,
		publisher: publisher,
		logger:    logger,
		batchSize: cfg.BatchSize,
	}
}

// Run lists the active feeds and processes them in fixed-size batches. Feeds
// within a batch run concurrently; the next batch starts only after every
// feed in the current one has settled. Only the initial listing can fail;
// everything else is converted into per-feed counters.
func (s *Service) Run(ctx context.Context) (*domain.IngestStats, error) {
	startTime := time.Now()

	feeds, err := s.feeds.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}

	s.logger.Info("starting ingestion", "feeds", len(feeds), "batch_size", s.batchSize)

	stats := &domain.IngestStats{Feeds: len(feeds)}

	for i := 0; i < len(feeds); i += s.batchSize {
		end := i + s.batchSize
		if end > len(feeds) {
			end = len(feeds)
		}
		batch := feeds[i:end]

		results := make(chan domain.FeedResult, len(batch))

		var wg sync.WaitGroup
		for _, feed := range batch {
			wg.Add(1)
			go func(feed domain.Feed) {
				defer wg.Done()
				results <- s.processFeed(ctx, feed)
			}(feed)
		}
		wg.Wait()
		close(results)

		for res := range results {
			stats.Processed += res.Processed
			stats.Errors += res.Errors
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("ingestion completed",
		"feeds", stats.Feeds,
		"processed", stats.Processed,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// processFeed handles a single feed. A parse failure is a feed-level error;
// item failures are counted individually and never abort the feed. The feed
// is marked fetched after the item loop even when some items failed, since
// the feed-level concern is reachability, not item persistence.
func (s *Service) processFeed(ctx context.Context, feed domain.Feed) domain.FeedResult {
	logger := s.logger.With("feed_id", feed.ID, "url", feed.URL)
	logger.Debug("processing feed", "title", feed.Title)

	var result domain.FeedResult

	parsed, err := s.parser.ParseURL(ctx, feed.URL)
	if err != nil {
		logger.Error("feed parse failed", "error", err)
		if markErr := s.feeds.MarkFailed(ctx, feed.ID, err.Error()); markErr != nil {
			logger.Error("failed to record fetch failure", "error", markErr)
		}
		result.Errors++
		return result
	}

	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		exists, err := s.articles.Exists(ctx, item.Link)
		if err != nil {
			logger.Error("article existence check failed", "link", item.Link, "error", err)
			result.Errors++
			continue
		}
		if exists {
			continue
		}

		article, err := s.articles.Create(ctx, s.buildArticle(ctx, feed.ID, item))
		if err != nil {
			// Covers the late-insert race on the url uniqueness constraint.
			logger.Error("failed to create article", "link", item.Link, "error", err)
			result.Errors++
			continue
		}
		result.Processed++

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, article); err != nil {
				logger.Warn("failed to publish article event", "link", item.Link, "error", err)
			}
		}
	}

	if err := s.feeds.MarkFetched(ctx, feed.ID); err != nil {
		logger.Error("failed to record fetch success", "error", err)
	}

	return result
}

func (s *Service) buildArticle(ctx context.Context, feedID int64, item domain.ParsedItem) domain.CreateArticleParams {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	params := domain.CreateArticleParams{
		FeedID:      feedID,
		Title:       title,
		URL:         item.Link,
		OGImageURL:  s.enricher.FetchPreviewImage(ctx, item.Link),
		PublishedAt: item.PublishedAt,
	}

	if item.Snippet != "" {
		params.Description = &item.Snippet
	} else if item.Content != "" {
		desc := truncate(item.Content, descriptionLimit)
		params.Description = &desc
	}
	if item.Content != "" {
		params.Content = &item.Content
	}
	if item.Author != "" {
		params.Author = &item.Author
	}

	return params
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
