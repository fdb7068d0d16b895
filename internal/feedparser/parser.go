package feedparser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"comore/internal/domain"
)

// Config holds parser configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Parser fetches and parses RSS/Atom feeds with a per-fetch timeout and a
// distinguishing user agent.
type Parser struct {
	parser  *gofeed.Parser
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Parser {
	p := gofeed.NewParser()
	p.UserAgent = cfg.UserAgent
	p.Client = &http.Client{Timeout: cfg.Timeout}

	return &Parser{
		parser:  p,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// ParseURL fetches the feed and returns its items. A feed with zero items is
// not an error. Network and parse failures are returned to the caller, which
// treats them as a whole-feed failure.
func (p *Parser) ParseURL(ctx context.Context, url string) (*domain.ParsedFeed, error) {
	parseCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	parsed, err := p.parser.ParseURLWithContext(url, parseCtx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	items := make([]domain.ParsedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, transformItem(item))
	}

	p.logger.Debug("parsed feed", "url", url, "items", len(items))

	return &domain.ParsedFeed{
		Title: parsed.Title,
		Items: items,
	}, nil
}

func transformItem(item *gofeed.Item) domain.ParsedItem {
	out := domain.ParsedItem{
		Title:       item.Title,
		Link:        item.Link,
		Snippet:     item.Description,
		PublishedAt: item.PublishedParsed,
	}

	// content:encoded when present, otherwise the plain description.
	if item.Content != "" {
		out.Content = item.Content
	} else {
		out.Content = item.Description
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		out.Author = item.Authors[0].Name
	} else if item.Author != nil {
		out.Author = item.Author.Name
	}

	return out
}
