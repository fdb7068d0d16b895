package opengraph

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxBodySize = 1 << 20

// Config holds enricher configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Enricher fetches an article page and extracts its preview image URL from
// OpenGraph meta tags. Every failure degrades to nil; enrichment is always
// best effort and never aborts article creation.
type Enricher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Enricher {
	return &Enricher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// FetchPreviewImage returns the og:image URL of the page, falling back to
// twitter:image, or nil when the page has neither or cannot be fetched.
func (e *Enricher) FetchPreviewImage(ctx context.Context, url string) *string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("opengraph fetch failed", "url", url, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		e.logger.Debug("opengraph fetch non-2xx", "url", url, "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		e.logger.Debug("opengraph parse failed", "url", url, "error", err)
		return nil
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return &content
	}
	if content, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && content != "" {
		return &content
	}

	return nil
}
