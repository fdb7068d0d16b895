package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"comore/internal/config"
	"comore/internal/domain"
	"comore/internal/feeds"
)

// Ingestor defines the interface for ingestion runs.
type Ingestor interface {
	Run(ctx context.Context) (*domain.IngestStats, error)
}

// FeedService defines the feed lifecycle operations exposed over HTTP.
type FeedService interface {
	Create(ctx context.Context, params domain.CreateFeedParams) (*domain.Feed, error)
	List(ctx context.Context, userID int64) ([]domain.Feed, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Server exposes the ingestion trigger and feed management endpoints. All
// mutating routes are guarded by a shared-secret X-API-Key header.
type Server struct {
	echo     *echo.Echo
	ingestor Ingestor
	feeds    FeedService
	apiKey   string
	logger   *slog.Logger
}

func New(ingestor Ingestor, feedService FeedService, cfg config.ServerConfig, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		ingestor: ingestor,
		feeds:    feedService,
		apiKey:   cfg.APIKey,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/api/health", s.handleHealth)

	api := s.echo.Group("/api", s.requireAPIKey)
	api.POST("/feeds/fetch", s.handleFetchFeeds)
	api.POST("/feeds", s.handleCreateFeed)
	api.GET("/feeds", s.handleListFeeds)
	api.DELETE("/feeds/:id", s.handleDeleteFeed)
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requireAPIKey rejects any request whose X-API-Key header does not match the
// configured key. An unconfigured key rejects everything.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get("X-API-Key")
		if s.apiKey == "" || key != s.apiKey {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type fetchResponse struct {
	Success   bool `json:"success"`
	Feeds     int  `json:"feeds"`
	Processed int  `json:"processed"`
	Errors    int  `json:"errors"`
}

func (s *Server) handleFetchFeeds(c echo.Context) error {
	stats, err := s.ingestor.Run(c.Request().Context())
	if err != nil {
		s.logger.Error("feed fetch failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Feed fetch failed",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, fetchResponse{
		Success:   true,
		Feeds:     stats.Feeds,
		Processed: stats.Processed,
		Errors:    stats.Errors,
	})
}

type createFeedRequest struct {
	UserID      int64   `json:"user_id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateFeed(c echo.Context) error {
	var req createFeedRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if req.UserID == 0 || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and url are required"})
	}

	feed, err := s.feeds.Create(c.Request().Context(), domain.CreateFeedParams{
		UserID:      req.UserID,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, feeds.ErrInvalidFeedURL):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, feeds.ErrFeedAlreadyExists):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, feeds.ErrFeedLimitExceeded):
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			s.logger.Error("feed create failed", "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, feed)
}

func (s *Server) handleListFeeds(c echo.Context) error {
	userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
	}

	list, err := s.feeds.List(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error("feed list failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if list == nil {
		list = []domain.Feed{}
	}

	return c.JSON(http.StatusOK, map[string]any{"feeds": list})
}

func (s *Server) handleDeleteFeed(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid feed id"})
	}
	userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
	}

	if err := s.feeds.Delete(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, feeds.ErrFeedNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		s.logger.Error("feed delete failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.NoContent(http.StatusNoContent)
}
