package scheduler

import (
	"context"
	"log/slog"
	"time"

	"comore/internal/domain"
)

// Ingestor defines the interface for ingestion runs.
type Ingestor interface {
	Run(ctx context.Context) (*domain.IngestStats, error)
}

// Scheduler triggers ingestion runs on a fixed interval. It is an optional
// alternative to driving the ingestion endpoint from an external cron job.
type Scheduler struct {
	ingestor Ingestor
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(ingestor Ingestor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingestor: ingestor,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runIngestion(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runIngestion(ctx)
		}
	}
}

func (s *Scheduler) runIngestion(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if _, err := s.ingestor.Run(runCtx); err != nil {
		s.logger.Error("scheduled ingestion failed", "error", err)
	}
}
