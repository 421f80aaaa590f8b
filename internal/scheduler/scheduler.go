package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/service"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher re-runs the search for the most recent city without interrupting a user search
type Refresher interface {
	Refresh(ctx context.Context) (*model.SearchResult, error)
}

// Scheduler periodically refreshes the displayed city.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. A zero interval disables refreshing.
func New(refresher Refresher, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("Refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.refresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("Refresh scheduled", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.refresher.Refresh(ctx)
	switch {
	case errors.Is(err, service.ErrSearchInFlight):
		s.logger.Debug("Refresh skipped, a search is in flight")
	case errors.Is(err, service.ErrSuperseded):
		s.logger.Debug("Refresh superseded by a newer search")
	case err != nil:
		s.logger.Warn("Refresh failed", zap.Error(err))
	case result == nil:
		s.logger.Debug("Nothing to refresh")
	default:
		s.logger.Info("Refreshed weather", zap.String("city", result.City))
	}
}
