package services

import (
	"context"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/repository"

	"go.uber.org/zap"
)

// Scheduler runs periodic housekeeping: purging expired bearer tokens and
// quitting reading sessions abandoned mid-run.
type Scheduler struct {
	log *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Start runs the scheduler in a goroutine until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting cleanup scheduler...")
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Cleanup scheduler stopped")
				return
			case <-ticker.C:
				s.runCleanup(ctx)
			}
		}
	}()
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	purged, err := repository.DeleteExpiredSessions(ctx)
	if err != nil {
		s.log.Error("Failed to purge expired tokens", zap.Error(err))
	} else if purged > 0 {
		s.log.Info("Purged expired tokens", zap.Int64("count", purged))
	}

	staleAfter := time.Duration(config.Conf.Reading.StaleAfterHours) * time.Hour
	cutoff := time.Now().UTC().Add(-staleAfter)
	quit, err := repository.QuitStaleSessions(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to quit stale reading sessions", zap.Error(err))
	} else if quit > 0 {
		s.log.Info("Quit stale reading sessions", zap.Int64("count", quit))
	}
}
