// Package scheduler runs periodic background jobs.  Today that is the hold
// expiry sweeper.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/service"
)

// Sweeper is the part of service.Sweeper the job needs.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	inner gocron.Scheduler
	log   *zap.Logger
}

// New creates a stopped scheduler.
func New(log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	return &Scheduler{inner: s, log: log}, nil
}

// AddSweepJob runs sw every interval.  Singleton mode drops a run that
// would start while the previous one is still going.  Each run is bounded
// by the interval so a stuck store cannot pile up work.
func (s *Scheduler) AddSweepJob(ctx context.Context, sw Sweeper, interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	j, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			res, err := sw.Sweep(runCtx)
			if err != nil {
				s.log.Error("sweep failed", zap.Error(err))
				return
			}
			s.log.Debug("sweep finished", zap.Int("reclaimed", res.Reclaimed), zap.Int("failed", res.Failed))
		}),
		gocron.WithName("hold-expiry-sweeper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("create sweep job: %w", err)
	}
	s.log.Info("sweep job scheduled", zap.String("job_id", j.ID().String()), zap.Duration("interval", interval))
	return j.ID().String(), nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.inner.Start() }

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.inner.Jobs()) }

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	if err := s.inner.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}
