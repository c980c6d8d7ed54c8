package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepTimeout = 5 * time.Minute

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Files   tempfiledomain.Store
	Storage *config.StorageConfigHolder
}

// Scheduler runs the periodic maintenance jobs. Today that is one job: the
// temp file TTL sweep that reclaims uploads never claimed by an order.
type Scheduler struct {
	log     *zap.Logger
	clock   clock.Clock
	files   tempfiledomain.Store
	storage *config.StorageConfigHolder
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:   p.Clock,
		files:   p.Files,
		storage: p.Storage,
	}
}

// RunOnce executes a single sweep pass with its own deadline.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	ttl := time.Duration(s.storage.Current().TTLHours) * time.Hour
	start := s.clock.Now()
	result, err := s.files.CleanupOldFiles(ctx, ttl)
	if err != nil {
		return fmt.Errorf("temp_file_sweep: %w", err)
	}

	if result.Deleted > 0 || result.Failed > 0 {
		s.log.Info("temp file sweep finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("failed", result.Failed),
			zap.Duration("ttl", ttl),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

// RunForever loops until the context ends. The interval is re-read from the
// storage config on every pass, so hot reloads take effect without a
// restart.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.runInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		if next := s.runInterval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runInterval() time.Duration {
	minutes := s.storage.Current().SweepIntervalMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}
