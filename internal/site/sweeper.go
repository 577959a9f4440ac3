package site

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically closes abandoned views so their object URLs are
// released.
type Sweeper struct {
	cron   *cron.Cron
	views  *Views
	idle   time.Duration
	logger *zap.Logger
}

// NewSweeper schedules Views.Sweep on a cron spec such as "@every 1m".
func NewSweeper(views *Views, schedule string, idle time.Duration, logger *zap.Logger) (*Sweeper, error) {
	if views == nil {
		return nil, fmt.Errorf("site: views registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{cron: cron.New(), views: views, idle: idle, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("site: invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce sweeps immediately.
func (s *Sweeper) RunOnce() {
	if n := s.views.Sweep(s.idle); n > 0 {
		s.logger.Info("idle views closed", zap.Int("closed", n), zap.Int("live", s.views.Len()))
	}
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, up to ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
