package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs the pipeline on a cron schedule with a seconds field.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers runner under spec. The schedule does not start
// until Start is called.
func NewScheduler(spec string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	logger = logger.With("trigger", "schedule")
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() { fire(context.Background(), runner, logger) }); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh schedule started")
}

// Stop halts the schedule and waits for a run in progress until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
