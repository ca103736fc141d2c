package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/couchcryptid/building-energy-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrStageFailed wraps a panic recovered from inside a stage.
var ErrStageFailed = errors.New("stage failed")

// Extractor obtains a fresh, unaliased copy of the raw batch.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Transformer turns a raw batch into sorted canonical buildings.
type Transformer interface {
	Transform(ctx context.Context, batch []domain.RawRecord) ([]domain.Building, domain.TransformStats, error)
}

// Loader publishes a transformed batch and serves the current one.
type Loader interface {
	Load(ctx context.Context, runID string, records []domain.Building) error
	Records() []domain.Building
}

// Report describes the outcome of one Run call.
type Report struct {
	RunID     string                `json:"run_id,omitempty"`
	Skipped   bool                  `json:"skipped"`
	Records   []domain.Building     `json:"records"`
	Stats     domain.TransformStats `json:"stats"`
	StartedAt time.Time             `json:"started_at,omitzero"`
	Duration  time.Duration         `json:"duration_ns"`
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Running        bool      `json:"running"`
	LastRunID      string    `json:"last_run_id,omitempty"`
	LastOutcome    string    `json:"last_outcome,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastFinishedAt time.Time `json:"last_finished_at,omitzero"`
	LastRecords    int       `json:"last_records"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the time source used for stage delays and timings.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithStageDelay makes every stage wait d before doing its work, standing in
// for source and sink latency.
func WithStageDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.stageDelay = d }
}

// Pipeline runs extract, transform, and load in sequence with at most one run
// in flight.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	stageDelay  time.Duration

	running atomic.Bool
	ready   atomic.Bool

	mu   sync.Mutex
	last Status
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has published a dataset.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published a dataset yet")
	}
	return nil
}

// IsRunning reports whether a run is in progress.
func (p *Pipeline) IsRunning() bool {
	return p.running.Load()
}

// Records returns the currently published dataset.
func (p *Pipeline) Records() []domain.Building {
	return p.loader.Records()
}

// Status returns the running flag and the outcome of the last finished run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	s := p.last
	p.mu.Unlock()
	s.Running = p.running.Load()
	return s
}

// Run executes one extract-transform-load pass. If a run is already in
// progress it returns immediately with Skipped set and the currently
// published records. A started run ignores cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context, progress ProgressFunc) (Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.metrics.RunsTotal.WithLabelValues("skipped").Inc()
		p.logger.Info("pipeline already running, start request ignored")
		return Report{Skipped: true, Records: p.loader.Records()}, nil
	}
	defer p.running.Store(false)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if progress == nil {
		progress = func(Stage, Phase) {}
	}
	ctx = context.WithoutCancel(ctx)

	report := Report{RunID: uuid.NewString(), StartedAt: p.clock.Now()}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("pipeline run started")

	records, stats, err := p.execute(ctx, report.RunID, progress)
	report.Duration = p.clock.Since(report.StartedAt)
	p.finish(report.RunID, len(records), err)

	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		logger.Error("pipeline run failed", "error", err, "duration", report.Duration)
		return report, err
	}

	p.ready.Store(true)
	p.metrics.RunsTotal.WithLabelValues("ok").Inc()
	report.Records = records
	report.Stats = stats
	logger.Info("pipeline run finished",
		"extracted", stats.Extracted,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Pipeline) execute(ctx context.Context, runID string, progress ProgressFunc) ([]domain.Building, domain.TransformStats, error) {
	var (
		raw     []domain.RawRecord
		records []domain.Building
		stats   domain.TransformStats
	)

	err := p.stage(StageExtract, progress, func() error {
		var err error
		raw, err = p.extractor.Extract(ctx)
		if err != nil && !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		return err
	})
	if err != nil {
		return nil, stats, err
	}
	p.metrics.RecordsExtracted.Add(float64(len(raw)))

	err = p.stage(StageTransform, progress, func() error {
		var err error
		records, stats, err = p.transformer.Transform(ctx, raw)
		return err
	})
	if err != nil {
		return nil, stats, err
	}
	p.metrics.RecordsDropped.Add(float64(stats.Dropped))

	err = p.stage(StageLoad, progress, func() error {
		return p.loader.Load(ctx, runID, records)
	})
	if err != nil {
		return nil, stats, err
	}
	return records, stats, nil
}

// stage brackets fn with progress notifications, the simulated latency, and
// panic recovery. fn itself runs without suspension.
func (p *Pipeline) stage(s Stage, progress ProgressFunc, fn func() error) (err error) {
	progress(s, PhaseActive)
	start := p.clock.Now()

	p.pause()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", s, ErrStageFailed, r)
		}
		p.metrics.StageDuration.WithLabelValues(string(s)).Observe(p.clock.Since(start).Seconds())
		if err == nil {
			progress(s, PhaseDone)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", s, err)
	}
	return nil
}

func (p *Pipeline) pause() {
	if p.stageDelay <= 0 {
		return
	}
	<-p.clock.After(p.stageDelay)
}

func (p *Pipeline) finish(runID string, records int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = Status{
		LastRunID:      runID,
		LastOutcome:    "ok",
		LastFinishedAt: p.clock.Now(),
		LastRecords:    records,
	}
	if err != nil {
		p.last.LastOutcome = "error"
		p.last.LastError = err.Error()
		p.last.LastRecords = 0
	}
}
