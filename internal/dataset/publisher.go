// Package dataset owns the process-wide published building dataset and fans
// every publication out to registered observers.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/couchcryptid/building-energy-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Snapshot is one published batch. Records must be treated as read-only.
type Snapshot struct {
	RunID       string            `json:"run_id,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
	Records     []domain.Building `json:"records"`
}

// Observer re-renders or forwards a published batch.
type Observer interface {
	Name() string
	OnPublish(ctx context.Context, snap Snapshot) error
}

type subscription struct {
	id       uint64
	observer Observer
}

// Publisher replaces the current dataset wholesale on each Load and notifies
// observers in registration order. Readers never see a partial batch.
type Publisher struct {
	current atomic.Pointer[Snapshot]

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Publisher holding an empty dataset.
func NewPublisher(clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := &Publisher{clock: clock, logger: logger, metrics: metrics}
	p.current.Store(&Snapshot{Records: []domain.Building{}})
	return p
}

// Subscribe registers an observer and returns a function that removes it.
func (p *Publisher) Subscribe(o Observer) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscription{id: id, observer: o})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.subs = slices.DeleteFunc(p.subs, func(s subscription) bool { return s.id == id })
	}
}

// Load publishes records as the new current dataset and notifies observers.
// Observer failures, panics included, are logged and counted; they never
// fail the load.
func (p *Publisher) Load(ctx context.Context, runID string, records []domain.Building) error {
	snap := &Snapshot{
		RunID:       runID,
		PublishedAt: p.clock.Now().UTC(),
		Records:     slices.Clone(records),
	}
	if snap.Records == nil {
		snap.Records = []domain.Building{}
	}
	p.current.Store(snap)
	p.metrics.RecordsPublished.Set(float64(len(snap.Records)))

	p.mu.RLock()
	subs := slices.Clone(p.subs)
	p.mu.RUnlock()

	for _, s := range subs {
		if err := notify(ctx, s.observer, *snap); err != nil {
			p.logger.Warn("observer failed to handle published dataset",
				"observer", s.observer.Name(),
				"run_id", runID,
				"error", err,
			)
			p.metrics.ObserverErrors.WithLabelValues(s.observer.Name()).Inc()
		}
	}
	return nil
}

// notify delivers snap to o, converting a panic into an error so the
// remaining observers still receive the batch.
func notify(ctx context.Context, o Observer, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return o.OnPublish(ctx, snap)
}

// Current returns the last published snapshot, or an empty one if nothing
// has been published yet.
func (p *Publisher) Current() Snapshot {
	return *p.current.Load()
}

// Records returns a copy of the currently published buildings.
func (p *Publisher) Records() []domain.Building {
	return slices.Clone(p.current.Load().Records)
}

// Published reports whether at least one Load has happened.
func (p *Publisher) Published() bool {
	return !p.current.Load().PublishedAt.IsZero()
}
