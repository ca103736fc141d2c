// Package trigger starts pipeline runs from outside the HTTP API: a cron
// refresh schedule and a watcher on the fixture file. Both go through the
// pipeline's single-flight guard, so a trigger that fires mid-run is dropped.
package trigger

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/building-energy-etl/internal/pipeline"
)

// Runner starts a pipeline run.
type Runner interface {
	Run(ctx context.Context, progress pipeline.ProgressFunc) (pipeline.Report, error)
}

func fire(ctx context.Context, r Runner, logger *slog.Logger) {
	report, err := r.Run(ctx, nil)
	switch {
	case err != nil:
		logger.Error("triggered run failed", "run_id", report.RunID, "error", err)
	case report.Skipped:
		logger.Info("triggered run skipped, pipeline already running")
	default:
		logger.Info("triggered run finished", "run_id", report.RunID, "records", len(report.Records))
	}
}
