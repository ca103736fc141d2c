package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
)

// BuildingTransformer implements Transformer using the domain transform.
type BuildingTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a BuildingTransformer.
func NewTransformer(logger *slog.Logger) *BuildingTransformer {
	return &BuildingTransformer{logger: logger}
}

func (t *BuildingTransformer) Transform(_ context.Context, batch []domain.RawRecord) ([]domain.Building, domain.TransformStats, error) {
	buildings, stats := domain.Transform(batch)
	t.logger.Debug("batch transformed",
		"extracted", stats.Extracted,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
	)
	return buildings, stats, nil
}
