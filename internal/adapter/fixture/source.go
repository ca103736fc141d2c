// Package fixture serves raw building records from a static batch, either
// embedded in the binary or read from a JSON file.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
)

//go:embed data/buildings.json
var embeddedBuildings []byte

// Source returns deep copies of a fixed raw batch. It implements
// pipeline.Extractor.
type Source struct {
	records []domain.RawRecord
}

// NewSource parses a JSON payload into a Source.
func NewSource(data []byte) (*Source, error) {
	records, err := domain.DecodeRawBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return &Source{records: records}, nil
}

// NewEmbedded returns a Source over the fixture compiled into the binary.
func NewEmbedded() (*Source, error) {
	return NewSource(embeddedBuildings)
}

// Extract returns a deep copy of the fixture, so callers can never change it.
func (s *Source) Extract(_ context.Context) ([]domain.RawRecord, error) {
	return domain.CloneBatch(s.records), nil
}

// FileSource re-reads a JSON fixture from disk on every extract.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (f *FileSource) Path() string { return f.path }

func (f *FileSource) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read fixture: %w", domain.ErrSourceUnavailable, err)
	}
	records, err := domain.DecodeRawBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return records, nil
}
