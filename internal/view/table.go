package view

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// TableFilter narrows table rows. Empty fields match everything.
type TableFilter struct {
	Category string
	Level    domain.ConsumptionLevel
}

func (f TableFilter) match(b domain.Building) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, b.Category) {
		return false
	}
	if f.Level != "" && f.Level != b.ConsumptionLevel {
		return false
	}
	return true
}

// Summary aggregates a set of table rows.
type Summary struct {
	Count           int                             `json:"count"`
	TotalEnergyKWh  int                             `json:"total_energy_kwh"`
	MeanIntensity   float64                         `json:"mean_energy_intensity"`
	MedianIntensity float64                         `json:"median_energy_intensity"`
	Levels          map[domain.ConsumptionLevel]int `json:"levels"`
}

// Table lists published buildings in published order.
type Table struct {
	mu   sync.RWMutex
	rows []domain.Building
}

// NewTable creates an empty table view.
func NewTable() *Table {
	return &Table{}
}

func (t *Table) Name() string { return "table" }

func (t *Table) OnPublish(_ context.Context, snap dataset.Snapshot) error {
	rows := slices.Clone(snap.Records)
	t.mu.Lock()
	t.rows = rows
	t.mu.Unlock()
	return nil
}

// Rows returns the rows matching f.
func (t *Table) Rows(f TableFilter) []domain.Building {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.Building, 0, len(t.rows))
	for _, b := range t.rows {
		if f.match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Summarize computes totals and intensity statistics. Buildings without a
// surface are left out of the intensity figures.
func Summarize(rows []domain.Building) Summary {
	s := Summary{
		Count:  len(rows),
		Levels: map[domain.ConsumptionLevel]int{},
	}
	intensities := make([]float64, 0, len(rows))
	for _, b := range rows {
		s.TotalEnergyKWh += b.TotalEnergyKWh
		s.Levels[b.ConsumptionLevel]++
		if b.FloorAreaM2 > 0 {
			intensities = append(intensities, b.EnergyIntensity)
		}
	}
	if len(intensities) == 0 {
		return s
	}
	slices.Sort(intensities)
	s.MeanIntensity = stat.Mean(intensities, nil)
	s.MedianIntensity = stat.Quantile(0.5, stat.Empirical, intensities, nil)
	return s
}
