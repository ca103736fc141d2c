package view

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Histogram plots the distribution of energy intensity as an SVG image.
// Buildings without a surface have no intensity and are left out.
type Histogram struct {
	bins int

	mu     sync.RWMutex
	values []float64
}

// NewHistogram creates a histogram view. bins <= 0 picks a bin count from
// the number of values.
func NewHistogram(bins int) *Histogram {
	return &Histogram{bins: bins}
}

func (h *Histogram) Name() string { return "histogram" }

func (h *Histogram) OnPublish(_ context.Context, snap dataset.Snapshot) error {
	values := make([]float64, 0, len(snap.Records))
	for _, b := range snap.Records {
		if b.FloorAreaM2 > 0 {
			values = append(values, b.EnergyIntensity)
		}
	}
	h.mu.Lock()
	h.values = values
	h.mu.Unlock()
	return nil
}

// Values returns the intensities currently plotted.
func (h *Histogram) Values() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]float64(nil), h.values...)
}

// Render writes the histogram as SVG.
func (h *Histogram) Render(w io.Writer) error {
	values := h.Values()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Intensité énergétique (%d bâtiments)", len(values))
	p.X.Label.Text = "kWh/m²"
	p.Y.Label.Text = "bâtiments"

	if len(values) > 0 {
		hist, err := plotter.NewHist(plotter.Values(values), h.bins)
		if err != nil {
			return fmt.Errorf("build histogram: %w", err)
		}
		p.Add(hist)
	}

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "svg")
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
