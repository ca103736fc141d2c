package view

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/couchcryptid/building-energy-etl/internal/dataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartSeries is the data behind the consumption bar chart.
type ChartSeries struct {
	RunID       string   `json:"run_id"`
	Labels      []string `json:"labels"`
	Electricity []int    `json:"electricity_kwh"`
	Gas         []int    `json:"gas_kwh"`
}

// Chart shows the largest consumers as stacked electricity and gas bars.
type Chart struct {
	topN int

	mu     sync.RWMutex
	series ChartSeries
}

// NewChart creates a chart of the topN largest consumers.
func NewChart(topN int) *Chart {
	return &Chart{topN: topN}
}

func (c *Chart) Name() string { return "chart" }

// OnPublish keeps the first topN buildings; the snapshot is already ordered
// by total energy.
func (c *Chart) OnPublish(_ context.Context, snap dataset.Snapshot) error {
	n := min(c.topN, len(snap.Records))
	s := ChartSeries{
		RunID:       snap.RunID,
		Labels:      make([]string, n),
		Electricity: make([]int, n),
		Gas:         make([]int, n),
	}
	for i, b := range snap.Records[:n] {
		s.Labels[i] = b.Name
		s.Electricity[i] = b.ElectricityKWh
		s.Gas[i] = b.GasKWh
	}

	c.mu.Lock()
	c.series = s
	c.mu.Unlock()
	return nil
}

// Series returns the current chart data.
func (c *Chart) Series() ChartSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.series
}

// Render writes the chart as a standalone HTML page.
func (c *Chart) Render(w io.Writer) error {
	s := c.Series()

	elec := make([]opts.BarData, len(s.Electricity))
	for i, v := range s.Electricity {
		elec[i] = opts.BarData{Value: v}
	}
	gas := make([]opts.BarData, len(s.Gas))
	for i, v := range s.Gas {
		gas[i] = opts.BarData{Value: v}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Consommation énergétique", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Top consommateurs", Subtitle: fmt.Sprintf("%d bâtiments (kWh)", len(s.Labels))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(s.Labels).
		AddSeries("Électricité", elec, charts.WithBarChartOpts(opts.BarChart{Stack: "energy"})).
		AddSeries("Gaz", gas, charts.WithBarChartOpts(opts.BarChart{Stack: "energy"}))

	return bar.Render(w)
}
