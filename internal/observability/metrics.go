package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome={ok,error,skipped}
	RecordsExtracted prometheus.Counter
	RecordsDropped   prometheus.Counter
	RecordsPublished prometheus.Gauge
	PipelineRunning  prometheus.Gauge
	StageDuration    *prometheus.HistogramVec // labels: stage={extract,transform,load}

	// Fan-out and source metrics.
	ObserverErrors   *prometheus.CounterVec   // labels: observer
	UpstreamRequests *prometheus.CounterVec   // labels: outcome={success,error}
	UpstreamDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energy_etl",
			Name:      "runs_total",
			Help:      "Pipeline start requests by outcome.",
		}, []string{"outcome"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "energy_etl",
			Name:      "records_extracted_total",
			Help:      "Total raw building records extracted from the source.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "energy_etl",
			Name:      "records_dropped_total",
			Help:      "Total raw records rejected by the validity filter.",
		}),
		RecordsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "energy_etl",
			Name:      "records_published",
			Help:      "Number of buildings in the currently published dataset.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "energy_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 when idle.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "energy_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage, simulated latency included.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		ObserverErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energy_etl",
			Name:      "observer_errors_total",
			Help:      "Failures of dataset observers while handling a published batch.",
		}, []string{"observer"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energy_etl",
			Name:      "upstream_requests_total",
			Help:      "Upstream source requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "energy_etl",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream source request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RecordsExtracted,
		m.RecordsDropped,
		m.RecordsPublished,
		m.PipelineRunning,
		m.StageDuration,
		m.ObserverErrors,
		m.UpstreamRequests,
		m.UpstreamDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "energy_etl", Name: "runs_total"}, []string{"outcome"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "energy_etl", Name: "records_extracted_total"}),
		RecordsDropped:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "energy_etl", Name: "records_dropped_total"}),
		RecordsPublished: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "energy_etl", Name: "records_published"}),
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "energy_etl", Name: "pipeline_running"}),
		StageDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "energy_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		ObserverErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "energy_etl", Name: "observer_errors_total"}, []string{"observer"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "energy_etl", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "energy_etl", Name: "upstream_request_duration_seconds"}),
	}
}
