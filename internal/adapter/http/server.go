package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/couchcryptid/building-energy-etl/internal/pipeline"
	"github.com/couchcryptid/building-energy-etl/internal/view"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline is the orchestrator surface the API drives.
type Pipeline interface {
	sharedobs.ReadinessChecker
	Run(ctx context.Context, progress pipeline.ProgressFunc) (pipeline.Report, error)
	Status() pipeline.Status
	Records() []domain.Building
}

// Views are the dashboard presentations served under /views.
type Views struct {
	Chart     *view.Chart
	Table     *view.Table
	Map       *view.Map
	Histogram *view.Histogram
}

// ProgressEvent is one stage transition observed during an API-triggered run.
type ProgressEvent struct {
	Stage pipeline.Stage `json:"stage"`
	Phase pipeline.Phase `json:"phase"`
}

// RunResponse is the body of POST /api/pipeline/run.
type RunResponse struct {
	Report   pipeline.Report `json:"report"`
	Progress []ProgressEvent `json:"progress"`
	Error    string          `json:"error,omitempty"`
}

// Server exposes the dataset API, dashboard views, health, and metrics.
type Server struct {
	httpServer *http.Server
	pipeline   Pipeline
	views      Views
	logger     *slog.Logger
}

// NewServer wires the router. Views with a nil member respond 404.
func NewServer(addr string, p Pipeline, views Views, logger *slog.Logger) *Server {
	s := &Server{
		pipeline: p,
		views:    views,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(p))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/buildings", s.handleBuildings)
		r.Get("/pipeline", s.handleStatus)
		r.Post("/pipeline/run", s.handleRun)
	})

	r.Route("/views", func(r chi.Router) {
		r.Get("/chart", s.handleChart)
		r.Get("/table", s.handleTable)
		r.Get("/map", s.handleMap)
		r.Get("/histogram", s.handleHistogram)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.pipeline.Records())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.pipeline.Status())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		events = []ProgressEvent{}
	)
	progress := func(stage pipeline.Stage, phase pipeline.Phase) {
		mu.Lock()
		events = append(events, ProgressEvent{Stage: stage, Phase: phase})
		mu.Unlock()
	}

	report, err := s.pipeline.Run(r.Context(), progress)
	resp := RunResponse{Report: report, Progress: events}
	if err != nil {
		resp.Error = err.Error()
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSourceUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.Warn("api pipeline run failed", "run_id", report.RunID, "error", err)
		render.Status(r, status)
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if s.views.Chart == nil {
		http.NotFound(w, r)
		return
	}
	s.writeRendered(w, "text/html; charset=utf-8", "chart", s.views.Chart.Render)
}

type tableResponse struct {
	Rows    []domain.Building `json:"rows"`
	Summary view.Summary      `json:"summary"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	if s.views.Table == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	rows := s.views.Table.Rows(view.TableFilter{
		Category: q.Get("category"),
		Level:    domain.ConsumptionLevel(q.Get("level")),
	})
	render.JSON(w, r, tableResponse{Rows: rows, Summary: view.Summarize(rows)})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if s.views.Map == nil {
		http.NotFound(w, r)
		return
	}
	render.JSON(w, r, s.views.Map.FeatureCollection())
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	if s.views.Histogram == nil {
		http.NotFound(w, r)
		return
	}
	s.writeRendered(w, "image/svg+xml", "histogram", s.views.Histogram.Render)
}

// writeRendered buffers a view so a render error can still become a 500.
func (s *Server) writeRendered(w http.ResponseWriter, contentType, name string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.Error("render view", "view", name, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}
