package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crimevision/config"
	"crimevision/core/analytics"
	"crimevision/core/forecast"
	"crimevision/core/geo"
	"crimevision/core/ingest"
	"crimevision/core/observability"
	"crimevision/core/risk"
	"crimevision/core/store"
	"crimevision/core/utils"
)

// BackgroundWorker is anything the server starts alongside the HTTP listener
// and stops during shutdown.
type BackgroundWorker interface {
	Start(ctx context.Context)
	Stop()
}

type ServerDeps struct {
	DB        *sql.DB
	Crimes    store.CrimesStore
	Snapshots store.RiskSnapshotsStore
	Analytics *analytics.Service
	Geo       *geo.Service
	Forecast  *forecast.Engine
	Risk      *risk.Service
	Ingest    *ingest.Service
	Metrics   *observability.Metrics
}

type Server struct {
	cfg       *config.AppConfig
	db        *sql.DB
	crimes    store.CrimesStore
	snapshots store.RiskSnapshotsStore
	analytics *analytics.Service
	geo       *geo.Service
	forecast  *forecast.Engine
	risk      *risk.Service
	ingest    *ingest.Service
	metrics   *observability.Metrics
	logger    *utils.Logger

	httpServer *http.Server
	workers    []BackgroundWorker
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger, workers ...BackgroundWorker) *Server {
	s := &Server{
		cfg:       cfg,
		db:        deps.DB,
		crimes:    deps.Crimes,
		snapshots: deps.Snapshots,
		analytics: deps.Analytics,
		geo:       deps.Geo,
		forecast:  deps.Forecast,
		risk:      deps.Risk,
		ingest:    deps.Ingest,
		metrics:   deps.Metrics,
		logger:    logger,
		workers:   workers,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the full route tree. Exposed separately so tests can drive
// the router without binding a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.metricsMiddleware)
	r.Use(s.loggingMiddleware)

	h := s.newRouteHandlers()

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.crimes.Upload)
		r.Get("/crimes", h.crimes.List)
		r.Get("/stats/summary", h.crimes.Summary)
		r.Get("/regions", h.crimes.Regions)
		r.Get("/crime-types", h.crimes.CrimeTypes)
		r.Get("/heatmap", h.analytics.Heatmap)
		r.Get("/analytics/timeline", h.analytics.Timeline)
		r.Get("/analytics/regions", h.analytics.RegionsComparison)
		r.Get("/forecast", h.forecast.Forecast)
		r.Get("/risk-assessment", h.risk.Assess)
		r.Get("/risk-assessment/history", h.risk.History)
	})
	r.Get("/health", h.health.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Run starts the background workers and the HTTP listener, then blocks until
// ctx is cancelled and shutdown completes.
func (s *Server) Run(ctx context.Context) error {
	for _, w := range s.workers {
		w.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.cfg.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		s.stopWorkers()
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.stopWorkers()
	<-errCh
	return err
}

func (s *Server) stopWorkers() {
	for i := len(s.workers) - 1; i >= 0; i-- {
		s.workers[i].Stop()
	}
}
