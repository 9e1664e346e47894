// Package server exposes the digitization pipeline over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cartoriolabs/acervo-digital/internal/common"
	"github.com/cartoriolabs/acervo-digital/internal/export"
	"github.com/cartoriolabs/acervo-digital/internal/job"
	"github.com/cartoriolabs/acervo-digital/internal/pipeline"
)

// Server wires the HTTP surface to the job manager and the pipeline
// services.
type Server struct {
	cfg    *common.Config
	mgr    *job.Manager
	queue  *job.Queue
	carga  *pipeline.Carga
	export *export.Service
	log    *slog.Logger
}

func New(cfg *common.Config, mgr *job.Manager, queue *job.Queue, carga *pipeline.Carga, exp *export.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, mgr: mgr, queue: queue, carga: carga, export: exp, log: log}
}

// Router builds the chi mux with the shared middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(identity)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleCreateJob)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/result", s.handleResult)
			r.Post("/cancel", s.handleCancel)
			r.Post("/process", s.handleProcess)
			r.Get("/export.xlsx", s.handleExport)
		})
	})
	return r
}
