// Package server provides the HTTP API for SAMScope.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"samscope/internal/config"
	"samscope/internal/enrich"
	"samscope/internal/importer"
	"samscope/internal/storage"
	"samscope/internal/watcher"
)

// Server is the HTTP server for the SAMScope API.
type Server struct {
	storage  storage.Storage
	importer *importer.Importer
	pipeline *enrich.Pipeline
	watch    *watcher.Watcher
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. pipeline and
// watch may be nil when enrichment or CSV watching is not configured.
func NewServer(
	store storage.Storage,
	imp *importer.Importer,
	pipeline *enrich.Pipeline,
	watch *watcher.Watcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:  store,
		importer: imp,
		pipeline: pipeline,
		watch:    watch,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/import", s.handleImport)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/search/enriched", s.handleEnrichedSearch)
	r.Post("/api/v1/contracts/bulk-update", s.handleBulkUpdate)
	r.Post("/api/v1/contracts/bulk-delete", s.handleBulkDelete)
	r.Get("/api/v1/export", s.handleExport)
	r.Get("/api/v1/agencies", s.handleAgencies)
	r.Get("/api/v1/setasides", s.handleSetAsides)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
