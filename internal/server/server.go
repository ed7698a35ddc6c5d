// Package server provides the HTTP API for foundermatch.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/foundermatch/internal/config"
	"github.com/hyperjump/foundermatch/internal/importer"
	"github.com/hyperjump/foundermatch/internal/recommend"
)

// WatchService reports the corpus directories being watched.
type WatchService interface {
	Roots() []string
}

// Server is the HTTP server for the foundermatch API.
type Server struct {
	service  *recommend.Service
	importer *importer.Importer
	config   *config.Config
	logger   *zap.Logger
	watch    WatchService
	server   *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil when
// corpus watching is disabled.
func NewServer(
	service *recommend.Service,
	imp *importer.Importer,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
) *Server {
	s := &Server{
		service:  service,
		importer: imp,
		config:   cfg,
		logger:   logger,
		watch:    watch,
	}
	s.server = &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: s.Router(),
	}
	return s
}

// Router builds the chi router with middleware and every API route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(instrument)
	if origins := s.config.Server.CORSOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if n := s.config.Server.RateLimit; n > 0 {
			r.Use(httprate.Limit(n, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				})))
		}
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Post("/search", s.handleSearch)
		r.Post("/keyword-search", s.handleKeywordSearch)
		r.Post("/hybrid-search", s.handleHybridSearch)
		r.Post("/recommendations", s.handleRecommend)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/recommendations", s.handleUserRecommendations)
			r.Get("/history", s.handleGetHistory)
			r.Post("/history", s.handleAppendHistory)
		})

		r.Get("/startups", s.handleListStartups)
		r.Post("/startups", s.handleCreateStartup)
		r.Get("/startups/{id}", s.handleGetStartup)
		r.Delete("/startups/{id}", s.handleDeleteStartup)

		r.Get("/corpus/directories", s.handleCorpusDirectories)
		r.Post("/corpus/import", s.handleImport)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed, even when Stop ran first.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server. It is safe to call before or
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
