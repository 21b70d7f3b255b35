// Package server provides the HTTP API: sentiment analysis and
// knowledge-base search.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/config"
	"github.com/chatkb/chatkb/internal/kb"
	"github.com/chatkb/chatkb/internal/sentiment"
)

// Server is the HTTP server for the chatkb API.
type Server struct {
	sentiment *sentiment.Service
	kb        *kb.Service
	modelName string
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. modelName is the
// classifier name reported by /health.
func NewServer(
	sentimentSvc *sentiment.Service,
	kbSvc *kb.Service,
	modelName string,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		sentiment: sentimentSvc,
		kb:        kbSvc,
		modelName: modelName,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/analyze", s.handleAnalyze)
	r.Post("/search_kb", s.handleSearchKB)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
