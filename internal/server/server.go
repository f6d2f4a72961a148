// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/chat"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/metrics"
)

// Server is the HTTP API over one pipeline and an in-memory session store.
type Server struct {
	pipeline   *chat.Pipeline
	sessions   *chat.SessionStore
	collectors *metrics.Collectors
	engine     *gin.Engine
	server     *http.Server
}

// New builds the gin engine and registers every route. collectors may be nil.
func New(cfg *appconfig.Config, pipeline *chat.Pipeline, collectors *metrics.Collectors) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logging.GinLogger())
	engine.Use(logging.GinRecovery())
	engine.Use(collectors.GinMiddleware())

	s := &Server{
		pipeline:   pipeline,
		sessions:   chat.NewSessionStore(cfg.UserName()),
		collectors: collectors,
		engine:     engine,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", s.collectors.GinHandler())

	v1 := s.engine.Group("/v1")
	v1.POST("/sessions", s.handleCreateSession)
	v1.GET("/sessions/:id", s.handleGetSession)
	v1.DELETE("/sessions/:id", s.handleDeleteSession)
	v1.POST("/sessions/:id/messages", s.handleAsk)
	v1.DELETE("/sessions/:id/messages", s.handleClear)
	v1.POST("/reindex", s.handleReindex)
	v1.GET("/search", s.handleSearch)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens until Stop is called.
func (s *Server) Start() error {
	logging.LogEvent("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the API server without interrupting active requests.
func (s *Server) Stop(ctx context.Context) error {
	logging.LogEvent("Stopping API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
