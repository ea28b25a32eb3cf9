package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driving"
	"github.com/unam-acatlan/macgpt-core/internal/core/services"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string

	// AdminPasswordHash is the bcrypt hash the login endpoint verifies
	// against. Empty disables login.
	AdminPasswordHash string

	// TokenTTL bounds the lifetime of issued admin tokens.
	TokenTTL time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
		TokenTTL:       24 * time.Hour,
	}
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	cfg        Config
	logger     *slog.Logger

	// Services
	askService      driving.AskService
	pipelineService driving.PipelineService

	// Infrastructure
	auth   driven.AuthAdapter
	active *services.ActiveIndex
	db     Pinger // PostgreSQL health check (optional)
	redis  Pinger // Redis health check (optional)
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	askService driving.AskService,
	pipelineService driving.PipelineService,
	auth driven.AuthAdapter,
	active *services.ActiveIndex,
	db Pinger, // can be nil
	redis Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		cfg:             cfg,
		logger:          logger,
		askService:      askService,
		pipelineService: pipelineService,
		auth:            auth,
		active:          active,
		db:              db,
		redis:           redis,
	}

	s.setupRoutes()

	handler := NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // answers wait on the generation service
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.auth)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /readyz", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Public query surface
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)

	// Ask endpoint (authenticated)
	s.router.Handle("POST /api/v1/ask",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAsk)))

	// Pipeline endpoints (admin-only)
	s.router.Handle("POST /api/v1/pipeline/rebuild",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleRebuild))))
	s.router.Handle("GET /api/v1/pipeline/status",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handlePipelineStatus))))
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
