// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapp/internal/config"
	"github.com/vyrodovalexey/todoapp/internal/handler"
	"github.com/vyrodovalexey/todoapp/internal/middleware"
	"github.com/vyrodovalexey/todoapp/internal/store"
)

// Server represents the HTTP server, plus an optional probe server that
// exposes health and readiness endpoints on a separate port.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	eventHub    *handler.EventHub
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *zap.Logger, todoStore store.Store) (*Server, error) {
	s := &Server{
		router:      mux.NewRouter(),
		probeRouter: mux.NewRouter(),
		config:      cfg,
		logger:      logger,
	}

	s.setupMiddleware()
	if err := s.setupRoutes(todoStore); err != nil {
		return nil, err
	}
	s.setupHTTPServers()

	return s, nil
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	allowedOrigins := []string{"*"}
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}

	// Apply middleware in order (first applied = outermost)
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(allowedOrigins, allowedMethods, allowedHeaders)))
}

// setupRoutes configures the API, front-end, and probe routes.
func (s *Server) setupRoutes(todoStore store.Store) error {
	s.eventHub = handler.NewEventHub(s.logger)
	s.eventHub.RegisterRoutes(s.router)

	todoHandler := handler.NewTodoHandler(todoStore, s.eventHub, s.logger)
	todoHandler.RegisterRoutes(s.router)

	webHandler := handler.NewWebHandler(todoStore, s.logger)
	webHandler.RegisterRoutes(s.router)

	graphqlHandler, err := handler.NewGraphQLHandler(todoStore, s.eventHub, s.logger)
	if err != nil {
		return fmt.Errorf("creating graphql handler: %w", err)
	}
	graphqlHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Unknown routes answer with the same JSON error shape as the API.
	s.router.NotFoundHandler = handler.NotFound(s.logger)
	s.router.MethodNotAllowedHandler = handler.MethodNotAllowed(s.logger)

	// Probe router serves liveness and readiness on the probe port only.
	s.probeRouter.HandleFunc("/health", todoHandler.HealthCheck).Methods(http.MethodGet)
	s.probeRouter.HandleFunc("/ready", todoHandler.ReadyCheck).Methods(http.MethodGet)

	return nil
}

// setupHTTPServers configures the main and probe HTTP servers.
func (s *Server) setupHTTPServers() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	if s.config.ProbePort != 0 {
		s.probeServer = &http.Server{
			Addr:              s.config.ProbeAddress(),
			Handler:           s.probeRouter,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			WriteTimeout:      5 * time.Second,
		}
	}
}

// Start starts the HTTP server and, when configured, the probe server.
// It blocks until the main server stops.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
	)

	if s.probeServer != nil {
		go func() {
			s.logger.Info("starting probe server", zap.String("address", s.config.ProbeAddress()))
			if err := s.probeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("probe server error", zap.Error(err))
			}
		}()
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Close all WebSocket connections first
	if s.eventHub != nil {
		s.eventHub.CloseAllConnections()
	}

	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			s.logger.Error("probe server shutdown failed", zap.Error(err))
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the server's probe router for testing purposes.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}
