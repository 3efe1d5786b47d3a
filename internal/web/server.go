package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andresmejia3/facebridge/internal/config"
	"github.com/andresmejia3/facebridge/internal/store"
	"github.com/andresmejia3/facebridge/internal/web/handlers"
	"github.com/andresmejia3/facebridge/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server represents the web host
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	registry   *handlers.Registry
	prefs      store.Preferences
	log        *slog.Logger
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, prefs store.Preferences, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		router:   r,
		registry: handlers.NewRegistry(prefs, log),
		prefs:    prefs,
		log:      log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.Web.AllowedOrigins)))

	s.setupRoutes()

	// WriteTimeout is left unset: the content page socket lives as long as the session.
	s.httpServer = &http.Server{
		Addr:              cfg.Web.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown ends the active session and then gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")

	s.registry.Shutdown(ctx)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
