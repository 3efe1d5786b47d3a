package web

import (
	"net/http"
	"time"

	"github.com/andresmejia3/facebridge/internal/web/handlers"
	"github.com/andresmejia3/facebridge/internal/web/middleware"
	"github.com/andresmejia3/facebridge/internal/web/static"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRoutes() {
	r := s.router

	origins := middleware.ParseOrigins(s.config.Web.AllowedOrigins)
	sessionsHandler := handlers.NewSessionsHandler(s.registry, origins.CheckOrigin, s.log)
	prefsHandler := handlers.NewPrefsHandler(s.prefs, s.log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Post("/sessions", sessionsHandler.Create)
			r.Get("/sessions/{id}", sessionsHandler.Get)
			r.Delete("/sessions/{id}", sessionsHandler.Delete)
			r.Get("/prefs", prefsHandler.Get)
		})

		// No timeout here: the socket is held for the whole session.
		r.Get("/sessions/{id}/surface", sessionsHandler.Surface)
	})

	r.Handle("/bridge.js", http.FileServer(static.GetFileSystem()))
	r.Handle("/*", http.FileServer(http.Dir(s.config.Web.ContentDir)))
}
