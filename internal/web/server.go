package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/config"
	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/session"
)

// Server wires the HTTP API together.
type Server struct {
	settings config.Settings
	sessions *session.Registry
	router   chi.Router
}

// NewServer builds the router with all handlers and middleware.
func NewServer(settings config.Settings, sessions *session.Registry) *Server {
	s := &Server{
		settings: settings,
		sessions: sessions,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.settings.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", apiKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	agentLimit := NewRateLimiter(s.settings.RateLimitAgent, s.settings.RateLimitEnabled)
	codegenLimit := NewRateLimiter(s.settings.RateLimitCodegen, s.settings.RateLimitEnabled)
	defaultLimit := NewRateLimiter(s.settings.RateLimitDefault, s.settings.RateLimitEnabled)

	agentHandler := NewAgentHandler(s.settings, s.sessions)
	sessionHandler := NewSessionHandler(s.sessions)

	r.Route("/api", func(r chi.Router) {
		r.With(agentLimit.Middleware).Method(http.MethodPost, "/agent", agentHandler)
		r.With(codegenLimit.Middleware).Method(http.MethodPost, "/generate-code", NewCodegenHandler())

		r.Group(func(r chi.Router) {
			r.Use(defaultLimit.Middleware)
			r.Post("/agent/stop/{id}", sessionHandler.Stop)
			r.Post("/agent/stop-all", sessionHandler.StopAll)
			r.Get("/sessions", sessionHandler.List)
			r.Method(http.MethodGet, "/health", NewHealthHandler(s.sessions.Count))
		})
	})
}

// Start listens on the configured address with graceful shutdown. On
// SIGINT/SIGTERM it waits up to 10s for in-flight requests, signalling
// running agent sessions to stop first.
func (s *Server) Start() error {
	srv := &http.Server{Addr: s.settings.Addr(), Handler: s.router}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("[Web] Received signal %v, shutting down gracefully...", sig)

		s.sessions.StopAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Web] Graceful shutdown error: %v", err)
		}
	}()

	log.Printf("[Web] Listening on http://%s", s.settings.Addr())
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		log.Println("[Web] Server stopped gracefully")
		return nil
	}
	return err
}
