package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pastel-sketchbook/hangul-typing/internal/assistant"
	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
	"github.com/pastel-sketchbook/hangul-typing/internal/event"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for SSE
	}
}

// Assistant is the assistant surface the handlers talk to.
type Assistant interface {
	Check() copilot.Availability
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	Status() assistant.Status
	Ask(ctx context.Context, prompt string, lc *assistant.LearningContext) (*assistant.Answer, error)
	Hint(ctx context.Context, target, userInput string, level int) (*assistant.Answer, error)
	Explain(ctx context.Context, text string) (*assistant.Answer, error)
	AnalyzeMistake(ctx context.Context, expected, actual string) (*assistant.Answer, error)
}

// Server is the HTTP server.
type Server struct {
	config    *Config
	router    *chi.Mux
	httpSrv   *http.Server
	assistant Assistant
	bus       *event.Bus
}

// New creates a new Server instance.
func New(cfg *Config, a Assistant, bus *event.Bus) *Server {
	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		assistant: a,
		bus:       bus,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
