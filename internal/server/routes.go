package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Assistant commands
	r.Route("/assistant", func(r chi.Router) {
		r.Get("/check", s.checkAssistant)
		r.Post("/init", s.initAssistant)
		r.Get("/status", s.assistantStatus)
		r.Post("/ask", s.askAssistant)
		r.Post("/hint", s.hintAssistant)
		r.Post("/explain", s.explainAssistant)
		r.Post("/analyze", s.analyzeMistake)
		r.Post("/shutdown", s.shutdownAssistant)
	})

	// Event streaming (SSE)
	r.Get("/event", s.allEvents)

	// Health
	r.Get("/health", s.health)
}
