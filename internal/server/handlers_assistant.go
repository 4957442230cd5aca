package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pastel-sketchbook/hangul-typing/internal/assistant"
	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

// Fixed guard messages for conversational commands invoked while the
// assistant is down. The frontend matches on these strings.
const (
	msgNotRunningAsk = "AI assistant not running. Copilot CLI may not be installed."
	msgNotAvailable  = "AI assistant not available"
)

// checkAssistant handles GET /assistant/check.
// It probes CLI availability without touching the connection.
func (s *Server) checkAssistant(w http.ResponseWriter, r *http.Request) {
	v := s.assistant.Check()
	writeData(w, assistant.Status{
		Available:        v.Available,
		Running:          false,
		CLIInstalled:     v.CLIInstalled,
		CLIAuthenticated: v.CLIAuthenticated,
		Message:          v.Message,
	})
}

// initAssistant handles POST /assistant/init.
// Unavailability is reported as data, never as an error envelope, so the
// frontend can render the status message directly.
func (s *Server) initAssistant(w http.ResponseWriter, r *http.Request) {
	err := s.assistant.Start(r.Context())
	switch {
	case err == nil:
		writeData(w, s.assistant.Status())
	case errors.Is(err, assistant.ErrCLINotFound):
		writeData(w, assistant.Status{
			Message: "GitHub Copilot CLI not found. Install it to enable AI assistant.",
		})
	case errors.Is(err, assistant.ErrNotAuthenticated):
		writeData(w, assistant.Status{
			CLIInstalled: true,
			Message:      "GitHub CLI not authenticated. Run 'gh auth login' first.",
		})
	default:
		logging.Error().Err(err).Msg("assistant init failed")
		writeData(w, assistant.Status{
			CLIInstalled:     true,
			CLIAuthenticated: true,
			Message:          fmt.Sprintf("Failed to start: %v", err),
		})
	}
}

// assistantStatus handles GET /assistant/status.
func (s *Server) assistantStatus(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.assistant.Status())
}

// askAssistant handles POST /assistant/ask.
func (s *Server) askAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt  string                     `json:"prompt"`
		Context *assistant.LearningContext `json:"context,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeFailure(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if !s.assistant.IsRunning() {
		writeFailure(w, http.StatusOK, msgNotRunningAsk)
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.Prompt, req.Context)
	if err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}
	writeData(w, answer)
}

// hintAssistant handles POST /assistant/hint.
func (s *Server) hintAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target    string `json:"target"`
		UserInput string `json:"user_input"`
		Level     int    `json:"level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Target == "" {
		writeFailure(w, http.StatusBadRequest, "target is required")
		return
	}
	if !s.assistant.IsRunning() {
		writeFailure(w, http.StatusOK, msgNotAvailable)
		return
	}

	answer, err := s.assistant.Hint(r.Context(), req.Target, req.UserInput, req.Level)
	if err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}
	writeData(w, answer)
}

// explainAssistant handles POST /assistant/explain.
func (s *Server) explainAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeFailure(w, http.StatusBadRequest, "text is required")
		return
	}
	if !s.assistant.IsRunning() {
		writeFailure(w, http.StatusOK, msgNotAvailable)
		return
	}

	answer, err := s.assistant.Explain(r.Context(), req.Text)
	if err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}
	writeData(w, answer)
}

// analyzeMistake handles POST /assistant/analyze.
func (s *Server) analyzeMistake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expected string `json:"expected"`
		Actual   string `json:"actual"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Expected == "" {
		writeFailure(w, http.StatusBadRequest, "expected is required")
		return
	}
	if !s.assistant.IsRunning() {
		writeFailure(w, http.StatusOK, msgNotAvailable)
		return
	}

	answer, err := s.assistant.AnalyzeMistake(r.Context(), req.Expected, req.Actual)
	if err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}
	writeData(w, answer)
}

// shutdownAssistant handles POST /assistant/shutdown.
func (s *Server) shutdownAssistant(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.Stop(r.Context()); err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}
	writeData(w, map[string]any{})
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
