package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
	"github.com/pastel-sketchbook/hangul-typing/internal/event"
	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

// DefaultSessionTimeout bounds each wait for the next session event.
const DefaultSessionTimeout = 60 * time.Second

// Config configures a Service.
type Config struct {
	// Prober answers the availability questions. Defaults to a
	// CLIProber for the copilot and gh binaries on PATH.
	Prober copilot.Prober
	// Dial constructs the connection started by Start. Defaults to a
	// stdio client for the copilot binary.
	Dial func() (copilot.Connection, error)
	// SessionTimeout is the per-event watchdog. Defaults to
	// DefaultSessionTimeout.
	SessionTimeout time.Duration
	// Bus receives lifecycle and answer events. Optional.
	Bus *event.Bus
}

// Service manages the Copilot connection lifecycle and sessions.
//
// One Service instance is constructed by the application entry point
// and passed to callers explicitly; it owns the single connection per
// process. The connection slot is serialized by connMu; the running
// flag is guarded separately for cheap concurrent reads. Conversational
// calls only hold connMu long enough to take a connection snapshot, so
// concurrent sessions share the connection without serializing on it.
type Service struct {
	prober  copilot.Prober
	dial    func() (copilot.Connection, error)
	timeout time.Duration
	bus     *event.Bus

	connMu sync.Mutex
	conn   copilot.Connection

	runningMu sync.RWMutex
	running   bool
}

// New creates a Service. The connection is not started until Start.
func New(cfg Config) *Service {
	if cfg.Prober == nil {
		cfg.Prober = copilot.NewCLIProber("", "")
	}
	if cfg.Dial == nil {
		cfg.Dial = func() (copilot.Connection, error) {
			return copilot.NewClient(copilot.Options{}), nil
		}
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}

	return &Service{
		prober:  cfg.Prober,
		dial:    cfg.Dial,
		timeout: cfg.SessionTimeout,
		bus:     cfg.Bus,
	}
}

// Check probes availability without touching the connection.
func (s *Service) Check() copilot.Availability {
	return copilot.Check(s.prober)
}

// Start brings up the Copilot connection.
// Starting while already started is a no-op that returns nil.
func (s *Service) Start(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		logging.Debug().Msg("copilot client already running")
		return nil
	}

	avail := copilot.Check(s.prober)
	logging.Debug().
		Bool("cliInstalled", avail.CLIInstalled).
		Bool("cliAuthenticated", avail.CLIAuthenticated).
		Msg("checked Copilot CLI availability")

	if !avail.CLIInstalled {
		logging.Warn().Msg("Copilot CLI not installed")
		return ErrCLINotFound
	}
	if !avail.CLIAuthenticated {
		logging.Warn().Msg("GitHub CLI not authenticated")
		return ErrNotAuthenticated
	}

	conn, err := s.dial()
	if err != nil {
		logging.Error().Err(err).Msg("failed to build client")
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	if err := conn.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to start client")
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	s.conn = conn
	s.setRunning(true)
	s.publish(event.Event{Type: event.AssistantStarted, Data: event.AssistantStartedData{}})

	logging.Info().Msg("Copilot AI assistant ready")
	return nil
}

// Stop tears down the connection. Stopping while already stopped is a
// no-op. The slot is cleared before the fallible stop call so the
// service never reports running after a stop attempt.
func (s *Service) Stop(ctx context.Context) error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn == nil {
		return nil
	}

	s.setRunning(false)
	s.publish(event.Event{Type: event.AssistantStopped, Data: event.AssistantStoppedData{}})

	logging.Info().Msg("stopping Copilot client")
	if err := conn.Stop(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	logging.Info().Msg("Copilot client stopped")
	return nil
}

// IsRunning reports whether the service holds a live connection.
func (s *Service) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

// Status composes the availability verdict with the running flag.
func (s *Service) Status() Status {
	avail := copilot.Check(s.prober)
	running := s.IsRunning()

	var message string
	switch {
	case running:
		message = MsgAssistantReady
	case !avail.CLIInstalled:
		message = MsgCLINotInstalled
	case !avail.CLIAuthenticated:
		message = MsgGHNotAuthenticated
	default:
		message = MsgAssistantNotRunning
	}

	return Status{
		Available:        avail.Available && running,
		Running:          running,
		CLIInstalled:     avail.CLIInstalled,
		CLIAuthenticated: avail.CLIAuthenticated,
		Message:          message,
	}
}

// Ask sends a prompt to the assistant and aggregates the streamed
// response into a single answer.
func (s *Service) Ask(ctx context.Context, prompt string, lc *LearningContext) (*Answer, error) {
	return s.ask(ctx, "ask", buildPrompt(prompt, lc))
}

// Hint asks for a brief next-key nudge for the current typing target.
func (s *Service) Hint(ctx context.Context, target, userInput string, level int) (*Answer, error) {
	return s.ask(ctx, "hint", hintPrompt(target, userInput, level))
}

// Explain asks for meaning, pronunciation, and the key sequence of a
// jamo or syllable.
func (s *Service) Explain(ctx context.Context, text string) (*Answer, error) {
	return s.ask(ctx, "explain", explainPrompt(text))
}

// AnalyzeMistake asks for a brief diagnosis of a typing mistake.
func (s *Service) AnalyzeMistake(ctx context.Context, expected, actual string) (*Answer, error) {
	logging.Debug().
		Int("editDistance", levenshtein.ComputeDistance(expected, actual)).
		Msg("analyzing typing mistake")
	return s.ask(ctx, "analyze_mistake", analyzePrompt(expected, actual))
}

// ask runs one prompt/answer exchange on a fresh session.
func (s *Service) ask(ctx context.Context, operation, prompt string) (*Answer, error) {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()

	if conn == nil {
		return nil, ErrNotInitialized
	}

	started := time.Now()
	logging.Debug().Str("operation", operation).Msg("creating Copilot session")

	sess, err := conn.NewSession(ctx, copilot.SessionConfig{
		SystemMessage: &copilot.SystemMessageConfig{
			Mode:    copilot.SystemMessageReplace,
			Content: systemPrompt,
		},
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to create session")
		return nil, fmt.Errorf("%w: %v", ErrSessionFailed, err)
	}
	// The session is discarded on every exit path, including timeout
	// and error events, so abandoned exchanges cannot leak it.
	defer sess.Close()

	// Subscribe before sending so no event racing the send is lost.
	events := sess.Subscribe()

	logging.Debug().Int("chars", len(prompt)).Msg("sending message")
	messageID, err := sess.Send(ctx, prompt)
	if err != nil {
		logging.Error().Err(err).Msg("failed to send message")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	logging.Debug().Str("messageID", messageID).Msg("message sent, waiting for response")

	content, err := collect(events, s.timeout)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("operation", operation).Int("chars", len(content)).Msg("Copilot response")
	s.publish(event.Event{Type: event.AnswerCompleted, Data: event.AnswerCompletedData{
		Operation:  operation,
		Chars:      len(content),
		DurationMS: time.Since(started).Milliseconds(),
	}})

	return &Answer{Content: content}, nil
}

func (s *Service) setRunning(running bool) {
	s.runningMu.Lock()
	s.running = running
	s.runningMu.Unlock()
}

func (s *Service) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
