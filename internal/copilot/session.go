package copilot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

// sessionEventBuffer sizes each session's event channel. Deltas arrive
// far faster than they are folded only when the consumer stalls, in
// which case events are dropped rather than blocking the reader.
const sessionEventBuffer = 128

// closeTimeout bounds the best-effort session.close request.
const closeTimeout = 2 * time.Second

// session is the Client-backed Session implementation.
type session struct {
	id     string
	client *Client

	mu     sync.Mutex
	closed bool
	events chan Event
}

// ID returns the session identifier assigned by the CLI.
func (s *session) ID() string {
	return s.id
}

// Subscribe returns the session's event stream.
func (s *session) Subscribe() <-chan Event {
	return s.events
}

// Send sends a user message and returns the message id assigned by the CLI.
func (s *session) Send(ctx context.Context, content string) (string, error) {
	resp, err := s.client.request(ctx, frame{
		Type:      frameMessageSend,
		SessionID: s.id,
		Content:   content,
	})
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.MessageID, nil
}

// Close discards the session. The close request to the CLI is
// best-effort: the session is unregistered and its stream closed even
// when the connection is already gone.
func (s *session) Close() error {
	s.client.removeSession(s.id)

	first := s.markClosed()
	if !first {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if _, err := s.client.request(ctx, frame{Type: frameSessionClose, SessionID: s.id}); err != nil {
		logging.Debug().Err(err).Str("sessionID", s.id).Msg("session close request failed")
	}
	return nil
}

// deliver routes one event onto the stream, dropping it if the
// consumer is not keeping up or the session is already closed.
func (s *session) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.events <- ev:
	default:
		logging.Warn().Str("sessionID", s.id).Msg("session event dropped: channel full")
	}
}

// markClosed closes the event stream exactly once.
// Returns true on the first call.
func (s *session) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.events)
	return true
}
