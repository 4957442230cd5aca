package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
	"github.com/pastel-sketchbook/hangul-typing/internal/event"
)

type fakeProber struct {
	installed     bool
	authenticated bool
}

func (p fakeProber) Installed() bool     { return p.installed }
func (p fakeProber) Authenticated() bool { return p.authenticated }

type fakeSession struct {
	events  chan copilot.Event
	sendErr error
	sent    []string
	closed  bool
}

func newFakeSession(events ...copilot.Event) *fakeSession {
	ch := make(chan copilot.Event, len(events)+1)
	for _, ev := range events {
		ch <- ev
	}
	return &fakeSession{events: ch}
}

func (s *fakeSession) ID() string                       { return "fake-session" }
func (s *fakeSession) Subscribe() <-chan copilot.Event  { return s.events }
func (s *fakeSession) Close() error                     { s.closed = true; return nil }
func (s *fakeSession) Send(ctx context.Context, content string) (string, error) {
	s.sent = append(s.sent, content)
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "msg-1", nil
}

type fakeConnection struct {
	startCalls int
	stopCalls  int
	startErr   error
	stopErr    error

	sessionErr   error
	sessions     []*fakeSession
	sessionCfgs  []copilot.SessionConfig
	sessionsUsed int
}

func (c *fakeConnection) Start(ctx context.Context) error { c.startCalls++; return c.startErr }
func (c *fakeConnection) Stop(ctx context.Context) error  { c.stopCalls++; return c.stopErr }

func (c *fakeConnection) NewSession(ctx context.Context, cfg copilot.SessionConfig) (copilot.Session, error) {
	c.sessionCfgs = append(c.sessionCfgs, cfg)
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	if c.sessionsUsed >= len(c.sessions) {
		return nil, errors.New("no fake session available")
	}
	s := c.sessions[c.sessionsUsed]
	c.sessionsUsed++
	return s, nil
}

// newTestService wires a Service to a fake prober and connection.
func newTestService(t *testing.T, conn *fakeConnection) *Service {
	t.Helper()
	return New(Config{
		Prober:         fakeProber{installed: true, authenticated: true},
		Dial:           func() (copilot.Connection, error) { return conn, nil },
		SessionTimeout: time.Second,
	})
}

func TestStartIsIdempotent(t *testing.T) {
	conn := &fakeConnection{}
	dials := 0
	svc := New(Config{
		Prober: fakeProber{installed: true, authenticated: true},
		Dial: func() (copilot.Connection, error) {
			dials++
			return conn, nil
		},
	})

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))

	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, conn.startCalls)
	assert.True(t, svc.IsRunning())
}

func TestStartCLINotFound(t *testing.T) {
	svc := New(Config{
		Prober: fakeProber{installed: false, authenticated: true},
		Dial: func() (copilot.Connection, error) {
			t.Fatal("dial should not be reached")
			return nil, nil
		},
	})

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrCLINotFound)
	assert.False(t, svc.IsRunning())
}

func TestStartNotAuthenticated(t *testing.T) {
	svc := New(Config{
		Prober: fakeProber{installed: true, authenticated: false},
		Dial: func() (copilot.Connection, error) {
			t.Fatal("dial should not be reached")
			return nil, nil
		},
	})

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, svc.IsRunning())
}

func TestStartFailureLeavesStateUnchanged(t *testing.T) {
	conn := &fakeConnection{startErr: errors.New("spawn failed")}
	svc := newTestService(t, conn)

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrStartFailed)
	assert.False(t, svc.IsRunning())

	// No connection was committed.
	_, err = svc.Ask(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStartDialFailure(t *testing.T) {
	svc := New(Config{
		Prober: fakeProber{installed: true, authenticated: true},
		Dial:   func() (copilot.Connection, error) { return nil, errors.New("no binary") },
	})

	err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrStartFailed)
	assert.False(t, svc.IsRunning())
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	conn := &fakeConnection{}
	svc := newTestService(t, conn)

	require.NoError(t, svc.Stop(context.Background()))
	assert.Zero(t, conn.stopCalls)
}

func TestStopClearsSlotBeforeFallibleStop(t *testing.T) {
	conn := &fakeConnection{stopErr: errors.New("already dead")}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	err := svc.Stop(context.Background())
	assert.ErrorIs(t, err, ErrSendFailed)
	// The slot was cleared before the stop call failed.
	assert.False(t, svc.IsRunning())

	// Stop is not retried: the second call is a no-op.
	require.NoError(t, svc.Stop(context.Background()))
	assert.Equal(t, 1, conn.stopCalls)
}

func TestAskNotInitialized(t *testing.T) {
	svc := newTestService(t, &fakeConnection{})

	_, err := svc.Ask(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestAskAggregatesDeltas(t *testing.T) {
	sess := newFakeSession(
		copilot.MessageDeltaEvent{Delta: "안"},
		copilot.MessageDeltaEvent{Delta: "녕"},
		copilot.IdleEvent{},
	)
	conn := &fakeConnection{sessions: []*fakeSession{sess}}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	answer, err := svc.Ask(context.Background(), "greet me", nil)
	require.NoError(t, err)

	assert.Equal(t, "안녕", answer.Content)
	assert.Nil(t, answer.ToolUsed)
	assert.True(t, sess.closed, "session must be discarded after the exchange")

	require.Len(t, sess.sent, 1)
	assert.Equal(t, "greet me", sess.sent[0])

	// The tutor persona replaces the default persona on every session.
	require.Len(t, conn.sessionCfgs, 1)
	sm := conn.sessionCfgs[0].SystemMessage
	require.NotNil(t, sm)
	assert.Equal(t, copilot.SystemMessageReplace, sm.Mode)
	assert.Equal(t, systemPrompt, sm.Content)
}

func TestAskAppendsLearningContext(t *testing.T) {
	sess := newFakeSession(copilot.MessageEvent{Content: "ok"}, copilot.IdleEvent{})
	conn := &fakeConnection{sessions: []*fakeSession{sess}}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	_, err := svc.Ask(context.Background(), "help", &LearningContext{CurrentLevel: 2, Accuracy: 0.5})
	require.NoError(t, err)

	require.Len(t, sess.sent, 1)
	assert.Contains(t, sess.sent[0], "<current_context>")
	assert.Contains(t, sess.sent[0], "Level: 2")
	assert.Contains(t, sess.sent[0], "Accuracy: 50%")
}

func TestAskSessionCreationFails(t *testing.T) {
	conn := &fakeConnection{sessionErr: errors.New("session refused")}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	_, err := svc.Ask(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrSessionFailed)
}

func TestAskSendFails(t *testing.T) {
	sess := newFakeSession()
	sess.sendErr = errors.New("pipe broken")
	conn := &fakeConnection{sessions: []*fakeSession{sess}}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	_, err := svc.Ask(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.True(t, sess.closed)
}

func TestAskErrorEventSurfacesMessage(t *testing.T) {
	sess := newFakeSession(
		copilot.MessageDeltaEvent{Delta: "part"},
		copilot.ErrorEvent{Message: "quota exceeded"},
	)
	conn := &fakeConnection{sessions: []*fakeSession{sess}}
	svc := newTestService(t, conn)
	require.NoError(t, svc.Start(context.Background()))

	_, err := svc.Ask(context.Background(), "hello", nil)
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, sess.closed)
}

func TestAskTimeoutLeavesConnectionUsable(t *testing.T) {
	stalled := newFakeSession() // never emits anything
	good := newFakeSession(copilot.MessageEvent{Content: "recovered"}, copilot.IdleEvent{})
	conn := &fakeConnection{sessions: []*fakeSession{stalled, good}}

	svc := New(Config{
		Prober:         fakeProber{installed: true, authenticated: true},
		Dial:           func() (copilot.Connection, error) { return conn, nil },
		SessionTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, svc.Start(context.Background()))

	_, err := svc.Ask(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, stalled.closed)
	assert.True(t, svc.IsRunning())

	answer, err := svc.Ask(context.Background(), "hello again", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer.Content)
}

func TestSpecializationsTemplateThePrompt(t *testing.T) {
	tests := []struct {
		name     string
		call     func(svc *Service) error
		contains []string
	}{
		{
			name: "hint",
			call: func(svc *Service) error {
				_, err := svc.Hint(context.Background(), "한", "ㅎ", 4)
				return err
			},
			contains: []string{`"한"`, `"ㅎ"`, "level 4", "hint"},
		},
		{
			name: "explain",
			call: func(svc *Service) error {
				_, err := svc.Explain(context.Background(), "꿈")
				return err
			},
			contains: []string{`"꿈"`, "2-Bulsik"},
		},
		{
			name: "analyze mistake",
			call: func(svc *Service) error {
				_, err := svc.AnalyzeMistake(context.Background(), "안녕", "안영")
				return err
			},
			contains: []string{`"안녕"`, `"안영"`, "what went wrong"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newFakeSession(copilot.MessageEvent{Content: "ok"}, copilot.IdleEvent{})
			conn := &fakeConnection{sessions: []*fakeSession{sess}}
			svc := newTestService(t, conn)
			require.NoError(t, svc.Start(context.Background()))

			require.NoError(t, tt.call(svc))

			require.Len(t, sess.sent, 1)
			for _, want := range tt.contains {
				assert.Contains(t, sess.sent[0], want)
			}
			// Specializations never attach a learning context.
			assert.NotContains(t, sess.sent[0], "<current_context>")
		})
	}
}

func TestStatusMessagePolicy(t *testing.T) {
	tests := []struct {
		name      string
		prober    fakeProber
		running   bool
		available bool
		message   string
	}{
		{"running", fakeProber{true, true}, true, true, MsgAssistantReady},
		{"not installed", fakeProber{false, false}, false, false, MsgCLINotInstalled},
		{"not authenticated", fakeProber{true, false}, false, false, MsgGHNotAuthenticated},
		{"installed but not running", fakeProber{true, true}, false, false, MsgAssistantNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConnection{}
			svc := New(Config{
				Prober: tt.prober,
				Dial:   func() (copilot.Connection, error) { return conn, nil },
			})
			if tt.running {
				require.NoError(t, svc.Start(context.Background()))
			}

			status := svc.Status()
			assert.Equal(t, tt.available, status.Available)
			assert.Equal(t, tt.running, status.Running)
			assert.Equal(t, tt.prober.installed, status.CLIInstalled)
			assert.Equal(t, tt.prober.authenticated, status.CLIAuthenticated)
			assert.Equal(t, tt.message, status.Message)
		})
	}
}

func TestCheckDelegatesToProber(t *testing.T) {
	svc := New(Config{Prober: fakeProber{installed: true, authenticated: false}})

	v := svc.Check()
	assert.True(t, v.CLIInstalled)
	assert.False(t, v.CLIAuthenticated)
	assert.False(t, v.Available)
}

func TestLifecycleEventsPublished(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	received := make(chan event.EventType, 8)
	unsub := bus.SubscribeAll(func(e event.Event) {
		received <- e.Type
	})
	defer unsub()

	sess := newFakeSession(copilot.IdleEvent{})
	conn := &fakeConnection{sessions: []*fakeSession{sess}}
	svc := New(Config{
		Prober: fakeProber{installed: true, authenticated: true},
		Dial:   func() (copilot.Connection, error) { return conn, nil },
		Bus:    bus,
	})

	require.NoError(t, svc.Start(context.Background()))
	_, err := svc.Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Stop(context.Background()))

	want := map[event.EventType]bool{
		event.AssistantStarted: false,
		event.AnswerCompleted:  false,
		event.AssistantStopped: false,
	}
	deadline := time.After(2 * time.Second)
	for len(want) > 0 {
		select {
		case typ := <-received:
			delete(want, typ)
		case <-deadline:
			t.Fatalf("missing events: %v", want)
		}
	}
}
