package copilot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

// ErrConnectionClosed is returned by requests that were in flight when
// the connection went away.
var ErrConnectionClosed = errors.New("copilot connection closed")

// stopGrace is how long Stop waits for the CLI to exit after stdin is
// closed before the process is killed.
const stopGrace = 5 * time.Second

// Options configures a Client.
type Options struct {
	// Binary is the Copilot CLI executable. Defaults to "copilot".
	Binary string
	// Args are the arguments used to enter stdio mode.
	Args []string
}

// Client owns one Copilot CLI process and implements Connection.
//
// A single reader goroutine consumes the process stdout and routes
// frames: responses to the pending request that issued them, pushed
// session frames to the subscribed session. When the process exits,
// every session channel is closed so in-flight aggregations finish
// with whatever they have collected.
type Client struct {
	opts Options

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan frame

	sessionsMu sync.Mutex
	sessions   map[string]*session
}

// NewClient creates a client for the Copilot CLI. The process is not
// spawned until Start.
func NewClient(opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "copilot"
	}
	if opts.Args == nil {
		opts.Args = []string{"--stdio"}
	}
	return &Client{
		opts:     opts,
		pending:  make(map[string]chan frame),
		sessions: make(map[string]*session),
	}
}

// Start spawns the CLI process and begins reading frames.
// Starting a live client returns nil without side effects.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return nil
	}

	cmd := exec.Command(c.opts.Binary, c.opts.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", c.opts.Binary, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.done = make(chan struct{})

	go c.readLoop(stdout, c.done)
	go logStderr(stderr)

	logging.Info().Str("binary", c.opts.Binary).Int("pid", cmd.Process.Pid).Msg("copilot client started")
	return nil
}

// Stop closes stdin to signal shutdown and waits for the process to
// exit, killing it after a grace period. Stopping a dead client
// returns nil.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	cmd := c.cmd
	stdin := c.stdin
	c.cmd = nil
	c.stdin = nil
	c.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if stdin != nil {
		_ = stdin.Close()
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	killed := false
	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-time.After(stopGrace):
		killed = true
	case <-ctx.Done():
		killed = true
	}
	if killed {
		_ = cmd.Process.Kill()
		<-waitCh
	}

	logging.Info().Bool("killed", killed).Msg("copilot client stopped")

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			// Exiting on stdin close is the expected shutdown path.
			return nil
		}
		return waitErr
	}
	return nil
}

// NewSession creates a new conversation on the connection.
func (c *Client) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	resp, err := c.request(ctx, frame{
		Type:          frameSessionCreate,
		SystemMessage: cfg.SystemMessage,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.SessionID == "" {
		return nil, errors.New("session create response missing session id")
	}

	s := &session{
		id:     resp.SessionID,
		client: c,
		events: make(chan Event, sessionEventBuffer),
	}

	c.sessionsMu.Lock()
	c.sessions[s.id] = s
	c.sessionsMu.Unlock()

	logging.Debug().Str("sessionID", s.id).Msg("session created")
	return s, nil
}

// request sends a frame and waits for its response frame.
func (c *Client) request(ctx context.Context, f frame) (frame, error) {
	c.mu.Lock()
	stdin := c.stdin
	done := c.done
	c.mu.Unlock()

	if stdin == nil {
		return frame{}, ErrConnectionClosed
	}

	select {
	case <-done:
		return frame{}, ErrConnectionClosed
	default:
	}

	f.ID = ulid.Make().String()

	respCh := make(chan frame, 1)
	c.pendingMu.Lock()
	c.pending[f.ID] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, f.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.write(stdin, f); err != nil {
		return frame{}, err
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return frame{}, ErrConnectionClosed
		}
		return resp, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	case <-done:
		return frame{}, ErrConnectionClosed
	}
}

// write marshals a frame and writes it as one line.
func (c *Client) write(w io.Writer, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = w.Write(data)
	return err
}

// readLoop consumes stdout frames until the process closes its end.
func (c *Client) readLoop(r io.Reader, done chan struct{}) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		c.dispatch(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		logging.Warn().Err(err).Msg("copilot stdout read error")
	}

	c.shutdown(done)
}

// dispatch routes one incoming frame.
func (c *Client) dispatch(line []byte) {
	var f frame
	if err := json.Unmarshal(line, &f); err != nil {
		logging.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	if f.Type == frameResponse {
		// Take ownership of the pending entry so shutdown cannot close
		// the channel between lookup and send.
		c.pendingMu.Lock()
		ch, ok := c.pending[f.ID]
		if ok {
			delete(c.pending, f.ID)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- f
		}
		return
	}

	ev := toEvent(f)
	if ev == nil {
		logging.Debug().Str("frameType", f.Type).Msg("ignoring unknown frame type")
		return
	}

	c.sessionsMu.Lock()
	s := c.sessions[f.SessionID]
	c.sessionsMu.Unlock()
	if s == nil {
		logging.Debug().Str("sessionID", f.SessionID).Msg("dropping frame for unknown session")
		return
	}

	s.deliver(ev)
}

// shutdown fails pending requests and closes all session streams.
// done identifies the connection generation being torn down, so a
// lingering reader from a stopped process cannot touch a restarted one.
func (c *Client) shutdown(done chan struct{}) {
	select {
	case <-done:
	default:
		close(done)
	}

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.sessionsMu.Lock()
	sessions := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.sessions = make(map[string]*session)
	c.sessionsMu.Unlock()

	for _, s := range sessions {
		s.markClosed()
	}
}

// removeSession forgets a session so late frames for it are dropped.
func (c *Client) removeSession(id string) {
	c.sessionsMu.Lock()
	delete(c.sessions, id)
	c.sessionsMu.Unlock()
}

// logStderr forwards the CLI's stderr to the debug log.
func logStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logging.Debug().Str("stream", "copilot-stderr").Msg(sc.Text())
	}
}
