package copilot

import "context"

// SystemMessageMode controls how a session's system message combines
// with the assistant's default persona.
type SystemMessageMode string

const (
	// SystemMessageReplace fully replaces the default persona.
	SystemMessageReplace SystemMessageMode = "replace"
	// SystemMessageAppend appends to the default persona.
	SystemMessageAppend SystemMessageMode = "append"
)

// SystemMessageConfig configures a session's system message.
type SystemMessageConfig struct {
	Mode    SystemMessageMode `json:"mode"`
	Content string            `json:"content"`
}

// SessionConfig configures a new session.
type SessionConfig struct {
	SystemMessage *SystemMessageConfig `json:"systemMessage,omitempty"`
}

// Connection is the long-lived link to the Copilot CLI process.
// At most one live connection exists per service instance.
type Connection interface {
	// Start brings the connection up. Starting a live connection is a no-op.
	Start(ctx context.Context) error
	// Stop tears the connection down. Stopping a dead connection is a no-op.
	Stop(ctx context.Context) error
	// NewSession creates a short-lived conversation on the connection.
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session is a short-lived conversation scoped to one prompt/answer
// exchange. Events are delivered in arrival order on the subscription
// channel; the channel is closed when the session or connection closes.
type Session interface {
	ID() string
	// Subscribe returns the session's event stream. Subscribe before
	// sending so no event racing the send is lost.
	Subscribe() <-chan Event
	// Send sends a user message and returns its message identifier.
	Send(ctx context.Context, content string) (string, error)
	// Close discards the session. Safe to call on every exit path.
	Close() error
}

// Event is a tagged variant produced by a session's stream.
type Event interface {
	sessionEvent()
}

// MessageDeltaEvent carries an incremental fragment of the assistant's
// in-progress answer.
type MessageDeltaEvent struct {
	Delta string
}

func (MessageDeltaEvent) sessionEvent() {}

// MessageEvent carries a complete answer, emitted by assistants that
// never stream deltas.
type MessageEvent struct {
	Content string
}

func (MessageEvent) sessionEvent() {}

// ToolCallEvent reports a tool invocation by the assistant.
type ToolCallEvent struct {
	Name string
}

func (ToolCallEvent) sessionEvent() {}

// IdleEvent marks that the assistant has finished responding.
type IdleEvent struct{}

func (IdleEvent) sessionEvent() {}

// ErrorEvent reports a session-level failure from the assistant.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) sessionEvent() {}
