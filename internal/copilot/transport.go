package copilot

// The Copilot CLI speaks newline-delimited JSON over stdio. Requests
// carry a ULID id and are acknowledged by a "response" frame with the
// same id; everything else is pushed by the CLI and routed to the
// session named by sessionId.

// frame is the single wire envelope for both directions.
type frame struct {
	ID            string               `json:"id,omitempty"`
	Type          string               `json:"type"`
	SessionID     string               `json:"sessionId,omitempty"`
	MessageID     string               `json:"messageId,omitempty"`
	Content       string               `json:"content,omitempty"`
	Delta         string               `json:"delta,omitempty"`
	Tool          string               `json:"tool,omitempty"`
	Message       string               `json:"message,omitempty"`
	Error         string               `json:"error,omitempty"`
	SystemMessage *SystemMessageConfig `json:"systemMessage,omitempty"`
}

// Frame types sent to the CLI.
const (
	frameSessionCreate = "session.create"
	frameSessionClose  = "session.close"
	frameMessageSend   = "message.send"
)

// Frame types received from the CLI.
const (
	frameResponse         = "response"
	frameAssistantDelta   = "assistant.delta"
	frameAssistantMessage = "assistant.message"
	frameAssistantTool    = "assistant.tool"
	frameSessionIdle      = "session.idle"
	frameSessionError     = "session.error"
)

// toEvent converts a pushed frame to a session event.
// Unrecognized frame types yield nil and are dropped by the caller.
func toEvent(f frame) Event {
	switch f.Type {
	case frameAssistantDelta:
		return MessageDeltaEvent{Delta: f.Delta}
	case frameAssistantMessage:
		return MessageEvent{Content: f.Content}
	case frameAssistantTool:
		return ToolCallEvent{Name: f.Tool}
	case frameSessionIdle:
		return IdleEvent{}
	case frameSessionError:
		return ErrorEvent{Message: f.Message}
	default:
		return nil
	}
}
