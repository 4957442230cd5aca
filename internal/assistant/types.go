package assistant

// LearningContext describes the user's current learning state. It is
// an immutable value used only to decorate a prompt.
type LearningContext struct {
	CurrentLevel   int      `json:"current_level"`
	CurrentTarget  *string  `json:"current_target,omitempty"`
	RecentMistakes []string `json:"recent_mistakes"`
	Accuracy       float64  `json:"accuracy"`
	TotalAttempts  int      `json:"total_attempts"`
}

// Answer is the aggregated response from the assistant. It is owned by
// the caller once returned.
type Answer struct {
	Content  string  `json:"content"`
	ToolUsed *string `json:"tool_used,omitempty"`
}

// Status is the composed view of availability and the running flag
// exposed to the command layer.
type Status struct {
	Available        bool   `json:"available"`
	Running          bool   `json:"running"`
	CLIInstalled     bool   `json:"cli_installed"`
	CLIAuthenticated bool   `json:"cli_authenticated"`
	Message          string `json:"message"`
}

// Status messages.
const (
	MsgAssistantReady      = "AI assistant ready"
	MsgCLINotInstalled     = "GitHub Copilot CLI not installed"
	MsgGHNotAuthenticated  = "GitHub CLI not authenticated"
	MsgAssistantNotRunning = "AI assistant not running"
)
