package assistant

import "errors"

// Errors that can occur during assistant operations. Wrapped details
// are attached with fmt.Errorf("%w: ...") so callers can match with
// errors.Is.
var (
	// ErrNotInitialized is returned when an operation requires a live
	// connection and none exists.
	ErrNotInitialized = errors.New("assistant service not initialized")
	// ErrCLINotFound is returned when the Copilot CLI binary is absent.
	ErrCLINotFound = errors.New("GitHub Copilot CLI not found. Please install it from https://docs.github.com/en/copilot/github-copilot-in-the-cli")
	// ErrNotAuthenticated is returned when the GitHub CLI has no active
	// logged-in account.
	ErrNotAuthenticated = errors.New("GitHub Copilot CLI not authenticated. Run 'gh auth login' and 'gh extension install github/gh-copilot'")
	// ErrStartFailed is returned when the connection could not be
	// constructed or started.
	ErrStartFailed = errors.New("failed to start Copilot client")
	// ErrSessionFailed is returned when session creation failed.
	ErrSessionFailed = errors.New("failed to create session")
	// ErrSendFailed is returned when a message could not be sent, when
	// the session reported an error event, or when stopping failed.
	ErrSendFailed = errors.New("failed to send message")
	// ErrTimeout is returned when no event arrived within the watchdog
	// window.
	ErrTimeout = errors.New("session timeout")
)
