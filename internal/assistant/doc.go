// Package assistant implements the AI tutoring service for the Hangul
// typing trainer.
//
// The Service owns the single connection to the Copilot CLI, creates a
// fresh session per conversational request, and folds the session's
// streamed events into one answer under a per-event watchdog timeout.
package assistant
