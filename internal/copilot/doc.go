// Package copilot talks to the GitHub Copilot CLI.
//
// It probes whether the CLI is installed and authenticated, owns the
// single long-lived stdio connection to the CLI process, and exposes
// short-lived sessions whose streamed events the assistant service
// folds into answers.
package copilot
