package copilot

import (
	"os/exec"
	"strings"

	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

// Availability is the verdict of probing the Copilot CLI and the
// GitHub CLI identity session. It is derived fresh on every probe.
type Availability struct {
	CLIInstalled     bool   `json:"cli_installed"`
	CLIAuthenticated bool   `json:"cli_authenticated"`
	Available        bool   `json:"available"`
	Message          string `json:"message"`
}

// Verdict messages.
const (
	MsgReady            = "GitHub Copilot is ready"
	MsgNotAuthenticated = "GitHub CLI not authenticated. Run 'gh auth login' to enable AI assistant."
	MsgNotInstalled     = "GitHub Copilot CLI not found. Install it to enable AI assistant."
)

// Prober answers the two independent availability questions. Tests
// substitute deterministic fakes instead of spawning real processes.
type Prober interface {
	Installed() bool
	Authenticated() bool
}

// Check probes availability and composes the verdict.
// available = installed && authenticated; first matching message wins.
func Check(p Prober) Availability {
	installed := p.Installed()
	authenticated := p.Authenticated()

	var available bool
	var message string
	switch {
	case installed && authenticated:
		available = true
		message = MsgReady
	case installed:
		message = MsgNotAuthenticated
	default:
		message = MsgNotInstalled
	}

	return Availability{
		CLIInstalled:     installed,
		CLIAuthenticated: authenticated,
		Available:        available,
		Message:          message,
	}
}

// runnerFunc runs an external command and returns its combined output.
type runnerFunc func(name string, args ...string) ([]byte, error)

func runCombined(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// CLIProber probes by invoking the copilot and gh executables.
// Any failure to spawn or read a probe degrades to false, never to an
// error, so an unavailable assistant cannot crash the caller.
type CLIProber struct {
	CopilotBinary string
	GHBinary      string

	run runnerFunc
}

// NewCLIProber creates a prober for the given executables.
// Empty names fall back to "copilot" and "gh" on PATH.
func NewCLIProber(copilotBinary, ghBinary string) *CLIProber {
	if copilotBinary == "" {
		copilotBinary = "copilot"
	}
	if ghBinary == "" {
		ghBinary = "gh"
	}
	return &CLIProber{
		CopilotBinary: copilotBinary,
		GHBinary:      ghBinary,
		run:           runCombined,
	}
}

// Installed reports whether the Copilot CLI is present, via either the
// standalone binary or the gh extension.
func (p *CLIProber) Installed() bool {
	if _, err := p.run(p.CopilotBinary, "--version"); err == nil {
		return true
	}

	_, err := p.run(p.GHBinary, "copilot", "--version")
	return err == nil
}

// Authenticated reports whether the GitHub CLI has an active logged-in
// account.
//
// `gh auth status` exits non-zero if ANY configured account has issues,
// even when the active account is fine, so the combined output text is
// inspected instead of the exit status.
func (p *CLIProber) Authenticated() bool {
	out, err := p.run(p.GHBinary, "auth", "status")
	if err != nil && len(out) == 0 {
		logging.Warn().Err(err).Msg("failed to run gh auth status")
		return false
	}

	combined := string(out)
	loggedIn := strings.Contains(combined, "Logged in to")
	active := strings.Contains(combined, "Active account: true")

	logging.Debug().
		Bool("loggedIn", loggedIn).
		Bool("active", active).
		Msg("GitHub CLI auth check")

	return loggedIn && active
}
