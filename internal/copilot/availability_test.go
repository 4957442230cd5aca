package copilot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	installed     bool
	authenticated bool
}

func (p fakeProber) Installed() bool     { return p.installed }
func (p fakeProber) Authenticated() bool { return p.authenticated }

func TestCheckVerdicts(t *testing.T) {
	tests := []struct {
		installed     bool
		authenticated bool
		available     bool
		message       string
	}{
		{true, true, true, MsgReady},
		{true, false, false, MsgNotAuthenticated},
		{false, true, false, MsgNotInstalled},
		{false, false, false, MsgNotInstalled},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("installed=%v/authenticated=%v", tt.installed, tt.authenticated)
		t.Run(name, func(t *testing.T) {
			v := Check(fakeProber{installed: tt.installed, authenticated: tt.authenticated})

			assert.Equal(t, tt.installed, v.CLIInstalled)
			assert.Equal(t, tt.authenticated, v.CLIAuthenticated)
			assert.Equal(t, tt.available, v.Available)
			assert.Equal(t, tt.message, v.Message)
			assert.Equal(t, v.CLIInstalled && v.CLIAuthenticated, v.Available)
		})
	}
}

func TestCLIProberInstalled(t *testing.T) {
	t.Run("standalone binary", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = func(name string, args ...string) ([]byte, error) {
			if name == "copilot" {
				return []byte("copilot 1.0"), nil
			}
			return nil, errors.New("not found")
		}
		assert.True(t, p.Installed())
	})

	t.Run("gh extension fallback", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = func(name string, args ...string) ([]byte, error) {
			if name == "gh" && len(args) > 0 && args[0] == "copilot" {
				return []byte("gh-copilot 1.0"), nil
			}
			return nil, errors.New("not found")
		}
		assert.True(t, p.Installed())
	})

	t.Run("neither present", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = func(name string, args ...string) ([]byte, error) {
			return nil, errors.New("not found")
		}
		assert.False(t, p.Installed())
	})
}

func TestCLIProberAuthenticated(t *testing.T) {
	authOutput := func(out string, err error) runnerFunc {
		return func(name string, args ...string) ([]byte, error) {
			if name == "gh" && strings.Join(args, " ") == "auth status" {
				return []byte(out), err
			}
			return nil, errors.New("unexpected command")
		}
	}

	t.Run("active account", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = authOutput("Logged in to github.com account octocat\nActive account: true\n", nil)
		assert.True(t, p.Authenticated())
	})

	t.Run("text evidence wins over exit status", func(t *testing.T) {
		// A second broken account makes gh exit non-zero even though the
		// active account is fine.
		p := NewCLIProber("", "")
		p.run = authOutput(
			"Logged in to github.com account octocat\nActive account: true\nFailed to log in to ghe.example.com\n",
			errors.New("exit status 1"),
		)
		assert.True(t, p.Authenticated())
	})

	t.Run("logged in but no active account", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = authOutput("Logged in to github.com account octocat\nActive account: false\n", nil)
		assert.False(t, p.Authenticated())
	})

	t.Run("not logged in", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = authOutput("You are not logged into any GitHub hosts.\n", errors.New("exit status 1"))
		assert.False(t, p.Authenticated())
	})

	t.Run("gh missing", func(t *testing.T) {
		p := NewCLIProber("", "")
		p.run = authOutput("", errors.New("executable file not found"))
		assert.False(t, p.Authenticated())
	})
}

func TestNewCLIProberDefaults(t *testing.T) {
	p := NewCLIProber("", "")
	assert.Equal(t, "copilot", p.CopilotBinary)
	assert.Equal(t, "gh", p.GHBinary)

	p = NewCLIProber("/opt/copilot", "/usr/local/bin/gh")
	assert.Equal(t, "/opt/copilot", p.CopilotBinary)
	assert.Equal(t, "/usr/local/bin/gh", p.GHBinary)
}
