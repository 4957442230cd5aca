package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe Copilot CLI availability",
	Long: `Check whether the GitHub Copilot CLI is installed and the GitHub CLI
is authenticated, and print the verdict.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v := copilot.Check(copilot.NewCLIProber(cfg.CopilotBinary, cfg.GHBinary))

	fmt.Printf("CLI installed:     %v\n", v.CLIInstalled)
	fmt.Printf("CLI authenticated: %v\n", v.CLIAuthenticated)
	fmt.Printf("Available:         %v\n", v.Available)
	fmt.Println(v.Message)

	if !v.Available {
		// Non-zero exit so scripts can branch on availability.
		cmd.SilenceUsage = true
		return fmt.Errorf("copilot not available")
	}
	return nil
}
