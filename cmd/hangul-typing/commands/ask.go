package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pastel-sketchbook/hangul-typing/internal/assistant"
	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
)

var askTimeout time.Duration

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the tutor a one-shot question",
	Long: `Start a Copilot connection, ask one question, print the answer, and
tear the connection down again. Useful for trying prompts outside the
frontend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "Overall timeout for the exchange")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := assistant.New(assistant.Config{
		Prober: copilot.NewCLIProber(cfg.CopilotBinary, cfg.GHBinary),
		Dial: func() (copilot.Connection, error) {
			return copilot.NewClient(copilot.Options{Binary: cfg.CopilotBinary}), nil
		},
		SessionTimeout: cfg.SessionTimeout(),
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(context.Background())

	answer, err := svc.Ask(ctx, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}

	fmt.Println(answer.Content)
	return nil
}
