// Package commands provides the CLI commands for the hangul-typing
// assistant server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pastel-sketchbook/hangul-typing/internal/config"
	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configPath string
	logLevel   string
	logPretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "hangul-typing",
	Short: "Hangul typing tutor AI assistant server",
	Long: `hangul-typing brokers conversational requests from the typing tutor
frontend to the GitHub Copilot CLI.

Run 'hangul-typing serve' to start the HTTP server, 'hangul-typing check'
to probe Copilot CLI availability, or 'hangul-typing ask' for a one-shot
question.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "print-logs", false, "Print human-readable logs to stderr")

	rootCmd.SetVersionTemplate(fmt.Sprintf("hangul-typing %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(askCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and initializes logging from it.
// Command-line flags override file and environment values.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logPretty {
		cfg.LogPretty = true
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.Pretty = cfg.LogPretty
	logging.Init(logCfg)

	return cfg, nil
}
