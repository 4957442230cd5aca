package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pastel-sketchbook/hangul-typing/internal/assistant"
	"github.com/pastel-sketchbook/hangul-typing/internal/config"
	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
	"github.com/pastel-sketchbook/hangul-typing/internal/event"
	"github.com/pastel-sketchbook/hangul-typing/internal/logging"
	"github.com/pastel-sketchbook/hangul-typing/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	Long: `Start the HTTP server the typing tutor frontend talks to.

The Copilot connection is not started at boot; the frontend brings it up
with POST /assistant/init once the user enables the AI tutor.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logging.Info().Str("version", Version).Msg("starting hangul-typing server")

	bus := event.NewBus()
	defer bus.Close()

	svc := assistant.New(assistant.Config{
		Prober: copilot.NewCLIProber(cfg.CopilotBinary, cfg.GHBinary),
		Dial: func() (copilot.Connection, error) {
			return copilot.NewClient(copilot.Options{Binary: cfg.CopilotBinary}), nil
		},
		SessionTimeout: cfg.SessionTimeout(),
		Bus:            bus,
	})

	serverCfg := server.DefaultConfig()
	serverCfg.Port = cfg.Port
	serverCfg.EnableCORS = cfg.EnableCORS

	srv := server.New(serverCfg, svc, bus)

	// Re-apply the log level when the config file changes.
	watcher, err := config.NewWatcher(configPath, func() {
		reloaded, err := config.Load(configPath)
		if err != nil {
			logging.Warn().Err(err).Msg("config reload failed")
			return
		}
		logging.SetLevel(logging.ParseLevel(reloaded.LogLevel))
		logging.Info().Str("level", reloaded.LogLevel).Msg("log level updated")
	})
	if err != nil {
		logging.Warn().Err(err).Msg("config watcher unavailable")
	}
	if watcher != nil {
		watcher.Start()
		defer watcher.Stop()
	}

	go func() {
		logging.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tear down the Copilot connection before closing the listener so
	// no in-flight exchange is left talking to a dead process.
	if err := svc.Stop(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("assistant stop error")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
