package chattui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"retrochat/internal/backend"
	"retrochat/internal/config"
	"retrochat/internal/engine"
	"retrochat/internal/logging"
	"retrochat/internal/store"
)

// Execute runs the chat client command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

type rootFlags struct {
	configFile string
	gatewayURL string
	token      string
	logLevel   string
	theme      string
}

func newRootCmd(version string) *cobra.Command {
	flags := rootFlags{}
	cmd := &cobra.Command{
		Use:           "retrochat",
		Short:         "retro group chat client",
		Long:          "Terminal client for the retro chat gateway: one public room, direct messages, live presence.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.configFile, "config", "", "config file path")
	cmd.Flags().StringVar(&flags.gatewayURL, "gateway", "", "gateway base URL override")
	cmd.Flags().StringVar(&flags.token, "token", "", "bearer token override")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level override")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "theme: xp|phosphor")
	return cmd
}

func runClient(ctx context.Context, flags rootFlags) error {
	loader := config.NewLoader()
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	// CLI flags win over everything.
	if flags.gatewayURL != "" {
		cfg.Gateway.URL = flags.gatewayURL
	}
	if flags.token != "" {
		cfg.Gateway.Token = flags.token
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.theme != "" {
		cfg.TUI.Theme = flags.theme
	}

	// Logs go to a file or nowhere; stderr would fight the alt screen.
	logOut := io.Discard
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})

	identity, err := backend.IdentityFromToken(cfg.Gateway.Token)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}

	gateway, err := backend.NewGateway(backend.GatewayConfig{
		BaseURL:           cfg.Gateway.URL,
		Token:             cfg.Gateway.Token,
		HTTPTimeout:       cfg.Gateway.HTTPTimeout,
		ReconnectInterval: cfg.Gateway.ReconnectInterval,
	})
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	var registry engine.Registry
	if path := cfg.StatePath(); path != "" {
		db, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer db.Close()
		registry = db
	}

	eng := engine.New(engine.Deps{
		Backend:  gateway,
		Identity: identity,
		Registry: registry,
	}, engine.Config{
		PollInterval:     cfg.Sync.PollInterval,
		PresenceInterval: cfg.Sync.PresenceInterval,
	})

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start sync engine: %w", err)
	}
	defer eng.Stop()

	return Run(eng, Config{
		Theme:          cfg.TUI.Theme,
		ShowTimestamps: cfg.TUI.ShowTimestamps,
	})
}
