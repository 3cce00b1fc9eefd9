package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/config"
	"github.com/salmonumbrella/bookmarks-cli/internal/secrets"
)

const (
	envBackend = "BOOKMARKS_BACKEND"
	envAddr    = "BOOKMARKS_ADDR"
	envAPIKey  = "BOOKMARKS_API_KEY"
	envRemote  = "BOOKMARKS_REMOTE"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// resolveBackend picks the PDF reader with precedence flag > env > config.
// An empty result selects the registry default.
func resolveBackend(cmd *cobra.Command, cfg *config.Config) string {
	if flagChanged(cmd, "backend") {
		if v := strings.TrimSpace(backendName); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(envGet(envBackend)); v != "" {
		return v
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.Backend)
	}
	return ""
}

// resolveServeAddr picks the listen address with precedence flag > env > config > default.
func resolveServeAddr(flagValue string, changed bool, cfg *config.Config) string {
	if changed && strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue)
	}
	if v := strings.TrimSpace(envGet(envAddr)); v != "" {
		return v
	}
	return cfg.EffectiveServeAddr()
}

// resolveRemote picks the server for --remote with precedence flag > env > config.
// An empty result means extraction runs in-process.
func resolveRemote(flagValue string, changed bool, cfg *config.Config) string {
	if changed && strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue)
	}
	if v := strings.TrimSpace(envGet(envRemote)); v != "" {
		return v
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.RemoteURL)
	}
	return ""
}

// resolveAPIKey picks the server key with precedence flag > env > keyring > config.
// The second return value names where the key came from.
func resolveAPIKey(ctx context.Context, flagValue string, changed bool, cfg *config.Config) (string, string) {
	if changed && strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), "flag"
	}
	if v := strings.TrimSpace(envGet(envAPIKey)); v != "" {
		return v, "env"
	}
	if store, err := openSecretsStore(); err == nil {
		if key, err := store.APIKey(); err == nil && key != "" {
			return key, "keyring"
		} else if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			loggerFromContext(ctx).WithError(err).Debug("keyring lookup failed")
		}
	}
	if cfg != nil && strings.TrimSpace(cfg.APIKey) != "" {
		return strings.TrimSpace(cfg.APIKey), "config"
	}
	return "", ""
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
