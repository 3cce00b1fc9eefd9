package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/api"
	"github.com/salmonumbrella/bookmarks-cli/internal/config"
	"github.com/salmonumbrella/bookmarks-cli/internal/output"
	"github.com/salmonumbrella/bookmarks-cli/internal/secrets"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/bookmarks/config.yaml.

You can view, set, or unset config keys such as backend, output_format,
serve_addr, max_upload_bytes, api_key, keyring_backend, and remote_url.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		if structuredOutputRequested() {
			return printStructured(cmd.Context(), configOutput(cfg))
		}

		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Config:")
		fmt.Fprintf(out, "  backend: %s\n", cfg.Backend)
		fmt.Fprintf(out, "  output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "  serve_addr: %s\n", cfg.ServeAddr)
		fmt.Fprintf(out, "  max_upload_bytes: %d\n", cfg.MaxUploadBytes)
		fmt.Fprintf(out, "  api_key: %s\n", maskedKey(cfg.APIKey))
		fmt.Fprintf(out, "  keyring_backend: %s\n", cfg.KeyringBackend)
		fmt.Fprintf(out, "  remote_url: %s\n", cfg.RemoteURL)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printStructured(cmd.Context(), keys)
		}

		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"backend",
		"output_format",
		"serve_addr",
		"max_upload_bytes",
		"api_key",
		"keyring_backend",
		"remote_url",
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "backend":
		cfg.Backend = strings.ToLower(value)
	case "output_format":
		format, err := output.ParseFormat(value)
		if err != nil {
			return err
		}
		cfg.OutputFormat = string(format)
	case "serve_addr":
		cfg.ServeAddr = value
	case "max_upload_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_upload_bytes must be a positive integer, got %q", value)
		}
		cfg.MaxUploadBytes = n
	case "api_key":
		cfg.APIKey = value
	case "keyring_backend":
		backend := strings.ToLower(value)
		if err := secrets.ValidateBackend(backend); err != nil {
			return err
		}
		cfg.KeyringBackend = backend
	case "remote_url":
		if _, err := api.NewClient(value, ""); err != nil {
			return err
		}
		cfg.RemoteURL = strings.TrimRight(strings.TrimSpace(value), "/")
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "backend":
		cfg.Backend = ""
	case "output_format":
		cfg.OutputFormat = ""
	case "serve_addr":
		cfg.ServeAddr = ""
	case "max_upload_bytes":
		cfg.MaxUploadBytes = 0
	case "api_key":
		cfg.APIKey = ""
	case "keyring_backend":
		cfg.KeyringBackend = ""
	case "remote_url":
		cfg.RemoteURL = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		if key == "api_key" {
			value = maskToken(value)
		}
		return printStructured(cmd.Context(), map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(cmd.Context(), map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Unset %s\n", key)
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"backend":          cfg.Backend,
		"output_format":    cfg.OutputFormat,
		"serve_addr":       cfg.ServeAddr,
		"max_upload_bytes": cfg.MaxUploadBytes,
		"api_key":          maskedKey(cfg.APIKey),
		"api_key_set":      cfg.APIKey != "",
		"keyring_backend":  cfg.KeyringBackend,
		"remote_url":       cfg.RemoteURL,
	}
}

func maskedKey(key string) string {
	if key == "" {
		return ""
	}
	return maskToken(key)
}
