package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppName is the application name used for keyring and config
const AppName = "bookmarks"

// DefaultServeAddr is the listen address used by `serve` when none is configured.
const DefaultServeAddr = "127.0.0.1:8088"

// DefaultMaxUploadBytes caps request bodies accepted by the HTTP server.
const DefaultMaxUploadBytes int64 = 50 << 20

// Config holds CLI configuration
type Config struct {
	Backend        string `yaml:"backend,omitempty"`          // pdfcpu, mupdf
	OutputFormat   string `yaml:"output_format,omitempty"`    // json, ndjson, yaml, table, text
	ServeAddr      string `yaml:"serve_addr,omitempty"`       // host:port for `serve`
	MaxUploadBytes int64  `yaml:"max_upload_bytes,omitempty"` // request body cap for `serve`
	APIKey         string `yaml:"api_key,omitempty"`          // bearer key for `serve`
	KeyringBackend string `yaml:"keyring_backend,omitempty"`  // auto, keychain, file
	RemoteURL      string `yaml:"remote_url,omitempty"`       // server used by --remote
}

// EffectiveServeAddr returns the configured listen address or the default.
func (c *Config) EffectiveServeAddr() string {
	if c == nil || c.ServeAddr == "" {
		return DefaultServeAddr
	}
	return c.ServeAddr
}

// EffectiveMaxUploadBytes returns the configured body cap or the default.
func (c *Config) EffectiveMaxUploadBytes() int64 {
	if c == nil || c.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return c.MaxUploadBytes
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureKeyringDir ensures the file keyring directory exists and returns its path
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("creating keyring directory: %w", err)
	}
	return keyringDir, nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
