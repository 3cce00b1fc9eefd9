package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg == nil || *cfg != (Config{}) {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Config{
		Backend:        "mupdf",
		OutputFormat:   "yaml",
		ServeAddr:      ":9000",
		MaxUploadBytes: 1024,
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "max_upload_bytes: 1024") {
		t.Fatalf("unexpected yaml: %s", data)
	}
	if strings.Contains(string(data), "api_key") {
		t.Fatalf("empty api_key should be omitted: %s", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *got != want {
		t.Fatalf("Load() = %+v, want %+v", *got, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestEffectiveDefaults(t *testing.T) {
	var nilCfg *Config
	if nilCfg.EffectiveServeAddr() != DefaultServeAddr {
		t.Fatal("nil config should use default addr")
	}
	if nilCfg.EffectiveMaxUploadBytes() != DefaultMaxUploadBytes {
		t.Fatal("nil config should use default upload cap")
	}

	cfg := &Config{ServeAddr: ":1234", MaxUploadBytes: -5}
	if cfg.EffectiveServeAddr() != ":1234" {
		t.Fatalf("unexpected addr %q", cfg.EffectiveServeAddr())
	}
	if cfg.EffectiveMaxUploadBytes() != DefaultMaxUploadBytes {
		t.Fatal("non-positive cap should fall back to default")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "bookmarks", "config.yaml")) {
		t.Fatalf("unexpected path %q", path)
	}
}
