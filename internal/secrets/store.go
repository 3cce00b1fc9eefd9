package secrets

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/bookmarks-cli/internal/config"
)

const (
	// APIKeyName is the keyring item holding the `serve` bearer key.
	APIKeyName = "api_key"

	envKeyringBackend  = "BOOKMARKS_KEYRING_BACKEND"
	envKeyringPassword = "BOOKMARKS_KEYRING_PASSWORD"

	keyringOpenTimeout = 5 * time.Second
)

// ErrNotFound is returned when no API key is stored.
var ErrNotFound = errors.New("api key not found in keyring")

var errKeyringTimeout = errors.New("timed out opening keyring")

// keyringOpenFunc is overridden in tests.
var keyringOpenFunc = keyring.Open

// Store persists the server API key.
type Store interface {
	Keys() ([]string, error)
	SetAPIKey(key string) error
	APIKey() (string, error)
	DeleteAPIKey() error
}

// KeyringStore is a Store backed by the OS keyring or an encrypted file.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// KeyringBackendInfo describes which keyring backend was selected and why.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackend picks the backend from the environment, then the
// config file, then "auto".
func ResolveKeyringBackend(cfg *config.Config) KeyringBackendInfo {
	if v := strings.TrimSpace(os.Getenv(envKeyringBackend)); v != "" {
		return KeyringBackendInfo{Value: strings.ToLower(v), Source: "env"}
	}
	if cfg != nil && strings.TrimSpace(cfg.KeyringBackend) != "" {
		return KeyringBackendInfo{Value: strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)), Source: "config"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// OpenDefault opens the keyring selected by ResolveKeyringBackend.
func OpenDefault() (Store, error) {
	cfg, err := config.ReadConfig()
	if err != nil {
		return nil, err
	}
	return Open(ResolveKeyringBackend(cfg))
}

// Open opens the keyring for the given backend selection.
func Open(info KeyringBackendInfo) (Store, error) {
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		info = KeyringBackendInfo{Value: "file", Source: info.Source}
	}

	backends, err := allowedBackends(info)
	if err != nil {
		return nil, err
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		AllowedBackends:          backends,
		KeychainTrustApplication: true,
		FilePasswordFunc:         filePassword,
	}
	if info.Value == "file" || info.Value == "auto" {
		dir, err := config.EnsureKeyringDir()
		if err != nil {
			return nil, err
		}
		cfg.FileDir = dir
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringOpenTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(fmt.Errorf("opening keyring: %w", err))
	}
	return NewKeyringStore(ring), nil
}

func allowedBackends(info KeyringBackendInfo) ([]keyring.BackendType, error) {
	switch info.Value {
	case "", "auto":
		return nil, nil
	case "keychain":
		return []keyring.BackendType{keyring.KeychainBackend}, nil
	case "secret-service":
		return []keyring.BackendType{keyring.SecretServiceBackend}, nil
	case "wincred":
		return []keyring.BackendType{keyring.WinCredBackend}, nil
	case "file":
		return []keyring.BackendType{keyring.FileBackend}, nil
	default:
		return nil, fmt.Errorf("invalid keyring backend %q (expected auto|keychain|secret-service|wincred|file)", info.Value)
	}
}

// ValidateBackend reports whether name is a supported keyring backend.
func ValidateBackend(name string) error {
	_, err := allowedBackends(KeyringBackendInfo{Value: name})
	return err
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(envKeyringPassword); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// shouldForceFileBackend reports whether "auto" on Linux must fall back to
// the file backend because no D-Bus session is available.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening may hang on an
// unresponsive Secret Service.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring: ring, err: err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; set %s=file to use the encrypted file backend", errKeyringTimeout, timeout, envKeyringBackend)
	}
}

// wrapKeychainError adds recovery instructions for a locked macOS keychain.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "errSecInteractionNotAllowed") || strings.Contains(msg, "-25308") {
		return fmt.Errorf("%w\nthe keychain is locked; run `security unlock-keychain` and retry", err)
	}
	return err
}

// Keys lists the item names in the keyring.
func (s *KeyringStore) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return keys, nil
}

// SetAPIKey stores the server API key.
func (s *KeyringStore) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is empty")
	}
	err := s.ring.Set(keyring.Item{
		Key:   APIKeyName,
		Data:  []byte(key),
		Label: config.AppName + " server API key",
	})
	return wrapKeychainError(err)
}

// APIKey returns the stored server API key or ErrNotFound.
func (s *KeyringStore) APIKey() (string, error) {
	item, err := s.ring.Get(APIKeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", wrapKeychainError(err)
	}
	return string(item.Data), nil
}

// DeleteAPIKey removes the stored key. Removing a missing key is not an error.
func (s *KeyringStore) DeleteAPIKey() error {
	err := s.ring.Remove(APIKeyName)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return wrapKeychainError(err)
	}
	return nil
}
