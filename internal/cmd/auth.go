package cmd

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API key required by 'serve'",
	Long: `Manage the bearer API key that 'bookmarks serve' requires from clients.

The key is stored in your system keychain (macOS Keychain, Windows
Credential Manager, Secret Service, or an encrypted file on Linux).

Examples:
  bookmarks auth set-key --generate
  echo "$KEY" | bookmarks auth set-key -
  bookmarks auth status
  bookmarks auth clear`,
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key [key|-]",
	Short: "Store the server API key",
	Long: `Store the server API key in the keyring.

Pass the key as an argument, "-" to read it from stdin, or nothing to be
prompted. --generate creates a random key and prints it once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetKey,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a server API key is configured",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var clearKeyCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored server API key",
	Args:  cobra.NoArgs,
	RunE:  runClearKey,
}

var generateKey bool

func init() {
	authCmd.AddCommand(setKeyCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(clearKeyCmd)

	setKeyCmd.Flags().BoolVar(&generateKey, "generate", false, "Generate a random key")

	rootCmd.AddCommand(authCmd)
}

func runSetKey(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var key string
	var err error
	switch {
	case generateKey:
		if len(args) > 0 {
			return fmt.Errorf("use either --generate or a key argument")
		}
		key, err = newAPIKey()
	case len(args) == 1:
		key, err = readKeyArg(args[0], stdinFromContext(ctx))
	default:
		key, err = promptSecret(ctx, "API key: ")
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("api key is empty")
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}
	if err := store.SetAPIKey(key); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}

	if structuredOutputRequested() {
		result := map[string]interface{}{
			"status":      "stored",
			"key_preview": maskToken(key),
		}
		if generateKey {
			result["key"] = key
		}
		return printStructured(cmd.Context(), result)
	}

	out := stdoutFromContext(ctx)
	if generateKey {
		fmt.Fprintf(out, "Generated API key: %s\n", key)
	}
	fmt.Fprintln(out, "API key stored in keyring")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key, source := resolveAPIKey(ctx, "", false, loadedConfig)

	if structuredOutputRequested() {
		result := map[string]interface{}{
			"configured": key != "",
		}
		if key != "" {
			result["source"] = source
			result["key_preview"] = maskToken(key)
		}
		return printStructured(cmd.Context(), result)
	}

	out := stdoutFromContext(ctx)
	if key == "" {
		fmt.Fprintln(out, "Status: No API key configured (server accepts unauthenticated requests)")
		return nil
	}
	fmt.Fprintln(out, "Status: API key configured")
	fmt.Fprintf(out, "Source: %s\n", source)
	fmt.Fprintf(out, "Key: %s\n", maskToken(key))
	return nil
}

func runClearKey(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}
	if err := store.DeleteAPIKey(); err != nil {
		return fmt.Errorf("remove api key: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(cmd.Context(), map[string]string{"status": "cleared"})
	}
	fmt.Fprintln(stdoutFromContext(cmd.Context()), "API key removed from keyring")
	return nil
}

func readKeyArg(arg string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(arg) != "-" {
		return strings.TrimSpace(arg), nil
	}
	if !inputHasData(stdin) {
		return "", errors.New("no key on stdin")
	}
	return readInputSource("-", stdin)
}

func newAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "bmk_" + hex.EncodeToString(buf), nil
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) {
			password, err := term.ReadPassword(int(file.Fd()))
			fmt.Fprintln(stderrFromContext(ctx))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(password)), nil
		}
	}

	// Fall back to regular input for non-terminal (e.g., piped input)
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
