package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
	"github.com/salmonumbrella/bookmarks-cli/internal/secrets"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

type fakeReader struct {
	records  []outline.Record
	err      error
	gotPath  string
	gotBytes []byte
}

func (f *fakeReader) Name() string { return "pdfcpu" }

func (f *fakeReader) ReadFile(_ context.Context, path string) ([]outline.Record, error) {
	f.gotPath = path
	return f.records, f.err
}

func (f *fakeReader) ReadBytes(_ context.Context, data []byte) ([]outline.Record, error) {
	f.gotBytes = data
	return f.records, f.err
}

type fakeStore struct {
	key string
	err error
}

func (s *fakeStore) Keys() ([]string, error) {
	if s.key == "" {
		return nil, nil
	}
	return []string{secrets.APIKeyName}, nil
}

func (s *fakeStore) SetAPIKey(key string) error {
	if s.err != nil {
		return s.err
	}
	s.key = key
	return nil
}

func (s *fakeStore) APIKey() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.key == "" {
		return "", secrets.ErrNotFound
	}
	return s.key, nil
}

func (s *fakeStore) DeleteAPIKey() error {
	s.key = ""
	return s.err
}

// cliResult holds everything one CLI invocation produced.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with args against a temp config file,
// an empty environment, the given reader, and an in-memory keyring. The
// error is passed through printCommandError exactly like Execute does.
func runCLI(t *testing.T, reader *fakeReader, stdin string, args ...string) cliResult {
	t.Helper()
	return execCLI(t, reader, nil, stdin, args...)
}

// runCLIWith is runCLI with a hook that can replace dependencies after the
// defaults are installed.
func runCLIWith(t *testing.T, setup func(), stdin string, args ...string) cliResult {
	t.Helper()
	return execCLI(t, nil, setup, stdin, args...)
}

func execCLI(t *testing.T, reader *fakeReader, setup func(), stdin string, args ...string) cliResult {
	t.Helper()
	return execCLIInput(t, reader, setup, bytes.NewBufferString(stdin), args...)
}

// runCLIFromTerminal runs with stdin bound to the null device, which reads
// as a terminal rather than piped data.
func runCLIFromTerminal(t *testing.T, args ...string) cliResult {
	t.Helper()
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	t.Cleanup(func() { _ = devNull.Close() })
	return execCLIInput(t, nil, nil, devNull, args...)
}

func execCLIInput(t *testing.T, reader *fakeReader, setup func(), in io.Reader, args ...string) cliResult {
	t.Helper()
	restore := snapshotCLIState()
	t.Cleanup(restore)
	resetFlagChanges(rootCmd)

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)
	rootCmd.SetContext(withIO(context.Background(), in, out, errBuf))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevEnvGet := envGet
	envGet = func(string) string { return "" }
	t.Cleanup(func() { envGet = prevEnvGet })

	if reader == nil {
		reader = &fakeReader{records: []outline.Record{}}
	}
	prevRegistry := newRegistryFunc
	newRegistryFunc = func() *toc.Registry { return toc.NewRegistry(reader) }
	t.Cleanup(func() { newRegistryFunc = prevRegistry })

	store := &fakeStore{}
	prevStore := openSecretsStore
	openSecretsStore = func() (secrets.Store, error) { return store, nil }
	t.Cleanup(func() { openSecretsStore = prevStore })

	if setup != nil {
		setup()
	}

	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := executeRoot()
	return cliResult{stdout: out.String(), stderr: errBuf.String(), err: err}
}

// writePDF creates a placeholder file so path inputs resolve.
func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7\n"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func snapshotCLIState() func() {
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevBackend := backendName
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevResultLimit := resultLimit
	prevLoaded := loadedConfig
	prevCheckRequire := checkRequire
	prevHeadingsType := headingsType
	prevServeAddr := serveAddr
	prevServeAPIKey := serveAPIKey
	prevGenerate := generateKey
	prevExtractRemote := extractRemote
	prevCheckRemote := checkRemote
	prevNewAPIClient := newAPIClient

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		resetFlagChanges(rootCmd)
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		backendName = prevBackend
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		resultLimit = prevResultLimit
		loadedConfig = prevLoaded
		checkRequire = prevCheckRequire
		headingsType = prevHeadingsType
		serveAddr = prevServeAddr
		serveAPIKey = prevServeAPIKey
		generateKey = prevGenerate
		extractRemote = prevExtractRemote
		checkRemote = prevCheckRemote
		newAPIClient = prevNewAPIClient

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
	}
}

// resetFlagChanges puts every flag on cmd and its subcommands back to its
// default value and clears the Changed bit, and drops contexts left on
// subcommands by an earlier run, so each invocation parses from scratch.
func resetFlagChanges(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	unset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(unset)
	cmd.PersistentFlags().VisitAll(unset)
	if cmd != rootCmd {
		cmd.SetContext(nil)
	}
	for _, sub := range cmd.Commands() {
		resetFlagChanges(sub)
	}
}
