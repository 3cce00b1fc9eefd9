package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/bookmarks-cli/internal/config"
	"github.com/salmonumbrella/bookmarks-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf("bookmarks version %s (commit: %s, built: %s)\n", version, commit, date)
}

// Global flags
var (
	outputFmt   string
	outputType  output.Format
	debug       bool
	configFile  string
	backendName string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	resultLimit int
)

// loadedConfig is the config resolved by the root pre-run hook.
var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "bookmarks [input]",
	Short: "Extract PDF bookmarks as a JSON tree",
	Long: `bookmarks reads the outline (bookmarks / table of contents) of a PDF and
prints it as a tree of {title, pageNumber, children} nodes wrapped in an
{"ok": ..., "bookmarks": [...]} envelope.

The input is a file path, "-" for PDF bytes on stdin, or "base64:<data>"
for an inline base64 payload. Without an argument, piped stdin is read;
with neither, a usage failure envelope is printed.

Environment Variables:
  BOOKMARKS_BACKEND           PDF reader backend (pdfcpu, mupdf)
  BOOKMARKS_ADDR              Listen address for 'serve'
  BOOKMARKS_API_KEY           Bearer key required by 'serve' (sent by --remote)
  BOOKMARKS_REMOTE            Server URL for extract/check (see --remote)
  BOOKMARKS_KEYRING_BACKEND   Keyring backend (auto, keychain, file)
  BOOKMARKS_KEYRING_PASSWORD  Password for the file keyring backend`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		var cfg *config.Config
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
		}
		loadedConfig = cfg

		// Output format selection: --output > config > default (json)
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && cfg != nil && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		ctx = withLogger(ctx, newLogger(cmd.ErrOrStderr(), debug))
		cmd.SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		// Flag and argument errors fail before this hook and still print usage.
		cmd.SilenceUsage = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, inputArg(cmd, args))
	},
}

// inputArg returns the input argument, "-" when it is missing and stdin is
// piped, or "" so the missing input is reported as a usage envelope.
func inputArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if inputHasData(cmd.InOrStdin()) {
		return "-"
	}
	return ""
}

// Execute runs the root command
func Execute() error {
	return executeRoot()
}

// executeRoot runs the command tree and reports a failure using the context
// of the command that ran, which carries --error-format and the output
// format.
func executeRoot() error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		ctx := rootCmd.Context()
		if cmd != nil && cmd.Context() != nil {
			ctx = cmd.Context()
		}
		printCommandError(ctx, err)
	}
	return err
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatJSON
	}
	return parsed
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate())
	rootCmd.SilenceErrors = true

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "json", "Output format (json|ndjson|yaml|table|text)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "json", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of top-level results in output (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/bookmarks/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "PDF reader backend (env: BOOKMARKS_BACKEND)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
