package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
	"github.com/salmonumbrella/bookmarks-cli/internal/output"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

var extractRemote string

var extractCmd = &cobra.Command{
	Use:   "extract [input]",
	Short: "Extract the bookmark tree of a PDF",
	Long: `Extract the bookmark tree of a PDF.

<input> is a file path, "-" to read PDF bytes from stdin, or
"base64:<data>" for an inline base64 payload. When <input> is omitted,
piped stdin is read.

With --remote (or BOOKMARKS_REMOTE, or remote_url in the config file) the
PDF is uploaded to a 'bookmarks serve' instance instead of being parsed
locally. The API key is looked up the same way serve does.

The result is always an envelope: {"ok": true, "bookmarks": [...]} on
success, {"ok": false, "error": "...", "details": {...}} on failure. The
process exits 1 on failure.`,
	Example: `  bookmarks extract report.pdf
  cat report.pdf | bookmarks extract -
  bookmarks extract report.pdf -o text
  bookmarks extract report.pdf --query '.bookmarks[].title'
  bookmarks extract report.pdf --remote http://127.0.0.1:8088`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, inputArg(cmd, args))
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractRemote, "remote", "", "Extract on a bookmarks server at this URL")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()
	log := loggerFromContext(ctx)
	backend := resolveBackend(cmd, loadedConfig)
	remote := resolveRemote(extractRemote, flagChanged(cmd, "remote"), loadedConfig)

	log.WithFields(logrus.Fields{"input": describeInput(arg), "backend": backend}).Debug("extracting bookmarks")
	var res *toc.Result
	if remote != "" {
		res = runRemoteExtract(ctx, remote, backend, arg)
	} else {
		res = toc.Run(ctx, newRegistryFunc(), backend, arg, stdinFromContext(ctx))
	}
	if res.OK {
		log.WithFields(logrus.Fields{
			"roots":   len(res.Bookmarks),
			"entries": outline.Count(res.Bookmarks),
		}).Debug("extraction finished")
	}

	if err := printResult(ctx, res); err != nil {
		return err
	}
	if res.OK && GetOutputFormat() == output.FormatText && !output.QuietFromContext(ctx) {
		fmt.Fprintf(stderrFromContext(ctx), "%d bookmarks (%d top-level)\n", outline.Count(res.Bookmarks), len(res.Bookmarks))
	}
	return nil
}

// describeInput keeps inline payloads out of the logs.
func describeInput(arg string) string {
	if payload, ok := strings.CutPrefix(arg, toc.Base64Prefix); ok {
		return fmt.Sprintf("%s<%d chars>", toc.Base64Prefix, len(payload))
	}
	return arg
}
