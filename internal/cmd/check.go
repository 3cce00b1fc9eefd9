package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

var (
	checkRequire bool
	checkRemote  string
)

var checkCmd = &cobra.Command{
	Use:   "check <input>",
	Short: "Report whether a PDF has bookmarks",
	Long: `Report whether a PDF carries an outline, with entry, depth, and page counts.

With --require the command exits 1 when the PDF has no bookmarks.
--remote uploads the PDF to a 'bookmarks serve' instance, as for extract.`,
	Example: `  bookmarks check report.pdf
  bookmarks check report.pdf --require -o text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		summary, failure := runCheck(ctx, resolveRemote(checkRemote, flagChanged(cmd, "remote"), loadedConfig), args[0])
		if failure != nil {
			return printResult(ctx, failure)
		}

		if err := printStructured(ctx, summary); err != nil {
			return err
		}
		if checkRequire && !summary.HasBookmarks {
			return toc.UsageError{Message: "PDF has no bookmarks"}
		}
		return nil
	},
}

func runCheck(ctx context.Context, remote, arg string) (*toc.Summary, *toc.Result) {
	if remote != "" {
		return runRemoteCheck(ctx, remote, arg)
	}

	src, err := toc.ParseSource(arg, stdinFromContext(ctx))
	if err != nil {
		return nil, toc.Failure(err, nil)
	}
	summary, err := toc.Inspect(src)
	if err != nil {
		return nil, toc.Failure(err, map[string]interface{}{"source": string(src.Kind)})
	}
	return summary, nil
}

func init() {
	checkCmd.Flags().BoolVar(&checkRequire, "require", false, "Exit 1 when the PDF has no bookmarks")
	checkCmd.Flags().StringVar(&checkRemote, "remote", "", "Check on a bookmarks server at this URL")
	rootCmd.AddCommand(checkCmd)
}
