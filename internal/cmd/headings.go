package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/headings"
	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

var headingsType string

var headingsCmd = &cobra.Command{
	Use:   "headings <file>",
	Short: "Build a bookmark tree from Markdown, HTML, or DOCX headings",
	Long: `Build a bookmark tree from the headings of a Markdown, HTML, or DOCX file.

Heading levels feed the same tree builder as PDF outlines. These formats
have no pages, so every node has pageNumber 1. Use "-" with --type to read
from stdin.`,
	Example: `  bookmarks headings README.md
  bookmarks headings report.docx -o text
  curl -s https://example.com | bookmarks headings - --type html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		records, err := readHeadings(args[0], headingsType, stdinFromContext(ctx))
		if err != nil {
			return printResult(ctx, toc.Failure(err, nil))
		}
		return printResult(ctx, toc.Success(outline.Build(records)))
	},
}

func init() {
	headingsCmd.Flags().StringVar(&headingsType, "type", "", "Input type (md|html|docx); detected from the extension by default")
	rootCmd.AddCommand(headingsCmd)
}

func readHeadings(arg, kindFlag string, stdin io.Reader) ([]outline.Record, error) {
	path := strings.TrimSpace(arg)
	if path == "" {
		return nil, toc.UsageError{Message: "no input provided"}
	}

	var kind headings.Kind
	var err error
	switch {
	case strings.TrimSpace(kindFlag) != "":
		kind, err = headings.ParseKind(kindFlag)
	case path == "-":
		err = errors.New("--type is required when reading from stdin")
	default:
		kind, err = headings.KindFromPath(path)
	}
	if err != nil {
		return nil, toc.UsageError{Message: err.Error()}
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, toc.NotFoundError{Message: fmt.Sprintf("file does not exist: %s", path), Path: path}
		}
		return nil, toc.UsageError{Message: fmt.Sprintf("failed to read %s: %v", path, err)}
	}

	records, err := headings.Extract(bytes.NewReader(data), kind)
	if err != nil {
		return nil, toc.ParseError{
			Message: fmt.Sprintf("failed to read %s headings: %v", kind, err),
			Backend: string(kind),
			Err:     err,
		}
	}
	return records, nil
}
