package cmd

import (
	"context"

	"github.com/salmonumbrella/bookmarks-cli/internal/output"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(ctx context.Context, data interface{}) error {
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printResult writes an extraction envelope to stdout. Failures are always
// written as a JSON (or YAML) envelope, even in text and table mode, and are
// returned as a resultError so the process exits non-zero.
func printResult(ctx context.Context, res *toc.Result) error {
	format := GetOutputFormat()
	var data interface{} = &bookmarkView{Result: res}

	if !res.OK {
		switch format {
		case output.FormatText, output.FormatTable:
			format = output.FormatJSON
		case output.FormatNDJSON:
			data = res
		}
	}

	printer := output.NewPrinter(stdoutFromContext(ctx), format)
	if err := printer.Print(ctx, data); err != nil {
		return err
	}
	if !res.OK {
		return resultError{result: res}
	}
	return nil
}
