package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// readInputSource reads a small text value (a jq program, an API key) from a
// file path, or from stdin when source is "-".
func readInputSource(source string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", toc.UsageError{Message: "empty input source"}
	}

	var data []byte
	var err error
	if trimmed == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(trimmed)
		if errors.Is(err, fs.ErrNotExist) {
			return "", toc.NotFoundError{Message: fmt.Sprintf("file does not exist: %s", trimmed), Path: trimmed}
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", trimmed, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// inputHasData reports whether r is piped or redirected rather than an
// interactive terminal.
func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	if file, ok := r.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) == 0
	}
	return true
}
