// Package headings turns document headings into flat outline records so the
// same hierarchy builder used for PDF bookmarks can nest them.
package headings

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// Kind identifies a heading source format.
type Kind string

const (
	KindMarkdown Kind = "md"
	KindHTML     Kind = "html"
	KindDOCX     Kind = "docx"
)

// ParseKind normalizes a --type value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return KindMarkdown, nil
	case "html", "htm":
		return KindHTML, nil
	case "docx":
		return KindDOCX, nil
	default:
		return "", fmt.Errorf("unsupported document type %q (expected md|html|docx)", s)
	}
}

// KindFromPath guesses the format from the file extension.
func KindFromPath(path string) (Kind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer document type of %s; use --type", path)
	}
	return ParseKind(ext)
}

// Extract reads headings of the given kind. Documents without pages report
// every heading on page index 0.
func Extract(r io.Reader, kind Kind) ([]outline.Record, error) {
	switch kind {
	case KindMarkdown:
		return Markdown(r)
	case KindHTML:
		return HTML(r)
	case KindDOCX:
		return DOCX(r)
	default:
		return nil, fmt.Errorf("unsupported document type %q", kind)
	}
}
