package toc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// PDFCPUReader reads outlines with pdfcpu (pure Go).
type PDFCPUReader struct {
	conf *model.Configuration
}

// NewPDFCPUReader creates a pdfcpu-backed reader with relaxed validation,
// so that slightly malformed files still yield their outline.
func NewPDFCPUReader() *PDFCPUReader {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPUReader{conf: conf}
}

// Name implements Reader.
func (r *PDFCPUReader) Name() string { return DefaultBackend }

// ReadFile implements Reader.
func (r *PDFCPUReader) ReadFile(ctx context.Context, path string) ([]outline.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NotFoundError{Message: fmt.Sprintf("file does not exist: %s", path), Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return r.read(ctx, f)
}

// ReadBytes implements Reader.
func (r *PDFCPUReader) ReadBytes(ctx context.Context, data []byte) ([]outline.Record, error) {
	return r.read(ctx, bytes.NewReader(data))
}

func (r *PDFCPUReader) read(ctx context.Context, rs io.ReadSeeker) ([]outline.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bms, err := api.Bookmarks(rs, r.conf)
	if err != nil {
		if isNoOutline(err) {
			return []outline.Record{}, nil
		}
		return nil, ParseError{
			Message: fmt.Sprintf("failed to read PDF outline: %v", err),
			Backend: r.Name(),
			Err:     err,
		}
	}

	records := make([]outline.Record, 0, len(bms))
	appendBookmarks(&records, bms, 1)
	return records, nil
}

// appendBookmarks flattens pdfcpu's bookmark tree in document order.
// PageFrom is one-based; an unresolved destination (0) maps to index -1.
func appendBookmarks(records *[]outline.Record, bms []pdfcpu.Bookmark, level int) {
	for _, bm := range bms {
		*records = append(*records, outline.Record{
			Level:     level,
			Title:     bm.Title,
			PageIndex: bm.PageFrom - 1,
		})
		appendBookmarks(records, bm.Kids, level+1)
	}
}

// pdfcpu reports a missing outline as an error rather than an empty result.
func isNoOutline(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no bookmarks") || strings.Contains(msg, "no outlines")
}
