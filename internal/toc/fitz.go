//go:build mupdf

package toc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// MuPDFReader reads outlines with MuPDF through go-fitz. The table of
// contents already comes back flat, with zero-based page indexes.
type MuPDFReader struct{}

// NewMuPDFReader creates a MuPDF-backed reader.
func NewMuPDFReader() *MuPDFReader { return &MuPDFReader{} }

// Name implements Reader.
func (r *MuPDFReader) Name() string { return MuPDFBackend }

// ReadFile implements Reader.
func (r *MuPDFReader) ReadFile(ctx context.Context, path string) ([]outline.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNoSuchFile) {
			return nil, NotFoundError{Message: fmt.Sprintf("file does not exist: %s", path), Path: path}
		}
		return nil, r.parseError(err)
	}
	defer doc.Close()
	return r.toc(doc)
}

// ReadBytes implements Reader.
func (r *MuPDFReader) ReadBytes(ctx context.Context, data []byte) ([]outline.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, r.parseError(err)
	}
	defer doc.Close()
	return r.toc(doc)
}

func (r *MuPDFReader) toc(doc *fitz.Document) ([]outline.Record, error) {
	entries, err := doc.ToC()
	if err != nil {
		if errors.Is(err, fitz.ErrLoadOutline) {
			return []outline.Record{}, nil
		}
		return nil, r.parseError(err)
	}

	records := make([]outline.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, outline.Record{
			Level:     e.Level,
			Title:     e.Title,
			PageIndex: e.Page,
		})
	}
	return records, nil
}

func (r *MuPDFReader) parseError(err error) error {
	return ParseError{
		Message: fmt.Sprintf("failed to read PDF outline: %v", err),
		Backend: r.Name(),
		Err:     err,
	}
}

func registerOptional(r *Registry) {
	r.Register(NewMuPDFReader())
}
