package toc

import (
	"bytes"
	"fmt"
	"runtime/debug"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// Summary reports whether a PDF carries an outline. It is a quick
// check that does not resolve page destinations.
type Summary struct {
	OK           bool `json:"ok" yaml:"ok"`
	HasBookmarks bool `json:"hasBookmarks" yaml:"hasBookmarks"`
	Entries      int  `json:"entries" yaml:"entries"`
	TopLevel     int  `json:"topLevel" yaml:"topLevel"`
	Depth        int  `json:"depth" yaml:"depth"`
	Pages        int  `json:"pages" yaml:"pages"`
}

// Inspect opens the PDF with ledongthuc/pdf and counts its outline entries.
func Inspect(src Source) (res *Summary, err error) {
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = InternalError{
				Message: fmt.Sprintf("unexpected failure while probing PDF: %v", rec),
				Trace:   string(debug.Stack()),
			}
		}
	}()

	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ParseError{
			Message: fmt.Sprintf("failed to open PDF: %v", err),
			Backend: "ledongthuc",
			Err:     err,
		}
	}

	forest := outlineForest(r.Outline().Child)
	return &Summary{
		OK:           true,
		HasBookmarks: len(forest) > 0,
		Entries:      outline.Count(forest),
		TopLevel:     len(forest),
		Depth:        outline.Depth(forest),
		Pages:        r.NumPage(),
	}, nil
}

func outlineForest(items []pdflib.Outline) []*outline.Node {
	nodes := make([]*outline.Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, &outline.Node{
			Title:    item.Title,
			Children: outlineForest(item.Child),
		})
	}
	return nodes
}
