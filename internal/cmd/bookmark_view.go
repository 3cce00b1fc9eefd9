package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// bookmarkView adapts a toc.Result to the printer: the envelope for json and
// yaml, flat rows for ndjson and table, and an indented tree for text.
type bookmarkView struct {
	*toc.Result
}

// bookmarkRow is one flattened bookmark.
type bookmarkRow struct {
	Level      int    `json:"level" yaml:"level"`
	Title      string `json:"title" yaml:"title"`
	PageNumber int    `json:"pageNumber" yaml:"pageNumber"`
}

func (v bookmarkView) MarshalJSON() ([]byte, error) {
	return v.Result.MarshalJSON()
}

func (v bookmarkView) MarshalYAML() (interface{}, error) {
	return v.Result.MarshalYAML()
}

// ListItems returns the forest in pre-order as flat rows.
func (v bookmarkView) ListItems() interface{} {
	records := outline.Flatten(v.Bookmarks)
	rows := make([]bookmarkRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, bookmarkRow{
			Level:      rec.Level,
			Title:      rec.Title,
			PageNumber: rec.PageIndex + 1,
		})
	}
	return rows
}

// RenderText draws the forest as a tree with box-drawing guides.
func (v bookmarkView) RenderText(w io.Writer) error {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true)
	pageStyle := r.NewStyle().Foreground(lipgloss.Color("8"))

	if len(v.Bookmarks) == 0 {
		_, err := fmt.Fprintln(w, pageStyle.Render("(no bookmarks)"))
		return err
	}

	var b strings.Builder
	var walk func(nodes []*outline.Node, prefix string, root bool)
	walk = func(nodes []*outline.Node, prefix string, root bool) {
		for i, node := range nodes {
			last := i == len(nodes)-1
			branch, next := "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
			if root {
				branch, next = "", ""
			}
			b.WriteString(prefix + branch)
			b.WriteString(titleStyle.Render(node.Title))
			b.WriteString("  ")
			b.WriteString(pageStyle.Render(fmt.Sprintf("p.%d", node.PageNumber)))
			b.WriteString("\n")
			walk(node.Children, prefix+next, false)
		}
	}
	walk(v.Bookmarks, "", true)

	_, err := io.WriteString(w, b.String())
	return err
}
