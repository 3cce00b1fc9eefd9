package headings

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

// DOCX returns paragraphs styled as headings ("Heading1" or "heading 1").
func DOCX(r io.Reader) ([]outline.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	records := []outline.Record{}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok || para.Properties == nil || para.Properties.Style == nil {
			continue
		}
		level := styleLevel(para.Properties.Style.Val)
		if level == 0 {
			continue
		}
		if title := paragraphText(para); title != "" {
			records = append(records, outline.Record{Level: level, Title: title})
		}
	}
	return records, nil
}

func styleLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
	if err != nil || n < 1 || n > 9 {
		return 0
	}
	return n
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
