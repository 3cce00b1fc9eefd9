package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

type item struct {
	Title string `json:"title"`
	Page  int    `json:"pageNumber"`
}

type envelope struct {
	OK        bool   `json:"ok"`
	Bookmarks []item `json:"bookmarks"`
}

type rendered struct{}

func (rendered) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, "custom text")
	return err
}

type listed struct {
	Rows []item `json:"rows"`
}

func (l listed) ListItems() interface{} { return l.Rows }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"ndjson", FormatNDJSON, false},
		{"table", FormatTable, false},
		{"text", FormatText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsStructured(t *testing.T) {
	if !IsStructured(FormatJSON) || !IsStructured(FormatYAML) || !IsStructured(FormatNDJSON) {
		t.Fatal("expected json, yaml and ndjson to be structured")
	}
	if IsStructured(FormatText) || IsStructured(FormatTable) {
		t.Fatal("expected text and table to be unstructured")
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	data := envelope{OK: true, Bookmarks: []item{{Title: "A & B", Page: 1}}}
	if err := NewPrinter(&buf, FormatJSON).Print(context.Background(), data); err != nil {
		t.Fatalf("Print JSON failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"ok": true`) || !strings.Contains(out, `"title": "A & B"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}

func TestPrintJSON_Query(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithQuery(context.Background(), ".bookmarks[].pageNumber")
	data := envelope{OK: true, Bookmarks: []item{{Title: "A", Page: 1}, {Title: "B", Page: 7}}}
	if err := NewPrinter(&buf, FormatJSON).Print(ctx, data); err != nil {
		t.Fatalf("Print with query failed: %v", err)
	}
	if got := buf.String(); got != "1\n7\n" {
		t.Fatalf("unexpected query output: %q", got)
	}
}

func TestPrintJSON_InvalidQuery(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithQuery(context.Background(), ".bookmarks[")
	err := NewPrinter(&buf, FormatJSON).Print(ctx, envelope{})
	if err == nil || !strings.Contains(err.Error(), "invalid --query") {
		t.Fatalf("expected invalid query error, got %v", err)
	}
}

func TestPrintNDJSON_Lister(t *testing.T) {
	var buf bytes.Buffer
	data := listed{Rows: []item{{Title: "A", Page: 1}, {Title: "B", Page: 2}}}
	if err := NewPrinter(&buf, FormatNDJSON).Print(context.Background(), data); err != nil {
		t.Fatalf("Print NDJSON failed: %v", err)
	}
	want := "{\"title\":\"A\",\"pageNumber\":1}\n{\"title\":\"B\",\"pageNumber\":2}\n"
	if buf.String() != want {
		t.Fatalf("unexpected ndjson output: %q", buf.String())
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, FormatYAML).Print(context.Background(), map[string]int{"a": 1}); err != nil {
		t.Fatalf("Print YAML failed: %v", err)
	}
	if !strings.Contains(buf.String(), "a: 1") {
		t.Fatalf("unexpected yaml output: %s", buf.String())
	}
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, FormatText).Print(context.Background(), rendered{}); err != nil {
		t.Fatalf("Print text failed: %v", err)
	}
	if buf.String() != "custom text\n" {
		t.Fatalf("expected TextRenderer output, got %q", buf.String())
	}

	buf.Reset()
	if err := NewPrinter(&buf, FormatText).Print(context.Background(), map[string]string{"b": "2", "a": "1"}); err != nil {
		t.Fatalf("Print text map failed: %v", err)
	}
	if buf.String() != "a: 1\nb: 2\n" {
		t.Fatalf("unexpected text output: %q", buf.String())
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	data := []item{{Title: "Intro", Page: 1}, {Title: "Body", Page: 4}}
	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), data); err != nil {
		t.Fatalf("Print table failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "title") || !strings.Contains(out, "pageNumber") {
		t.Fatalf("unexpected table headers: %s", out)
	}
	if !strings.Contains(out, "Intro") || !strings.Contains(out, "4") {
		t.Fatalf("unexpected table rows: %s", out)
	}
}

func TestPrintTable_PreRendered(t *testing.T) {
	table := NewTable("LEVEL", "TITLE")
	table.AddRow("1", "Intro")
	table.AddRow("2")

	var buf bytes.Buffer
	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), table); err != nil {
		t.Fatalf("Print table failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "1") || !strings.Contains(lines[1], "Intro") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestPrintTable_RequiresList(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), map[string]int{"a": 1}); err == nil {
		t.Fatal("expected error for non-list table output")
	}
}

func TestApplyAgentOptions_StructListField(t *testing.T) {
	ctx := WithLimit(context.Background(), 2)

	data := &envelope{OK: true, Bookmarks: []item{{Title: "A", Page: 1}, {Title: "B", Page: 3}, {Title: "C", Page: 9}}}
	ApplyAgentOptions(ctx, data)

	if len(data.Bookmarks) != 2 || data.Bookmarks[1].Title != "B" {
		t.Fatalf("expected first two bookmarks in document order, got %+v", data.Bookmarks)
	}
}

func TestApplyAgentOptions_Slice(t *testing.T) {
	ctx := WithLimit(context.Background(), 1)
	data := []item{{Title: "b"}, {Title: "a"}, {Title: "c"}}

	got, ok := ApplyAgentOptions(ctx, data).([]item)
	if !ok {
		t.Fatalf("expected []item result")
	}
	if len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(data) != 3 {
		t.Fatal("input slice should not be modified")
	}
}

func TestApplyAgentOptions_LimitAboveLength(t *testing.T) {
	data := [2]item{{Title: "a"}, {Title: "b"}}
	got, ok := ApplyAgentOptions(WithLimit(context.Background(), 5), data).([]item)
	if !ok || len(got) != 2 {
		t.Fatalf("expected both items as a slice, got %#v", got)
	}
}

func TestApplyAgentOptions_NoOptions(t *testing.T) {
	data := []item{{Title: "b"}, {Title: "a"}}
	got := ApplyAgentOptions(context.Background(), data).([]item)
	if got[0].Title != "b" {
		t.Fatal("expected data unchanged without options")
	}
}
