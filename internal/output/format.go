package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON is pretty-printed JSON format (default).
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatText is human-readable format.
	FormatText Format = "text"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatTable:
		return FormatTable, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", errors.New("invalid --output format (expected json|ndjson|yaml|table|text)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// TextRenderer is implemented by values with their own text rendering.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Lister is implemented by values whose ndjson and table output is a list
// of rows rather than the value itself.
type Lister interface {
	ListItems() interface{}
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print outputs data in the configured format.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	data = ApplyAgentOptions(ctx, data)

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data)
	case FormatNDJSON:
		return p.printNDJSON(ctx, data)
	case FormatYAML:
		return p.printYAML(data)
	case FormatTable:
		return p.printTable(data)
	case FormatText:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) encoder(indent bool) *json.Encoder {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc
}

// printJSON outputs data as pretty-printed JSON, filtered by the jq query
// from the context when one is set.
func (p *Printer) printJSON(ctx context.Context, data interface{}) error {
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data, p.encoder(true))
	}
	return p.encoder(true).Encode(data)
}

// printNDJSON outputs one compact JSON document per list item.
func (p *Printer) printNDJSON(ctx context.Context, data interface{}) error {
	enc := p.encoder(false)
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data, enc)
	}

	if l, ok := data.(Lister); ok {
		data = l.ListItems()
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

func (p *Printer) runQuery(query string, data interface{}, enc *json.Encoder) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	input, err := normalize(data)
	if err != nil {
		return err
	}

	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query error: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

// normalize converts data into the plain maps, slices and scalars gojq
// operates on.
func normalize(data interface{}) (interface{}, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	return fromJSONNumbers(v), nil
}

// fromJSONNumbers turns json.Number values into int or float64.
func fromJSONNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = fromJSONNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = fromJSONNumbers(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText renders data for humans: TextRenderer values render themselves,
// maps and structs print as key-value pairs, slices one item per line.
func (p *Printer) printText(data interface{}) error {
	if r, ok := data.(TextRenderer); ok {
		return r.RenderText(p.w)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, key := range keys {
			if _, err := fmt.Fprintf(p.w, "%v: %v\n", key.Interface(), v.MapIndex(key).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			value := v.Field(i)
			if strings.Contains(f.Tag.Get("json"), "omitempty") && value.IsZero() {
				continue
			}
			if _, err := fmt.Fprintf(p.w, "%s: %v\n", fieldLabel(f), value.Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.w, v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
}

func (p *Printer) printTable(data interface{}) error {
	if l, ok := data.(Lister); ok {
		data = l.ListItems()
	}
	if table, ok := data.(Table); ok {
		return p.printTableData(table.Headers, table.Rows)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}
	if v.Len() == 0 {
		return nil
	}

	headers, rows := buildTable(v)
	return p.printTableData(headers, rows)
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func buildTable(v reflect.Value) ([]string, [][]string) {
	first := v.Index(0)
	for first.Kind() == reflect.Ptr && !first.IsNil() {
		first = first.Elem()
	}

	if first.Kind() != reflect.Struct {
		rows := make([][]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, []string{fmt.Sprint(v.Index(i).Interface())})
		}
		return []string{"value"}, rows
	}

	var headers []string
	var idx []int
	for i := 0; i < first.NumField(); i++ {
		f := first.Type().Field(i)
		if !f.IsExported() {
			continue
		}
		headers = append(headers, fieldLabel(f))
		idx = append(idx, i)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr && !item.IsNil() {
			item = item.Elem()
		}
		if item.Kind() != reflect.Struct {
			rows = append(rows, []string{fmt.Sprint(item.Interface())})
			continue
		}
		row := make([]string, 0, len(idx))
		for _, j := range idx {
			row = append(row, fmt.Sprint(item.Field(j).Interface()))
		}
		rows = append(rows, row)
	}
	return headers, rows
}
