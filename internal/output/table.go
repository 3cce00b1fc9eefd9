package output

// Table represents a pre-rendered table for table output formatting.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// NewTable returns an empty table with the given column headers.
func NewTable(headers ...string) Table {
	return Table{Headers: headers, Rows: [][]string{}}
}

// AddRow appends a row, padding or truncating it to the header width.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}
