// Package table renders aligned text tables that may contain ANSI colors
package table

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc is a callback to format or colorize a cell value
type FormatFunc func(value string) string

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header     string
	BlankValue string     // shown for empty cells (default: "-")
	FormatFunc FormatFunc // optional formatter/colorizer
	MinWidth   int
	AlignRight bool
}

type row struct {
	cells []string
	style FormatFunc
}

// Table represents a formatted table
type Table struct {
	columns []ColumnSpec
	rows    []row
	widths  []int
}

func New(cols ...ColumnSpec) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}

	for i, col := range cols {
		t.widths[i] = max(col.MinWidth, visibleLength(col.Header))
		if t.columns[i].BlankValue == "" {
			t.columns[i].BlankValue = "-"
		}
	}

	return t
}

// AddRow adds a row of data; missing and empty cells show the column's BlankValue
func (t *Table) AddRow(data ...string) {
	t.AddStyledRow(nil, data...)
}

// AddStyledRow adds a row whose padded cells are all passed through style,
// after any column formatter
func (t *Table) AddStyledRow(style FormatFunc, data ...string) {
	cells := make([]string, len(t.columns))
	for i := range cells {
		if i < len(data) && data[i] != "" {
			cells[i] = data[i]
		} else {
			cells[i] = t.columns[i].BlankValue
		}

		if n := visibleLength(cells[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}

	t.rows = append(t.rows, row{cells: cells, style: style})
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to the given writer
func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	sep := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = t.pad(col.Header, i)
		sep[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(headers, " "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(sep, " ")); err != nil {
		return err
	}

	for _, r := range t.rows {
		formatted := make([]string, len(r.cells))
		for i, val := range r.cells {
			if f := t.columns[i].FormatFunc; f != nil && val != t.columns[i].BlankValue {
				val = f(val)
			}
			val = t.pad(val, i)
			if r.style != nil {
				val = r.style(val)
			}
			formatted[i] = val
		}
		if _, err := fmt.Fprintln(w, strings.Join(formatted, " ")); err != nil {
			return err
		}
	}

	return nil
}

func (t *Table) pad(s string, column int) string {
	n := visibleLength(s)
	width := t.widths[column]
	if n >= width {
		return s
	}
	if t.columns[column].AlignRight {
		return strings.Repeat(" ", width-n) + s
	}
	return s + strings.Repeat(" ", width-n)
}

// visibleLength counts runes outside ANSI escape sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
