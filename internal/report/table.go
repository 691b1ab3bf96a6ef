package report

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Table is a titled grid of preformatted cells. The first column is left
// aligned, the others right aligned.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// NewTable creates a table with a title line and column headers
func NewTable(title string, columns ...string) *Table {
	return &Table{Title: title, Columns: columns}
}

// AddRow appends a row; missing cells render empty
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) lines() []string {
	var out []string
	if t.Title != "" {
		out = append(out, "", t.Title)
	}

	cols := len(t.Columns)
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], uniseg.StringWidth(c))
		}
	}
	measure(t.Columns)
	for _, r := range t.Rows {
		measure(r)
	}

	if len(t.Columns) > 0 {
		out = append(out, t.formatRow(t.Columns, widths))
	}
	if len(t.Rows) == 0 {
		return append(out, "(no rows)")
	}
	for _, r := range t.Rows {
		out = append(out, t.formatRow(r, widths))
	}
	return out
}

func (t *Table) formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", w-uniseg.StringWidth(cell))
		if i > 0 {
			b.WriteString("  ")
			b.WriteString(pad)
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			b.WriteString(pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
