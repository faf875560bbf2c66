package display

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Table is a column-aligned text table: a bold header, a dim rule, and rows.
// One row may be highlighted, usually today's.
type Table struct {
	headers   []string
	rows      [][]string
	highlight int
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers, highlight: -1}
}

// Row appends a row. Missing cells render blank and extra cells are dropped.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Highlight marks the row at index i, counting from 0.
func (t *Table) Highlight(i int) {
	t.highlight = i
}

// String renders the table indented by two spaces. Column widths count
// runes so localized names such as "Öğle" line up.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}
	widths := t.widths()

	var sb strings.Builder
	sb.WriteString("  " + Bold(pad(t.headers, widths)) + "\n")

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(rule, "  ")) + "\n")

	for i, row := range t.rows {
		line := pad(row, widths)
		if i == t.highlight {
			line = Accent(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func (t *Table) widths() []int {
	w := make([]int, len(t.headers))
	for i, h := range t.headers {
		w[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(w); i++ {
			w[i] = max(w[i], utf8.RuneCountInString(row[i]))
		}
	}
	return w
}

func pad(cells []string, widths []int) string {
	out := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		out[i] = fmt.Sprintf("%-*s", w, cell)
	}
	return strings.Join(out, "  ")
}
