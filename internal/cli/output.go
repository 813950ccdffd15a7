package cli

import (
	"fmt"
	"strings"
)

// Table provides formatted column-aligned output for status listings.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	for i, cell := range cells {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, cells)
}

// String renders the table as a string.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder

	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Header(padRight(h, t.widths[i])))
	}
	b.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Dim(strings.Repeat("─", w)))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(t.widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padRight(cell, t.widths[i]))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// padRight pads a string to the right with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// StatusBadge renders an up/down/missing marker for one migration row.
func StatusBadge(applied, missing bool) string {
	switch {
	case missing:
		return Failed("** MISSING **")
	case applied:
		return Done("up")
	default:
		return Warning("down")
	}
}

// FormatCount formats a count with singular/plural form.
func FormatCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
