package output

import (
	"io"
	"strings"
	"unicode/utf8"
)

const tablePadding = 2

// cell is one table value. paint colors the text after the column is padded,
// so escape sequences never count toward the width.
type cell struct {
	text  string
	paint func(...any) string
}

func (c cell) render() string {
	if c.paint == nil {
		return c.text
	}
	return c.paint(c.text)
}

type table struct {
	rows   [][]cell
	widths []int
}

func newTable(headerPaint func(...any) string, headers ...string) *table {
	t := &table{}
	row := make([]cell, len(headers))
	for i, h := range headers {
		row[i] = cell{text: h, paint: headerPaint}
	}
	t.row(row...)
	return t
}

func (t *table) row(cells ...cell) {
	for i, c := range cells {
		if i >= len(t.widths) {
			t.widths = append(t.widths, 0)
		}
		t.widths[i] = max(t.widths[i], utf8.RuneCountInString(c.text))
	}
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	var b strings.Builder
	for _, row := range t.rows {
		for i, c := range row {
			b.WriteString(c.render())
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(c.text)+tablePadding))
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
