// Package render formats command output for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Column describes one table column.
type Column struct {
	Header string
}

// Table writes rows under a header line and a dashed separator. Column
// widths fit the widest cell, measured in display cells so wide runes
// keep the columns aligned.
func Table(w io.Writer, columns []Column, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col.Header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for i, col := range columns {
		fmt.Fprintf(w, "%s ", pad(col.Header, widths[i]))
	}
	fmt.Fprintln(w)

	for i := range columns {
		fmt.Fprintf(w, "%s ", strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			fmt.Fprintf(w, "%s ", pad(cell, widths[i]))
		}
		fmt.Fprintln(w)
	}
}

// TitledTable prints an optional title line before the table.
func TitledTable(w io.Writer, title string, columns []Column, rows [][]string) {
	if title != "" {
		fmt.Fprintf(w, "\n%s:\n", title)
	}
	Table(w, columns, rows)
}

func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// KeyValues writes aligned "key: value" lines in the given order.
func KeyValues(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if n := runewidth.StringWidth(p[0]); n > width {
			width = n
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s: %s\n", pad(p[0], width), p[1])
	}
}
