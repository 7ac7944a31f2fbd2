package main

import (
	btable "github.com/charmbracelet/bubbles/table"

	coretable "github.com/trezcool/appraise/core/table"
)

const maxColumnWidth = 32

// newTable builds a bubbles table whose columns fit the header and rows.
func newTable[R any](cols []coretable.Column[R], rows []R, height int) btable.Model {
	columns := make([]btable.Column, len(cols))
	for i, col := range cols {
		width := len(col.Header())
		for _, r := range rows {
			if w := len(col.Value(r)); w > width {
				width = w
			}
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		columns[i] = btable.Column{Title: col.Header(), Width: width}
	}

	return btable.New(
		btable.WithColumns(columns),
		btable.WithRows(tableRows(cols, rows)),
		btable.WithFocused(true),
		btable.WithHeight(height),
	)
}

func tableRows[R any](cols []coretable.Column[R], rows []R) []btable.Row {
	out := make([]btable.Row, len(rows))
	for i, r := range rows {
		row := make(btable.Row, len(cols))
		for j, col := range cols {
			row[j] = col.Value(r)
		}
		out[i] = row
	}
	return out
}
