package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	coretable "github.com/trezcool/appraise/core/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderRows draws rows under the title-cased headers of cols.
func renderRows[R any](rows []R, cols []coretable.Column[R]) string {
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Header()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = col.Value(r)
		}
		t.Row(cells...)
	}
	return t.String()
}

func renderPage[R any](page coretable.Page[R], cols []coretable.Column[R]) string {
	return renderRows(page.Rows, cols) + "\n" +
		fmt.Sprintf("page %d/%d, %s", page.Page, page.Pages, plural(page.Total, "row"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
