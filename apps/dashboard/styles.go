package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/appraise/core"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	faintStyle = lipgloss.NewStyle().Faint(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	noticeStyles = map[core.NoticeLevel]lipgloss.Style{
		core.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		core.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		core.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
)

func renderNotice(n core.Notice) string {
	if n.Title == "" {
		return ""
	}
	style, ok := noticeStyles[n.Level]
	if !ok {
		style = faintStyle
	}
	return style.Render(n.Title)
}
