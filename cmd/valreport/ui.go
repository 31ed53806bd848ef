package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"valfront/internal/status"
)

var (
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
	purple = lipgloss.Color("99")
)

var (
	headlineStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(dim)
	warnStyle     = lipgloss.NewStyle().Foreground(yellow)
	errorStyle    = lipgloss.NewStyle().Foreground(red)
	okStyle       = lipgloss.NewStyle().Foreground(green)
)

// severityCell renders a severity label in its terminal color
func severityCell(s status.Severity) string {
	label := s.Label()
	switch s {
	case status.SeverityError:
		return errorStyle.Render(label)
	case status.SeverityWarning:
		return warnStyle.Render(label)
	case status.SeverityApplicable, status.SeverityPassed:
		return okStyle.Render(label)
	}
	return mutedStyle.Render(label)
}

// renderTable renders a bordered table with styled headers
func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().
		Foreground(purple).
		Bold(true).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}
