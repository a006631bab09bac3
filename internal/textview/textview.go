// Package textview draws a composed month for the terminal.
package textview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"caldesign/internal/calendar"
	"caldesign/internal/model"
)

const (
	cellWidth  = 12
	cellHeight = 4
	eventLimit = 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1).
			MarginBottom(1)

	weekdayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("117")).
			Width(cellWidth + 2).
			Align(lipgloss.Center)

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Width(cellWidth).
			Height(cellHeight)

	todayCellStyle = cellStyle.BorderForeground(lipgloss.Color("205"))

	outStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sundayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	saturdayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	moreStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)

	summaryStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 1)
)

// Render returns the month as a boxed grid followed by per-category counts.
func Render(l calendar.Layout, weekendsColored bool) string {
	var header []string
	for _, wd := range calendar.WeekdayLabels(l.StartDay) {
		header = append(header, weekdayStyle.Render(wd))
	}

	rows := []string{
		titleStyle.Render(l.Title()),
		lipgloss.JoinHorizontal(lipgloss.Top, header...),
	}
	for _, week := range l.Weeks() {
		cells := make([]string, 0, len(week))
		for _, c := range week {
			cells = append(cells, renderCell(c, weekendsColored))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	rows = append(rows, summaryStyle.Render(summary(l)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCell(c calendar.Cell, weekendsColored bool) string {
	day := strconv.Itoa(c.Date.Day)
	switch wd := c.Date.Weekday(); {
	case !c.InMonth:
		day = outStyle.Render(day)
	case weekendsColored && wd == 0:
		day = sundayStyle.Render(day)
	case weekendsColored && wd == 6:
		day = saturdayStyle.Render(day)
	}

	lines := []string{day}
	shown, more := c.Visible(eventLimit)
	for _, ev := range shown {
		lines = append(lines, truncate(ev.Title, cellWidth))
	}
	if more > 0 {
		lines = append(lines, moreStyle.Render(fmt.Sprintf("+%d more", more)))
	}

	style := cellStyle
	if c.IsToday {
		style = todayCellStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func summary(l calendar.Layout) string {
	parts := make([]string, 0, len(model.Categories))
	for _, cat := range model.Categories {
		parts = append(parts, fmt.Sprintf("%s %s: %d", cat.Icon(), cat.Label(), len(l.Summaries[cat])))
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
