package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const dateLayout = "2006-01-02"

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf(format, args...)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
