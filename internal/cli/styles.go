package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorAccent = lipgloss.Color("#E65078")
	colorMuted  = lipgloss.Color("#8A8F98")
	colorToday  = lipgloss.Color("#8BC34A")
)

// Styles groups the lipgloss styles used by the command output.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Today  lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the standard output styles.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Today:  lipgloss.NewStyle().Bold(true).Foreground(colorToday).Padding(0, 1),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// table renders rows under headers with aligned columns.
type table struct {
	title   string
	headers []string
	rows    [][]string
	// highlight marks rows rendered with the Today style.
	highlight map[int]bool
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers, highlight: map[int]bool{}}
}

func (t *table) addRow(highlight bool, cells ...string) {
	if highlight {
		t.highlight[len(t.rows)] = true
	}
	t.rows = append(t.rows, cells)
}

func (t *table) render(s Styles) string {
	var sb strings.Builder

	if t.title != "" {
		sb.WriteString(s.Title.Render(t.title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// Padding is part of the rendered width.
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	sep := s.Muted.Render("|")
	writeLine := func(style lipgloss.Style, cells []string) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(cell))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeLine(s.Header, t.headers)
	sb.WriteString(s.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for i, row := range t.rows {
		style := s.Cell
		if t.highlight[i] {
			style = s.Today
		}
		writeLine(style, row)
	}

	return sb.String()
}
