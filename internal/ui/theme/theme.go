// Package theme styles command output.
package theme

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)

	Value = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Rule = lipgloss.NewStyle().
		Foreground(Border)
)

// States
var (
	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Warn = lipgloss.NewStyle().
		Foreground(Accent)
)

// Components
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Badge = lipgloss.NewStyle().
		Foreground(Text).
		Padding(0, 1).
		Bold(true)
)

// Level renders a CEFR band such as "B1+" as a colored badge.
func Level(cefr string) string {
	return Badge.Background(cefrColor(cefr)).Render(cefr)
}

func cefrColor(cefr string) color.Color {
	switch {
	case strings.HasPrefix(cefr, "A"):
		return Secondary
	case strings.HasPrefix(cefr, "B"):
		return Primary
	case strings.HasPrefix(cefr, "C"):
		return Accent
	default:
		return Border
	}
}

// Field renders one "label  value" line.
func Field(label string, value any) string {
	return Label.Render(label) + Value.Render(fmt.Sprint(value))
}

// Separator returns a horizontal rule n cells wide.
func Separator(n int) string {
	return Rule.Render(strings.Repeat("─", n))
}

// Bar renders pct (0-100) as a progress bar n cells wide.
func Bar(pct float64, n int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(n))
	return Good.Render(strings.Repeat("█", filled)) +
		Rule.Render(strings.Repeat("░", n-filled))
}
