package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/diet-tracker/internal/theme"
)

// Layout holds the terminal dimensions of a full-screen view.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with a one-line header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height left between the header and the
// status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and status on the right,
// filling the line with the header background.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(status)
	return joinFilled(theme.HeaderStyle, l.Width, left, right)
}

// RenderStatusBar renders keyboard hints or a message across the full width.
func (l Layout) RenderStatusBar(text string) string {
	return joinFilled(theme.StatusBarStyle, l.Width, theme.StatusBarStyle.Render(text), "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func joinFilled(style lipgloss.Style, width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// Bar renders a horizontal bar width cells wide, filled to fraction.
// Fractions outside [0, 1] are clamped.
func Bar(width int, fraction float64) string {
	if width <= 0 {
		return ""
	}
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
