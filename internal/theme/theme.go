package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by Apply.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
)

// Apply selects which side of the adaptive palette is used. "default"
// follows the terminal's background; "dark" and "light" force one.
func Apply(name string) error {
	switch name {
	case "", ThemeDefault:
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a dashboard section.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SectionTitleStyle labels a panel.
var SectionTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// ErrorStyle renders failures in the status bar and CLI output.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// ActiveBadgeStyle marks the active meal plan.
var ActiveBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen).
	Padding(0, 1)

// MacroStyle returns the color used for a nutrient: "calories",
// "protein", "carbs", "fat" or "water".
func MacroStyle(nutrient string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch nutrient {
	case "calories":
		return base.Foreground(ColorOrange)
	case "protein":
		return base.Foreground(ColorMagenta)
	case "carbs":
		return base.Foreground(ColorYellow)
	case "fat":
		return base.Foreground(ColorBlue)
	case "water":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// ProgressStyle colors a consumed/target percentage: under 90 is on track,
// up to 110 is close, above that is over target.
func ProgressStyle(percent float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case percent > 110:
		return base.Foreground(ColorRed)
	case percent >= 90:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGreen)
	}
}
