package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/diet-tracker/internal/keys"
	"github.com/nhle/diet-tracker/internal/theme"
)

// Overlay renders the full list of keybindings.
type Overlay struct {
	keys *keys.KeyMap
	help help.Model
}

// New creates a help overlay for k.
func New(k *keys.KeyMap) Overlay {
	h := help.New()
	h.ShowAll = true
	return Overlay{keys: k, help: h}
}

// Short renders the one-line hint shown in the status bar.
func (o Overlay) Short() string {
	return o.help.ShortHelpView(o.keys.ShortHelp())
}

// View renders the overlay width cells wide.
func (o Overlay) View(width int) string {
	if width > 4 {
		o.help.Width = width - 4
	}
	title := theme.SectionTitleStyle.MarginBottom(1).Render("Keyboard Shortcuts")
	content := lipgloss.JoinVertical(lipgloss.Left, title, o.help.View(o.keys))
	return theme.PanelStyle.Render(content)
}
