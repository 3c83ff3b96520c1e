package statusbar

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/routedialog/internal/types"
	"github.com/riordanpawley/routedialog/internal/ui/styles"
)

// StatusBar represents the status bar at the bottom of the TUI
type StatusBar struct {
	mode   types.Mode
	width  int
	info   string
	styles *styles.Styles
}

// New creates a new StatusBar with the given mode, width, and styles
func New(mode types.Mode, width int, styles *styles.Styles) StatusBar {
	return StatusBar{
		mode:   mode,
		width:  width,
		styles: styles,
	}
}

// WithInfo returns a copy of the status bar showing info on the right
func (sb StatusBar) WithInfo(info string) StatusBar {
	sb.info = info
	return sb
}

// Render renders the status bar as a string
func (sb StatusBar) Render() string {
	modeBadge := sb.styles.StatusMode.Render(" " + sb.mode.String() + " ")

	hints := GetHints(sb.mode)
	content := modeBadge
	if hints != "" {
		separator := sb.styles.StatusHint.Render(" │ ")
		content = lipgloss.JoinHorizontal(lipgloss.Left, modeBadge, separator, sb.styles.StatusHint.Render(hints))
	}

	if sb.info != "" {
		info := sb.styles.StatusInfo.Render(sb.info)
		// StatusBar pads one cell on each side
		gap := sb.width - 2 - lipgloss.Width(content) - lipgloss.Width(info)
		if gap < 1 {
			gap = 1
		}
		content = lipgloss.JoinHorizontal(lipgloss.Left, content, lipgloss.NewStyle().Width(gap).Render(""), info)
	}

	return sb.styles.StatusBar.Width(sb.width).Render(content)
}
