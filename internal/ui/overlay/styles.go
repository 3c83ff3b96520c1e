package overlay

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/routedialog/internal/ui/styles"
)

// Styles holds all overlay-specific styles
type Styles struct {
	// Overlay is the base overlay container style
	Overlay lipgloss.Style
	// Dimmed is the container style for a dialog that is closing
	Dimmed lipgloss.Style
	// Title is the overlay title style
	Title lipgloss.Style
	// Subtitle shows the route a dialog is bound to
	Subtitle lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuKey          lipgloss.Style
	// Category heads a group of help bindings
	Category lipgloss.Style
	Footer   lipgloss.Style
	Error    lipgloss.Style
	Spinner  lipgloss.Style
}

// New creates a new Styles instance using the Catppuccin Macchiato theme
func New() *Styles {
	return &Styles{
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Surface2).
			Background(styles.Base).
			Padding(1, 2),

		Dimmed: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Surface0).
			Foreground(styles.Overlay0).
			Background(styles.Base).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(styles.Text).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(styles.Overlay1).
			MarginBottom(1),

		MenuItem: lipgloss.NewStyle().
			Foreground(styles.Text),

		MenuItemActive: lipgloss.NewStyle().
			Foreground(styles.Blue).
			Bold(true),

		MenuKey: lipgloss.NewStyle().
			Foreground(styles.Yellow).
			Bold(true),

		Category: lipgloss.NewStyle().
			Foreground(styles.Blue).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(styles.Subtext0).
			MarginTop(1),

		Error: lipgloss.NewStyle().
			Foreground(styles.Red),

		Spinner: lipgloss.NewStyle().
			Foreground(styles.Mauve),
	}
}
