package overlay

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/routedialog/internal/dialog"
)

// RouteDialog frames a dialog.Controller. It shows a spinner until loader
// data is present, the content once it is, and stays on screen dimmed while
// the controller is closing so the last frame is not yanked away.
type RouteDialog struct {
	title   string
	width   int
	styles  *Styles
	spinner spinner.Model
}

// NewRouteDialog creates a frame with the given title and content width
func NewRouteDialog(title string, width int) *RouteDialog {
	s := spinner.New()
	s.Spinner = spinner.Dot

	st := New()
	s.Style = st.Spinner

	return &RouteDialog{
		title:   title,
		width:   width,
		styles:  st,
		spinner: s,
	}
}

// SetTitle changes the frame title
func (d *RouteDialog) SetTitle(title string) {
	d.title = title
}

// Tick starts the spinner animation
func (d *RouteDialog) Tick() tea.Cmd {
	return d.spinner.Tick
}

// Update advances the spinner
func (d *RouteDialog) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	d.spinner, cmd = d.spinner.Update(msg)
	return cmd
}

// Visible reports whether the frame has anything to draw for c
func Visible(c *dialog.Controller) bool {
	return c.Open() || c.Phase() == dialog.PhaseClosing
}

// View renders the frame around content, or "" when the dialog is neither
// open nor closing
func (d *RouteDialog) View(c *dialog.Controller, content dialog.Content) string {
	if !Visible(c) {
		return ""
	}

	header := d.styles.Title.Render(d.title)
	switch {
	case c.Phase() == dialog.PhaseLoading || c.Refreshing():
		header += " " + d.spinner.View()
	case c.Phase() == dialog.PhaseClosing:
		header += " " + d.styles.Footer.UnsetMarginTop().Render("(closing)")
	}

	body := c.View(content)
	if body == "" {
		body = d.placeholder(c)
	}

	frame := d.styles.Overlay
	if c.Phase() == dialog.PhaseClosing {
		frame = d.styles.Dimmed
	}

	return frame.Width(d.width).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		d.styles.Subtitle.Render(c.URL()),
		body,
	))
}

func (d *RouteDialog) placeholder(c *dialog.Controller) string {
	if msg, failed := c.Error(); failed && c.Phase() != dialog.PhaseLoading {
		return lipgloss.JoinVertical(lipgloss.Left,
			d.styles.Error.Render(msg),
			d.styles.Footer.Render("ctrl+r: retry • esc: close"),
		)
	}
	return d.spinner.View() + " Loading…"
}
