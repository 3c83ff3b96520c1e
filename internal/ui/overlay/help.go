package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyBinding represents a single keybinding entry
type KeyBinding struct {
	Key         string
	Description string
}

// KeyCategory represents a category of keybindings
type KeyCategory struct {
	Name     string
	Bindings []KeyBinding
}

// HelpCategories lists the keybindings of the browse screen
var HelpCategories = []KeyCategory{
	{
		Name: "Records",
		Bindings: []KeyBinding{
			{Key: "j/k", Description: "Move down/up"},
			{Key: "g/G", Description: "First/last record"},
			{Key: "Enter", Description: "Open record dialog"},
			{Key: "R", Description: "Reload records"},
		},
	},
	{
		Name: "Dialog",
		Bindings: []KeyBinding{
			{Key: "Tab", Description: "Next field"},
			{Key: "Shift+Tab", Description: "Previous field"},
			{Key: "Ctrl+R", Description: "Refetch record"},
			{Key: "Ctrl+S", Description: "Save record"},
			{Key: "Esc", Description: "Close dialog"},
		},
	},
	{
		Name: "Other",
		Bindings: []KeyBinding{
			{Key: "?", Description: "Help (this screen)"},
			{Key: "q", Description: "Quit"},
			{Key: "Ctrl+L", Description: "Redraw screen"},
		},
	},
}

// HelpOverlay displays keybinding reference
type HelpOverlay struct {
	styles     *Styles
	scroll     int
	viewHeight int
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{
		styles:     New(),
		viewHeight: 14,
	}
}

// Init initializes the overlay
func (h *HelpOverlay) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (h *HelpOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch keyMsg.String() {
	case "esc", "q", "?":
		return h, func() tea.Msg { return CloseOverlayMsg{} }
	case "j", "down":
		h.scroll = min(h.scroll+1, h.maxScroll())
	case "k", "up":
		h.scroll = max(h.scroll-1, 0)
	case "g":
		h.scroll = 0
	case "G":
		h.scroll = h.maxScroll()
	}
	return h, nil
}

func (h *HelpOverlay) lines() []string {
	var lines []string
	for i, cat := range HelpCategories {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, h.styles.Category.Render(cat.Name+":"))
		for _, binding := range cat.Bindings {
			key := h.styles.MenuKey.Width(10).Render(binding.Key)
			lines = append(lines, "  "+key+h.styles.MenuItem.Render(binding.Description))
		}
	}
	return lines
}

func (h *HelpOverlay) maxScroll() int {
	return max(0, len(h.lines())-h.viewHeight)
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	lines := h.lines()
	end := min(h.scroll+h.viewHeight, len(lines))
	result := strings.Join(lines[h.scroll:end], "\n")

	if h.maxScroll() > 0 {
		result += "\n" + h.styles.Footer.Render("[j/k to scroll, g/G to jump]")
	}
	return result
}

// Title returns the overlay title
func (h *HelpOverlay) Title() string {
	return "Help"
}

// Size returns the overlay dimensions
func (h *HelpOverlay) Size() (width, height int) {
	return 46, h.viewHeight + 4
}
