package overlay

import (
	tea "github.com/charmbracelet/bubbletea"
)

// mockOverlay is a simple overlay implementation for testing
type mockOverlay struct {
	title  string
	width  int
	height int
	value  string
}

var _ Overlay = mockOverlay{}

func (m mockOverlay) Init() tea.Cmd {
	return nil
}

func (m mockOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m, func() tea.Msg {
				return SelectionMsg{Key: "test", Value: m.value}
			}
		case "esc":
			return m, func() tea.Msg {
				return CloseOverlayMsg{}
			}
		}
	}
	return m, nil
}

func (m mockOverlay) View() string {
	return m.title + " body"
}

func (m mockOverlay) Title() string {
	return m.title
}

func (m mockOverlay) Size() (width, height int) {
	return m.width, m.height
}
