// Package overlay contains modal components drawn over the record list:
// the route-bound dialog frame, confirmation prompts and the help screen.
package overlay

import tea "github.com/charmbracelet/bubbletea"

// Overlay represents a modal overlay component
type Overlay interface {
	tea.Model
	Title() string
	Size() (width, height int)
}

// CloseOverlayMsg signals that the overlay should be closed
type CloseOverlayMsg struct{}

// SelectionMsg is sent when an overlay resolves. Key identifies the prompt
// that produced it.
type SelectionMsg struct {
	Key   string
	Value any
}
