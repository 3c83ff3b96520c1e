// Package types contains shared types used across the application.
package types

// Mode represents what currently has keyboard focus
type Mode int

const (
	// ModeNormal is the record list
	ModeNormal Mode = iota
	// ModeDialog is an open route-bound dialog
	ModeDialog
	// ModeOverlay is any other overlay (help, confirm)
	ModeOverlay
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeDialog:
		return "DIALOG"
	case ModeOverlay:
		return "OVERLAY"
	default:
		return "UNKNOWN"
	}
}
