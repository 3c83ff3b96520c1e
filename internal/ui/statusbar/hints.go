package statusbar

import "github.com/riordanpawley/routedialog/internal/types"

// GetHints returns the keybinding hints for the given mode
func GetHints(mode types.Mode) string {
	switch mode {
	case types.ModeNormal:
		return "j/k: records  Enter: open  R: reload  ?: help  q: quit"
	case types.ModeDialog:
		return "Tab: field  ctrl+r: refetch  ctrl+s: save  Esc: close"
	case types.ModeOverlay:
		return "Esc: back"
	default:
		return ""
	}
}
