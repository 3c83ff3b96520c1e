package dialog

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/routedialog/internal/domain"
)

// Session is the handle a dialog hands to the content it renders. Content
// receives it explicitly on every View and Update and must not keep it past
// the call.
type Session struct {
	c *Controller
}

// Content is the UI rendered inside a dialog once its loader data is present
type Content interface {
	Update(s *Session, msg tea.Msg) (Content, tea.Cmd)
	View(s *Session) string
}

// Session returns the dialog session while loader data is present. While it
// is absent there is nothing to provide and ok is false.
func (c *Controller) Session() (*Session, bool) {
	if c.loaderData == nil {
		return nil, false
	}
	return c.session, true
}

// View renders content through the session, or nothing while loader data is
// absent
func (c *Controller) View(content Content) string {
	s, ok := c.Session()
	if !ok || content == nil {
		return ""
	}
	return content.View(MustUse(s))
}

// UpdateContent forwards msg to content. Content is not updated while loader
// data is absent.
func (c *Controller) UpdateContent(content Content, msg tea.Msg) (Content, tea.Cmd) {
	s, ok := c.Session()
	if !ok || content == nil {
		return content, nil
	}
	return content.Update(MustUse(s), msg)
}

// MustUse returns s if it was obtained from a provider that still holds
// loader data. Anything else is a wiring bug in the host and panics with a
// *domain.HostMisuseError.
func MustUse(s *Session) *Session {
	if s == nil || s.c == nil {
		panic(&domain.HostMisuseError{Hook: "dialog.MustUse"})
	}
	if s.c.loaderData == nil {
		panic(&domain.HostMisuseError{Hook: "dialog.MustUse", Reason: "loader data is not present"})
	}
	return s
}

// Open reports the host-owned visibility
func (s *Session) Open() bool { return s.c.open }

// SetOpen delegates to the host's visibility setter. It never fetches by
// itself; loads follow from the visibility change reaching Sync.
func (s *Session) SetOpen(open bool) tea.Cmd {
	if s.c.setOpen != nil {
		return s.c.setOpen(open)
	}
	id := s.c.id
	return func() tea.Msg {
		return SetOpenMsg{DialogID: id, Open: open}
	}
}

// LoaderData returns the raw loaded JSON
func (s *Session) LoaderData() json.RawMessage { return s.c.loaderData }

// ActionData returns the raw JSON of the last submit, nil when absent
func (s *Session) ActionData() json.RawMessage { return s.c.actionData }

// Error returns the last failure message
func (s *Session) Error() (string, bool) { return s.c.Error() }

// Refreshing reports whether a refetch is in flight
func (s *Session) Refreshing() bool { return s.c.refreshing }

// Phase returns the controller phase
func (s *Session) Phase() Phase { return s.c.phase }

// URL returns the bound route
func (s *Session) URL() string { return s.c.url }

// RefetchData re-issues the GET for the dialog URL
func (s *Session) RefetchData() tea.Cmd { return s.c.RefetchData() }

// OnSubmit POSTs values as JSON to the dialog URL
func (s *Session) OnSubmit(values any) tea.Cmd { return s.c.OnSubmit(values) }

// LoaderAs decodes the session's loader data into T
func LoaderAs[T any](s *Session) (T, error) {
	var v T
	if err := json.Unmarshal(MustUse(s).c.loaderData, &v); err != nil {
		return v, &domain.ParseError{Op: "decode loader data", URL: s.c.url, Err: err}
	}
	return v, nil
}

// ActionAs decodes the session's action data into T. ok is false when no
// submit has completed since the dialog was opened.
func ActionAs[T any](s *Session) (v T, ok bool, err error) {
	data := MustUse(s).c.actionData
	if data == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, true, &domain.ParseError{Op: "decode action data", URL: s.c.url, Err: err}
	}
	return v, true, nil
}
