// Package record renders and edits a domain.Record inside a route-bound
// dialog.
package record

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/routedialog/internal/dialog"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/ui/styles"
)

const (
	fieldName = iota
	fieldEmail
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Email", "Notes"}

// SavedMsg is emitted once for every successful submit the form observes
type SavedMsg struct {
	Record domain.Record
}

// Form is the dialog.Content for a record. It seeds its inputs from loader
// data and re-seeds whenever fresh data arrives and there are no local edits.
type Form struct {
	inputs [fieldCount]textinput.Model
	focus  int
	styles *styles.Styles

	seededFrom string
	seenAction string
	saved      *domain.Record
}

var _ dialog.Content = (*Form)(nil)

// New creates an empty form
func New(st *styles.Styles) *Form {
	f := &Form{styles: st}
	limits := [fieldCount]int{80, 254, 500}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = limits[i]
		in.Width = 36
		f.inputs[i] = in
	}
	f.inputs[fieldName].Placeholder = "required"
	f.inputs[fieldEmail].Placeholder = "name@example.com"
	f.inputs[fieldName].Focus()
	return f
}

// Input returns the values currently typed into the form
func (f *Form) Input() domain.RecordInput {
	return domain.RecordInput{
		Name:  f.inputs[fieldName].Value(),
		Email: f.inputs[fieldEmail].Value(),
		Notes: f.inputs[fieldNotes].Value(),
	}
}

// Dirty reports whether the inputs differ from the last seeded record
func (f *Form) Dirty() bool {
	if f.seededFrom == "" {
		return false
	}
	return f.Input() != f.baseline()
}

func (f *Form) baseline() domain.RecordInput {
	var rec domain.Record
	if f.saved != nil {
		rec = *f.saved
	} else if err := json.Unmarshal([]byte(f.seededFrom), &rec); err != nil {
		return domain.RecordInput{}
	}
	return domain.RecordInput{Name: rec.Name, Email: rec.Email, Notes: rec.Notes}
}

func (f *Form) seed(rec domain.Record) {
	f.inputs[fieldName].SetValue(rec.Name)
	f.inputs[fieldEmail].SetValue(rec.Email)
	f.inputs[fieldNotes].SetValue(rec.Notes)
	for i := range f.inputs {
		f.inputs[i].CursorEnd()
	}
}

// sync picks up new loader or action data from the session
func (f *Form) sync(s *dialog.Session) tea.Cmd {
	if raw := string(s.LoaderData()); raw != f.seededFrom {
		if rec, err := dialog.LoaderAs[domain.Record](s); err == nil && !f.Dirty() {
			f.seed(rec)
			f.saved = nil
		}
		f.seededFrom = raw
	}

	raw := string(s.ActionData())
	if raw == f.seenAction {
		return nil
	}
	f.seenAction = raw

	res, ok, err := dialog.ActionAs[domain.SubmitResult](s)
	if err != nil || !ok || !res.OK {
		return nil
	}
	rec := res.Record
	f.saved = &rec
	f.seed(rec)
	return func() tea.Msg { return SavedMsg{Record: rec} }
}

// Update implements dialog.Content
func (f *Form) Update(s *dialog.Session, msg tea.Msg) (dialog.Content, tea.Cmd) {
	cmds := []tea.Cmd{f.sync(s)}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % fieldCount)
			return f, tea.Batch(cmds...)
		case "shift+tab", "up":
			f.setFocus((f.focus + fieldCount - 1) % fieldCount)
			return f, tea.Batch(cmds...)
		case "ctrl+r":
			return f, tea.Batch(append(cmds, s.RefetchData())...)
		case "ctrl+s", "enter":
			return f, tea.Batch(append(cmds, s.OnSubmit(f.Input()))...)
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, tea.Batch(append(cmds, cmd)...)
}

func (f *Form) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

// View implements dialog.Content
func (f *Form) View(s *dialog.Session) string {
	var b strings.Builder

	for i, in := range f.inputs {
		label := f.styles.FieldLabel
		if i == f.focus {
			label = f.styles.FieldLabelActive
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label.Render(fieldLabels[i]), in.View()))
		b.WriteString("\n")
	}

	if rec, err := dialog.LoaderAs[domain.Record](s); err == nil && !rec.UpdatedAt.IsZero() {
		b.WriteString(f.styles.Muted.Render("updated " + rec.UpdatedAt.Local().Format("2006-01-02 15:04:05")))
		b.WriteString("\n")
	}

	if msg, failed := s.Error(); failed {
		b.WriteString(f.styles.ErrorText.Render("✗ " + msg))
		b.WriteString("\n")
	}
	if res, ok, err := dialog.ActionAs[domain.SubmitResult](s); err == nil && ok && res.OK {
		b.WriteString(f.styles.SuccessText.Render("✓ saved"))
		b.WriteString("\n")
	}

	if f.Dirty() {
		b.WriteString(f.styles.Muted.Render("• unsaved changes"))
	}

	return strings.TrimRight(b.String(), "\n")
}
