package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"
	"github.com/riordanpawley/routedialog/internal/config"
	"github.com/riordanpawley/routedialog/internal/dialog"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/services/fetch"
	"github.com/riordanpawley/routedialog/internal/types"
	"github.com/riordanpawley/routedialog/internal/ui/overlay"
	"github.com/riordanpawley/routedialog/internal/ui/record"
	"github.com/riordanpawley/routedialog/internal/ui/statusbar"
	"github.com/riordanpawley/routedialog/internal/ui/styles"
	"github.com/riordanpawley/routedialog/internal/ui/toast"
)

// Re-export Mode type and constants for convenience
type Mode = types.Mode

const (
	ModeNormal  = types.ModeNormal
	ModeDialog  = types.ModeDialog
	ModeOverlay = types.ModeOverlay
)

// Re-export Toast type and constants for convenience
type Toast = types.Toast

const (
	ToastInfo    = types.ToastInfo
	ToastSuccess = types.ToastSuccess
	ToastWarning = types.ToastWarning
	ToastError   = types.ToastError
)

// RecordsPath is the route listing every record
const RecordsPath = "/records"

// confirmDiscardKey tags the prompt shown when closing a dirty dialog
const confirmDiscardKey = "discard"

// dialogWidth is the content width of the record dialog
const dialogWidth = 52

// Model is the main application state. It owns the dialog's visibility; the
// dialog controller only mirrors it.
type Model struct {
	// Records
	records     []domain.Record
	cursor      int
	loading     bool
	spinner     spinner.Model
	lastRefresh time.Time

	// Route-bound dialog
	dialogOpen bool
	openID     string
	dialog     *dialog.Controller
	frame      *overlay.RouteDialog
	form       *record.Form

	// Overlay stack (help, confirm)
	overlayStack *overlay.Stack

	// Toasts
	toasts []Toast

	// Terminal size
	width  int
	height int

	styles *styles.Styles
	config *config.Config
	client *fetch.Client
	logger *slog.Logger
}

// New creates a new application model talking to cfg.Client.BaseURL
func New(cfg *config.Config, client *fetch.Client, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	m := Model{
		loading:      true,
		spinner:      s,
		frame:        overlay.NewRouteDialog("", dialogWidth),
		overlayStack: overlay.NewStack(),
		toasts:       []Toast{},
		styles:       styles.New(),
		config:       cfg,
		client:       client,
		logger:       logger,
	}

	m.dialog = dialog.New(dialog.Options{
		Fetcher: client,
		Revalidate: func() tea.Cmd {
			return loadRecordsCmd(client, cfg.Client.BaseURL, reasonRevalidate)
		},
		CloseDelay:     cfg.Dialog.CloseDelay(),
		RequestTimeout: cfg.HTTP.Timeout(),
		CacheBust:      cfg.Dialog.CacheBust,
		Logger:         logger,
	})

	return m
}

// Init returns the initial command for the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadRecordsCmd(m.client, m.config.Client.BaseURL, reasonInitial),
		tickEvery(time.Second),
	)
}

// Close releases the dialog's in-flight request
func (m Model) Close() {
	m.dialog.Close()
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(cmd, m.frame.Update(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)

	case overlay.CloseOverlayMsg:
		m.overlayStack.Pop()
		return m, nil

	case overlay.SelectionMsg:
		return m.handleSelection(msg)

	case dialog.SetOpenMsg:
		if msg.DialogID != m.dialog.ID() {
			return m, nil
		}
		return m, m.setDialogOpen(msg.Open)

	case record.SavedMsg:
		m.addToast(ToastSuccess, fmt.Sprintf("Saved %s", msg.Record.Name))
		return m, nil

	case recordsLoadedMsg:
		wasLoading := m.loading
		m.records = msg.records
		m.loading = false
		m.lastRefresh = time.Now()
		m.cursor = m.clampCursor(m.cursor)
		m.logger.Debug("records loaded", "count", len(msg.records), "reason", msg.reason)
		if msg.reason == reasonManual || (wasLoading && msg.reason == reasonInitial) {
			m.addToast(ToastInfo, fmt.Sprintf("Loaded %d records", len(msg.records)))
		}
		return m, nil

	case recordsErrorMsg:
		m.loading = false
		m.logger.Warn("records load failed", "reason", msg.reason, "error", msg.err)
		m.addToast(ToastError, domain.Message(msg.err))
		return m, nil

	case tickMsg:
		m.toasts = types.PruneToasts(m.toasts, time.Time(msg))
		return m, tickEvery(time.Second)
	}

	return m, m.updateDialog(msg)
}

// updateDialog feeds msg to the dialog controller and then to its content
func (m *Model) updateDialog(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if m.dialog.Owns(msg) {
		cmds = append(cmds, m.dialog.Update(msg))
	}
	if m.form != nil {
		content, cmd := m.dialog.UpdateContent(m.form, msg)
		m.form = content.(*record.Form)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// setDialogOpen is the host's visibility setter
func (m *Model) setDialogOpen(open bool) tea.Cmd {
	if m.dialogOpen == open {
		return nil
	}
	m.dialogOpen = open
	cmd := m.dialog.Sync(open)
	if open {
		return tea.Batch(cmd, m.frame.Tick())
	}
	return cmd
}

// openRecord binds the dialog to rec's route and opens it
func (m *Model) openRecord(rec domain.Record) tea.Cmd {
	target, err := fetch.Resolve(m.config.Client.BaseURL, domain.DialogPath(rec.ID))
	if err != nil {
		m.addToast(ToastError, err.Error())
		return nil
	}

	m.dialog.SetURL(target)
	m.openID = rec.ID
	m.frame.SetTitle("Record " + rec.ID)
	m.form = record.New(m.styles)

	cmd := m.setDialogOpen(true)
	// Seeds the new form when data for this route is still held.
	return tea.Batch(cmd, m.updateDialog(nil))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+l":
		return m, tea.ClearScreen
	}

	if !m.overlayStack.IsEmpty() {
		return m, m.overlayStack.Update(msg)
	}
	if m.dialogOpen {
		return m.handleDialogKey(msg)
	}
	return m.handleNormalKey(msg)
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor = m.clampCursor(m.cursor + 1)
	case "k", "up":
		m.cursor = m.clampCursor(m.cursor - 1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = m.clampCursor(len(m.records) - 1)
	case "enter", " ":
		if rec, ok := m.currentRecord(); ok {
			return m, m.openRecord(rec)
		}
	case "R":
		return m, loadRecordsCmd(m.client, m.config.Client.BaseURL, reasonManual)
	case "?":
		return m, m.overlayStack.Push(overlay.NewHelpOverlay())
	}
	return m, nil
}

func (m Model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		if m.form != nil && m.form.Dirty() {
			return m, m.overlayStack.Push(overlay.NewConfirmDialog(
				confirmDiscardKey,
				"Discard changes?",
				fmt.Sprintf("Unsaved edits to record %s will be lost.", m.openID),
			))
		}
		return m, m.setDialogOpen(false)
	}

	if _, ok := m.dialog.Session(); !ok {
		// Nothing to edit yet; a failed first load can still be retried.
		if msg.String() == "ctrl+r" {
			return m, m.dialog.RefetchData()
		}
		return m, nil
	}

	return m, m.updateDialog(msg)
}

func (m Model) handleSelection(msg overlay.SelectionMsg) (tea.Model, tea.Cmd) {
	m.overlayStack.Pop()

	if msg.Key == confirmDiscardKey {
		if res, ok := msg.Value.(overlay.ConfirmResult); ok && res.Confirmed {
			return m, m.setDialogOpen(false)
		}
	}
	return m, nil
}

func (m Model) clampCursor(i int) int {
	if i >= len(m.records) {
		i = len(m.records) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m Model) currentRecord() (domain.Record, bool) {
	if len(m.records) == 0 {
		return domain.Record{}, false
	}
	return m.records[m.cursor], true
}

// mode reports what has keyboard focus
func (m Model) mode() Mode {
	switch {
	case !m.overlayStack.IsEmpty():
		return ModeOverlay
	case m.dialogOpen:
		return ModeDialog
	default:
		return ModeNormal
	}
}

// addToast adds a toast notification to the list
func (m *Model) addToast(level types.ToastLevel, message string) {
	m.toasts = append(m.toasts, types.NewToast(level, message, time.Now(), types.DefaultToastTTL))
}

// Message types for async operations

type loadReason string

const (
	reasonInitial    loadReason = "initial"
	reasonManual     loadReason = "manual"
	reasonRevalidate loadReason = "revalidate"
)

type recordsLoadedMsg struct {
	records []domain.Record
	reason  loadReason
}

type recordsErrorMsg struct {
	err    error
	reason loadReason
}

type tickMsg time.Time

// loadRecordsCmd returns a command that fetches the record list
func loadRecordsCmd(client *fetch.Client, baseURL string, reason loadReason) tea.Cmd {
	return func() tea.Msg {
		target, err := fetch.Resolve(baseURL, RecordsPath)
		if err != nil {
			return recordsErrorMsg{err: err, reason: reason}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		raw, err := client.GetJSON(ctx, target)
		if err != nil {
			return recordsErrorMsg{err: err, reason: reason}
		}

		var records []domain.Record
		if err := json.Unmarshal(raw, &records); err != nil {
			return recordsErrorMsg{err: errors.Wrap(err, "decode records"), reason: reason}
		}
		return recordsLoadedMsg{records: records, reason: reason}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the current state as a string
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.loading && len(m.records) == 0 {
		return m.renderLoading()
	}

	sb := statusbar.New(m.mode(), m.width, m.styles).WithInfo(m.statusInfo())
	statusBarView := sb.Render()

	toastView := toast.New(m.styles).Render(m.toasts, m.width)
	if toastView != "" {
		toastView = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toastView)
	}

	mainHeight := m.height - lipgloss.Height(statusBarView)
	if toastView != "" && mainHeight-lipgloss.Height(toastView) >= 3 {
		mainHeight -= lipgloss.Height(toastView)
	} else {
		toastView = ""
	}
	if mainHeight < 1 {
		mainHeight = 1
	}

	var mainView string
	if modal := m.renderModal(); modal != "" {
		mainView = lipgloss.Place(m.width, mainHeight, lipgloss.Center, lipgloss.Center, modal)
	} else {
		mainView = lipgloss.Place(m.width, mainHeight, lipgloss.Left, lipgloss.Top, m.renderRecords(mainHeight))
	}
	mainView = clipLines(mainView, mainHeight)

	parts := []string{mainView}
	if toastView != "" {
		parts = append(parts, toastView)
	}
	parts = append(parts, statusBarView)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderModal renders the top overlay, or the record dialog while it is
// open or closing. Returns empty string when neither is shown.
func (m Model) renderModal() string {
	if !m.overlayStack.IsEmpty() {
		return m.overlayStack.View()
	}
	return m.frame.View(m.dialog, m.content())
}

// content returns the form as dialog content, nil before any dialog opened
func (m Model) content() dialog.Content {
	if m.form == nil {
		return nil
	}
	return m.form
}

func (m Model) renderRecords(height int) string {
	header := m.styles.Header.Render(fmt.Sprintf("Records (%d)", len(m.records)))
	if len(m.records) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.styles.Muted.Render("  no records"))
	}

	// Header takes two lines; keep the cursor row visible.
	visible := max(1, height-2)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.records))

	rows := []string{header}
	for i := start; i < end; i++ {
		rec := m.records[i]
		line := fmt.Sprintf("%s  %-24s %s", m.styles.RecordID.Render(fmt.Sprintf("%4s", rec.ID)), truncate(rec.Name, 24), truncate(rec.Email, 28))
		style := m.styles.Row
		if i == m.cursor {
			style = m.styles.RowActive
		}
		rows = append(rows, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) statusInfo() string {
	if overlay.Visible(m.dialog) {
		return domain.DialogPath(m.openID) + " " + m.styles.Phase(m.dialog.Phase().String()).Render(m.dialog.Phase().String())
	}
	if m.lastRefresh.IsZero() {
		return ""
	}
	return "refreshed " + m.lastRefresh.Format("15:04:05")
}

// renderLoading renders a centered loading spinner with message
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.spinner.View(),
		"Loading records...",
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// clipLines keeps at most n lines of s
func clipLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
