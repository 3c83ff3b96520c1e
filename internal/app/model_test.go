package app

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/routedialog/internal/config"
	"github.com/riordanpawley/routedialog/internal/dialog"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/server"
	"github.com/riordanpawley/routedialog/internal/services/fetch"
	"github.com/riordanpawley/routedialog/internal/ui/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestModel starts a demo server and returns a model that has loaded its
// records
func newTestModel(t *testing.T) (Model, *server.Store) {
	t.Helper()

	store := server.NewStore(server.SeedRecords()...)
	ts := httptest.NewServer(server.New(store, discardLogger()).Router())
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.Client.BaseURL = ts.URL
	cfg.Dialog.CloseDelayMs = 1

	m := New(cfg, fetch.NewClient(), discardLogger())
	m.width = 100
	m.height = 30
	t.Cleanup(m.Close)

	m = drive(t, m, loadRecordsCmd(m.client, ts.URL, reasonInitial))
	require.Len(t, m.records, 4)
	return m, store
}

// exec runs cmd, giving up on commands that wait on long timers such as
// cursor blinks and the toast ticker
func exec(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(250 * time.Millisecond):
		return nil
	}
}

// drive runs cmd and every command it leads to, feeding results to m
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	return driveDepth(t, m, cmd, 0)
}

func driveDepth(t *testing.T, m Model, cmd tea.Cmd, depth int) Model {
	t.Helper()
	require.Less(t, depth, 50, "command chain does not settle")
	if cmd == nil {
		return m
	}

	switch msg := exec(cmd).(type) {
	case nil, spinner.TickMsg, cursor.BlinkMsg, tickMsg, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = driveDepth(t, m, c, depth+1)
		}
		return m
	default:
		next, cmd := m.Update(msg)
		return driveDepth(t, next.(Model), cmd, depth+1)
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestInitialLoad(t *testing.T) {
	m, _ := newTestModel(t)

	assert.False(t, m.loading)
	assert.Equal(t, ModeNormal, m.mode())
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "Loaded 4 records", m.toasts[0].Message)
}

func TestNavigation(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "j", "j")
	assert.Equal(t, 2, m.cursor)
	m = press(t, m, "G", "j")
	assert.Equal(t, 3, m.cursor, "cursor clamps at the last record")
	m = press(t, m, "g", "k")
	assert.Equal(t, 0, m.cursor, "cursor clamps at the first record")
}

func TestOpenAndCloseDialog(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "enter")
	assert.True(t, m.dialogOpen)
	assert.Equal(t, ModeDialog, m.mode())
	assert.Equal(t, dialog.PhaseLoaded, m.dialog.Phase())
	assert.True(t, strings.HasSuffix(m.dialog.URL(), "/dialog/1"))
	assert.Equal(t, "Ada Lovelace", m.form.Input().Name)

	// A change made elsewhere shows up in the list once the dialog closes.
	_, err := store.Update("2", domain.RecordInput{Name: "Rear Admiral Hopper"})
	require.NoError(t, err)

	m = press(t, m, "esc")
	assert.False(t, m.dialogOpen)
	assert.Equal(t, dialog.PhaseClosed, m.dialog.Phase())
	assert.Nil(t, m.dialog.LoaderData())
	assert.Equal(t, "Rear Admiral Hopper", m.records[1].Name, "closing revalidates the list")
}

func TestSubmitFromDialog(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "enter", "!", "ctrl+s")
	rec, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace!", rec.Name)

	var messages []string
	for _, toast := range m.toasts {
		messages = append(messages, toast.Message)
	}
	assert.Contains(t, messages, "Saved Ada Lovelace!")
	assert.False(t, m.form.Dirty())

	m = press(t, m, "esc")
	assert.False(t, m.dialogOpen, "a saved form closes without confirmation")
	assert.Equal(t, "Ada Lovelace!", m.records[0].Name)
}

func TestSubmitValidationErrorStaysOpen(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "enter", "tab", "@", "ctrl+s")
	msg, failed := m.dialog.Error()
	require.True(t, failed)
	assert.Equal(t, "email must be a valid email address", msg)
	assert.True(t, m.dialogOpen)
	assert.Contains(t, m.View(), "email must be a valid email address")
}

func TestDiscardConfirmation(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "enter", "x", "esc")
	require.Equal(t, ModeOverlay, m.mode())
	assert.True(t, m.dialogOpen)
	assert.Contains(t, m.View(), "Discard changes?")

	m = press(t, m, "n")
	assert.Equal(t, ModeDialog, m.mode())
	assert.True(t, m.dialogOpen)
	assert.Equal(t, "Ada Lovelacex", m.form.Input().Name)

	m = press(t, m, "esc", "y")
	assert.Equal(t, ModeNormal, m.mode())
	assert.False(t, m.dialogOpen)
}

func TestLoadErrorAndRetry(t *testing.T) {
	m, _ := newTestModel(t)
	m.records = append(m.records, domain.Record{ID: "999", Name: "Ghost"})

	m = press(t, m, "G", "enter")
	msg, failed := m.dialog.Error()
	require.True(t, failed)
	assert.Equal(t, "record not found", msg)
	assert.Equal(t, dialog.PhaseClosed, m.dialog.Phase())
	assert.Contains(t, m.View(), "record not found")

	m = press(t, m, "ctrl+r")
	assert.Equal(t, uint64(1), m.dialog.RefreshToken())

	m = press(t, m, "esc")
	assert.False(t, m.dialogOpen)
}

func TestSwitchingRecordsDropsStaleData(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "enter", "esc", "j", "enter")
	assert.True(t, strings.HasSuffix(m.dialog.URL(), "/dialog/2"))
	assert.Equal(t, "Grace Hopper", m.form.Input().Name)
}

func TestSwitchingRecordsDropsStaleError(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "enter", "tab", "@", "ctrl+s")
	_, failed := m.dialog.Error()
	require.True(t, failed)

	m = press(t, m, "esc", "y", "j", "enter")
	require.True(t, strings.HasSuffix(m.dialog.URL(), "/dialog/2"))
	_, failed = m.dialog.Error()
	assert.False(t, failed)
	assert.Equal(t, "Grace Hopper", m.form.Input().Name)
	assert.NotContains(t, m.View(), "email must be a valid email address")
}

func TestSetOpenMsg(t *testing.T) {
	m, _ := newTestModel(t)

	next, cmd := m.Update(dialog.SetOpenMsg{DialogID: "someone-else", Open: true})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).dialogOpen)

	m = press(t, m, "enter")
	next, cmd = m.Update(dialog.SetOpenMsg{DialogID: m.dialog.ID(), Open: false})
	m = drive(t, next.(Model), cmd)
	assert.False(t, m.dialogOpen)
	assert.Equal(t, dialog.PhaseClosed, m.dialog.Phase())
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "?")
	assert.Equal(t, ModeOverlay, m.mode())
	assert.IsType(t, &overlay.HelpOverlay{}, m.overlayStack.Current())

	m = press(t, m, "esc")
	assert.Equal(t, ModeNormal, m.mode())
}

func TestManualReload(t *testing.T) {
	m, store := newTestModel(t)
	_, err := store.Update("3", domain.RecordInput{Name: "EWD"})
	require.NoError(t, err)

	m = press(t, m, "R")
	assert.Equal(t, "EWD", m.records[2].Name)
	assert.Equal(t, "Loaded 4 records", m.toasts[len(m.toasts)-1].Message)
}

func TestRecordsError(t *testing.T) {
	cfg := config.DefaultConfig()
	ts := httptest.NewServer(nil)
	cfg.Client.BaseURL = ts.URL
	ts.Close()

	m := New(cfg, fetch.NewClient(), discardLogger())
	m = drive(t, m, loadRecordsCmd(m.client, cfg.Client.BaseURL, reasonInitial))

	assert.False(t, m.loading)
	assert.Empty(t, m.records)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, ToastError, m.toasts[0].Level)
}

func TestToastsExpire(t *testing.T) {
	m, _ := newTestModel(t)
	require.NotEmpty(t, m.toasts)

	next, cmd := m.Update(tickMsg(time.Now().Add(time.Hour)))
	assert.NotNil(t, cmd, "ticker reschedules itself")
	assert.Empty(t, next.(Model).toasts)
}
