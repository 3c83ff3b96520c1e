// Package dialog binds a modal's visibility to a JSON route.
//
// A Controller loads loader data when its host flips the modal open, clears it
// a short delay after the modal closes, posts submissions and asks the host to
// revalidate its own data once the modal has closed. All state is mutated from
// the Bubble Tea update loop; requests run inside tea.Cmd goroutines and come
// back as messages addressed to the controller's ID.
//
// Every request carries a generation number. A result whose generation is no
// longer current, or that arrives while the modal is closed, is dropped, so a
// slow response from a previous opening can never overwrite fresher state.
package dialog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/riordanpawley/routedialog/internal/domain"
)

const (
	// DefaultCloseDelay leaves room for the closing frame to be drawn before
	// the data behind it disappears.
	DefaultCloseDelay = 100 * time.Millisecond
	// DefaultRequestTimeout bounds a single load or submit.
	DefaultRequestTimeout = 5 * time.Second
)

// Phase is the lifecycle state of a Controller
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseClosing
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Fetcher performs the JSON requests behind a dialog
type Fetcher interface {
	GetJSON(ctx context.Context, url string) (json.RawMessage, error)
	PostJSON(ctx context.Context, url string, body any) (json.RawMessage, error)
}

// Options configures a Controller
type Options struct {
	// URL is the route the dialog loads from and submits to.
	URL     string
	Fetcher Fetcher
	// SetOpen is the host's visibility setter. When nil, Session.SetOpen
	// emits a SetOpenMsg for the host to handle.
	SetOpen func(open bool) tea.Cmd
	// Revalidate is invoked once per close of a dialog that had been open.
	Revalidate     func() tea.Cmd
	CloseDelay     time.Duration
	RequestTimeout time.Duration
	// CacheBust appends the refresh token to refetch URLs.
	CacheBust bool
	Logger    *slog.Logger
}

// SetOpenMsg asks the host to change a dialog's visibility
type SetOpenMsg struct {
	DialogID string
	Open     bool
}

// Controller is the data controller behind a single route-bound dialog
type Controller struct {
	id             string
	url            string
	fetcher        Fetcher
	setOpen        func(bool) tea.Cmd
	revalidate     func() tea.Cmd
	closeDelay     time.Duration
	requestTimeout time.Duration
	cacheBust      bool
	logger         *slog.Logger

	open    bool
	wasOpen bool
	phase   Phase

	loaderData json.RawMessage
	loadedURL  string
	actionData json.RawMessage
	errMsg     string
	hasErr     bool
	refreshing bool

	refreshToken uint64
	loadGen      uint64
	submitGen    uint64
	closeGen     uint64
	cancelLoad   context.CancelFunc
	cancelSubmit context.CancelFunc

	session *Session
}

// New creates a Controller in the closed phase
func New(opts Options) *Controller {
	if opts.CloseDelay <= 0 {
		opts.CloseDelay = DefaultCloseDelay
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	c := &Controller{
		id:             id,
		url:            opts.URL,
		fetcher:        opts.Fetcher,
		setOpen:        opts.SetOpen,
		revalidate:     opts.Revalidate,
		closeDelay:     opts.CloseDelay,
		requestTimeout: opts.RequestTimeout,
		cacheBust:      opts.CacheBust,
		logger:         logger.With("dialog_id", id),
		phase:          PhaseClosed,
	}
	c.session = &Session{c: c}
	return c
}

// Message types delivered back into the update loop

type loadResultMsg struct {
	dialogID string
	gen      uint64
	route    string
	data     json.RawMessage
	err      error
}

type submitResultMsg struct {
	dialogID string
	gen      uint64
	data     json.RawMessage
	err      error
}

type clearMsg struct {
	dialogID string
	gen      uint64
}

// Sync mirrors the host-owned visibility flag into the controller and
// performs the transition side effects. Calling it with an unchanged value
// is a no-op, which is what keeps a dialog mounted closed from ever firing
// a revalidation.
func (c *Controller) Sync(open bool) tea.Cmd {
	c.open = open
	if open == c.wasOpen {
		return nil
	}
	c.wasOpen = open

	// Submits never outlive the opening that sent them.
	c.submitGen++

	if open {
		// Any pending clear belongs to the previous closing.
		c.closeGen++
		if c.loaderData != nil && c.loadedURL != c.url {
			c.loaderData = nil
			c.actionData = nil
		}
		c.phase = PhaseLoading
		c.logger.Debug("dialog opened", "url", c.url)
		return c.load()
	}

	c.cancelInFlight()
	c.closeGen++
	c.phase = PhaseClosing
	c.refreshing = false
	c.logger.Debug("dialog closing", "url", c.url, "delay", c.closeDelay)

	id, gen := c.id, c.closeGen
	return tea.Tick(c.closeDelay, func(time.Time) tea.Msg {
		return clearMsg{dialogID: id, gen: gen}
	})
}

// Owns reports whether msg is addressed to this controller
func (c *Controller) Owns(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case loadResultMsg:
		return msg.dialogID == c.id
	case submitResultMsg:
		return msg.dialogID == c.id
	case clearMsg:
		return msg.dialogID == c.id
	}
	return false
}

// Update applies request results and timer expiries addressed to this
// controller. Other messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	if !c.Owns(msg) {
		return nil
	}

	switch msg := msg.(type) {
	case loadResultMsg:
		c.handleLoad(msg)
		return nil

	case submitResultMsg:
		c.handleSubmit(msg)
		return nil

	case clearMsg:
		return c.handleClear(msg)
	}
	return nil
}

func (c *Controller) handleLoad(msg loadResultMsg) {
	if msg.gen != c.loadGen || !c.open {
		c.logger.Debug("dropping stale load", "gen", msg.gen, "current", c.loadGen, "open", c.open)
		return
	}
	c.cancelLoad = nil
	c.refreshing = false

	if msg.err != nil {
		c.setError("load", msg.err)
		if c.loaderData == nil {
			c.phase = PhaseClosed
		} else {
			c.phase = PhaseLoaded
		}
		return
	}

	c.loaderData = msg.data
	c.loadedURL = msg.route
	c.phase = PhaseLoaded
	c.logger.Debug("dialog loaded", "url", msg.route, "bytes", len(msg.data))
}

func (c *Controller) handleSubmit(msg submitResultMsg) {
	if msg.gen != c.submitGen || !c.open {
		c.logger.Debug("dropping stale submit", "gen", msg.gen, "current", c.submitGen, "open", c.open)
		return
	}
	c.cancelSubmit = nil

	if msg.err != nil {
		c.setError("submit", msg.err)
		return
	}

	c.actionData = msg.data
	c.logger.Debug("dialog submitted", "url", c.url, "bytes", len(msg.data))
}

func (c *Controller) handleClear(msg clearMsg) tea.Cmd {
	if msg.gen == c.closeGen && !c.open {
		c.loaderData = nil
		c.loadedURL = ""
		c.actionData = nil
		c.phase = PhaseClosed
	} else {
		c.logger.Debug("clear superseded by reopen", "gen", msg.gen, "current", c.closeGen)
	}

	if c.revalidate == nil {
		return nil
	}
	return c.revalidate()
}

// RefetchData re-issues the GET for the current URL. It does nothing while
// the dialog is closed.
func (c *Controller) RefetchData() tea.Cmd {
	if !c.open {
		c.logger.Debug("refetch ignored while closed")
		return nil
	}
	c.refreshToken++
	if c.loaderData != nil {
		c.refreshing = true
	} else {
		c.phase = PhaseLoading
	}
	return c.load()
}

// OnSubmit POSTs the JSON encoding of values to the dialog URL. The response
// becomes the action data. It does nothing while the dialog is closed.
func (c *Controller) OnSubmit(values any) tea.Cmd {
	if !c.open {
		c.logger.Debug("submit ignored while closed")
		return nil
	}

	body, err := json.Marshal(values)
	if err != nil {
		c.setError("submit", &domain.ParseError{Op: "submit", URL: c.url, Err: err})
		return nil
	}

	c.submitGen++
	id, gen, target, fetcher := c.id, c.submitGen, c.url, c.fetcher
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	c.cancelSubmit = cancel

	return func() tea.Msg {
		defer cancel()
		data, err := fetcher.PostJSON(ctx, target, json.RawMessage(body))
		return submitResultMsg{dialogID: id, gen: gen, data: data, err: err}
	}
}

func (c *Controller) load() tea.Cmd {
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	c.loadGen++

	target := c.url
	if c.cacheBust && c.refreshToken > 0 {
		busted, err := CacheBust(target, c.refreshToken)
		if err != nil {
			c.logger.Warn("cache bust failed, using plain url", "url", target, "error", err)
		} else {
			target = busted
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	c.cancelLoad = cancel

	id, gen, route, fetcher := c.id, c.loadGen, c.url, c.fetcher
	return func() tea.Msg {
		defer cancel()
		data, err := fetcher.GetJSON(ctx, target)
		return loadResultMsg{dialogID: id, gen: gen, route: route, data: data, err: err}
	}
}

func (c *Controller) cancelInFlight() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	if c.cancelSubmit != nil {
		c.cancelSubmit()
		c.cancelSubmit = nil
	}
}

func (c *Controller) setError(op string, err error) {
	c.errMsg = domain.Message(err)
	c.hasErr = true
	c.logger.Warn("dialog request failed", "op", op, "url", c.url, "error", err)
}

// SetURL rebinds the dialog to another route. It takes effect on the next
// load or submit. Moving to a different route drops the previous route's
// error message.
func (c *Controller) SetURL(url string) {
	if url == c.url {
		return
	}
	c.url = url
	c.errMsg = ""
	c.hasErr = false
}

// Close cancels any in-flight load or submit. The host calls it when
// discarding the controller.
func (c *Controller) Close() {
	c.cancelInFlight()
}

// ID returns the identifier that request results are addressed to
func (c *Controller) ID() string { return c.id }

// URL returns the route the dialog is bound to
func (c *Controller) URL() string { return c.url }

// Open returns the last visibility passed to Sync
func (c *Controller) Open() bool { return c.open }

// Phase returns the current lifecycle phase
func (c *Controller) Phase() Phase { return c.phase }

// LoaderData returns the loaded JSON, nil when absent
func (c *Controller) LoaderData() json.RawMessage { return c.loaderData }

// ActionData returns the last submit response, nil when absent
func (c *Controller) ActionData() json.RawMessage { return c.actionData }

// Error returns the last load or submit failure. It is not cleared
// automatically.
func (c *Controller) Error() (string, bool) { return c.errMsg, c.hasErr }

// RefreshToken returns the number of refetches issued
func (c *Controller) RefreshToken() uint64 { return c.refreshToken }

// Refreshing reports whether a refetch is in flight over existing data
func (c *Controller) Refreshing() bool { return c.refreshing }
