package dialog

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/services/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher records requests and answers them from optional callbacks
type fakeFetcher struct {
	mu      sync.Mutex
	gets    []string
	getCtxs []context.Context
	posts   []postCall
	postCtx []context.Context
	getFn   func(n int, url string) (json.RawMessage, error)
	postFn  func(n int, url string, body []byte) (json.RawMessage, error)

	// started, when set, is closed by the next GET, which then blocks until
	// its context is done
	started chan struct{}
}

type postCall struct {
	url  string
	body []byte
}

func (f *fakeFetcher) GetJSON(ctx context.Context, url string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gets = append(f.gets, url)
	f.getCtxs = append(f.getCtxs, ctx)
	n := len(f.gets)
	fn := f.getFn
	started := f.started
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-ctx.Done()
		return nil, &domain.NetworkError{Op: "load", URL: url, Err: ctx.Err()}
	}
	if fn == nil {
		return json.RawMessage(`{"name":"Alice"}`), nil
	}
	return fn(n, url)
}

func (f *fakeFetcher) PostJSON(ctx context.Context, url string, body any) (json.RawMessage, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.posts = append(f.posts, postCall{url: url, body: raw})
	f.postCtx = append(f.postCtx, ctx)
	n := len(f.posts)
	fn := f.postFn
	f.mu.Unlock()

	if fn == nil {
		return json.RawMessage(`{"ok":true}`), nil
	}
	return fn(n, url, raw)
}

func (f *fakeFetcher) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}

type revalidatedMsg struct{}

type harness struct {
	c             *Controller
	f             *fakeFetcher
	revalidations int
}

func newHarness(t *testing.T, url string, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{f: &fakeFetcher{}}
	opts := Options{
		URL:        url,
		Fetcher:    h.f,
		CloseDelay: time.Millisecond,
		Revalidate: func() tea.Cmd {
			h.revalidations++
			return func() tea.Msg { return revalidatedMsg{} }
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.c = New(opts)
	return h
}

// deliver runs cmd and feeds its message back into the controller
func (h *harness) deliver(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	return h.c.Update(cmd())
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseClosed, "closed"},
		{PhaseLoading, "loading"},
		{PhaseLoaded, "loaded"},
		{PhaseClosing, "closing"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phase.String())
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{URL: "/dialog/1", Fetcher: &fakeFetcher{}})

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, "/dialog/1", c.URL())
	assert.Equal(t, PhaseClosed, c.Phase())
	assert.Equal(t, DefaultCloseDelay, c.closeDelay)
	assert.Equal(t, DefaultRequestTimeout, c.requestTimeout)
	assert.False(t, c.Open())
	assert.Nil(t, c.LoaderData())
	assert.Nil(t, c.ActionData())

	_, hasErr := c.Error()
	assert.False(t, hasErr)

	other := New(Options{URL: "/dialog/1", Fetcher: &fakeFetcher{}})
	assert.NotEqual(t, c.ID(), other.ID())
}

func TestSync_MountedClosedDoesNothing(t *testing.T) {
	h := newHarness(t, "/dialog/1")

	for i := 0; i < 3; i++ {
		assert.Nil(t, h.c.Sync(false))
	}

	assert.Equal(t, 0, h.f.getCount())
	assert.Equal(t, 0, h.revalidations)
	assert.Equal(t, PhaseClosed, h.c.Phase())
}

func TestScenario_OpenLoadCloseClear(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		if r.URL.Path != "/dialog/42" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Alice"}`))
	}))
	defer server.Close()

	revalidations := 0
	c := New(Options{
		URL:        server.URL + "/dialog/42",
		Fetcher:    fetch.NewClient(),
		CloseDelay: 5 * time.Millisecond,
		Revalidate: func() tea.Cmd {
			revalidations++
			return nil
		},
	})

	assert.Nil(t, c.Sync(false))

	load := c.Sync(true)
	require.NotNil(t, load)
	assert.Equal(t, PhaseLoading, c.Phase())
	assert.Nil(t, c.LoaderData())

	c.Update(load())
	assert.Equal(t, "application/json", accept)
	assert.JSONEq(t, `{"name":"Alice"}`, string(c.LoaderData()))
	assert.Equal(t, PhaseLoaded, c.Phase())
	_, hasErr := c.Error()
	assert.False(t, hasErr)

	clearCmd := c.Sync(false)
	require.NotNil(t, clearCmd)
	assert.Equal(t, PhaseClosing, c.Phase())
	assert.NotNil(t, c.LoaderData(), "data stays until the close delay elapses")
	assert.Equal(t, 0, revalidations)

	start := time.Now()
	c.Update(clearCmd())
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	assert.Nil(t, c.LoaderData())
	assert.Nil(t, c.ActionData())
	assert.Equal(t, PhaseClosed, c.Phase())
	assert.Equal(t, 1, revalidations)
}

func TestSync_OpenIssuesExactlyOneGet(t *testing.T) {
	h := newHarness(t, "/dialog/7")

	load := h.c.Sync(true)
	require.NotNil(t, load)
	assert.Nil(t, h.c.Sync(true), "unchanged visibility must not refetch")

	h.deliver(t, load)
	assert.Equal(t, []string{"/dialog/7"}, h.f.gets)
	assert.NotNil(t, h.c.LoaderData())
}

func TestLoadError(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.getFn = func(int, string) (json.RawMessage, error) {
		return nil, &domain.NetworkError{Op: "load", URL: "/dialog/1", Err: assert.AnError}
	}

	h.deliver(t, h.c.Sync(true))

	msg, hasErr := h.c.Error()
	require.True(t, hasErr)
	assert.Contains(t, msg, assert.AnError.Error())
	assert.Nil(t, h.c.LoaderData())
	assert.Equal(t, PhaseClosed, h.c.Phase())

	_, ok := h.c.Session()
	assert.False(t, ok)
	assert.Equal(t, "", h.c.View(&stubContent{}))
}

func TestLoadError_StatusMessageSurfaced(t *testing.T) {
	h := newHarness(t, "/dialog/404")
	h.f.getFn = func(int, string) (json.RawMessage, error) {
		return nil, &domain.StatusError{Op: "load", URL: "/dialog/404", Status: 404, Message: "record not found"}
	}

	h.deliver(t, h.c.Sync(true))

	msg, hasErr := h.c.Error()
	require.True(t, hasErr)
	assert.Equal(t, "record not found", msg)
}

func TestError_NotClearedBySuccess(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.getFn = func(n int, _ string) (json.RawMessage, error) {
		if n == 1 {
			return nil, &domain.ParseError{Op: "load", URL: "/dialog/1", Err: assert.AnError}
		}
		return json.RawMessage(`{"name":"Alice"}`), nil
	}

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.RefetchData())

	assert.NotNil(t, h.c.LoaderData())
	_, hasErr := h.c.Error()
	assert.True(t, hasErr)
}

func TestReopenDuringClosing_ClearIsSuperseded(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.getFn = func(n int, _ string) (json.RawMessage, error) {
		if n == 1 {
			return json.RawMessage(`{"v":1}`), nil
		}
		return json.RawMessage(`{"v":2}`), nil
	}

	h.deliver(t, h.c.Sync(true))
	clearCmd := h.c.Sync(false)
	reload := h.c.Sync(true)
	require.NotNil(t, reload)

	// The timer from the first close fires after the reopen.
	follow := h.deliver(t, clearCmd)
	assert.NotNil(t, follow, "revalidation still fires for the completed close")
	assert.Equal(t, 1, h.revalidations)
	assert.JSONEq(t, `{"v":1}`, string(h.c.LoaderData()), "stale clear must not wipe data")
	assert.Equal(t, PhaseLoading, h.c.Phase())

	h.deliver(t, reload)
	assert.JSONEq(t, `{"v":2}`, string(h.c.LoaderData()))
	assert.Equal(t, PhaseLoaded, h.c.Phase())
}

func TestStaleLoad_DroppedAfterReopen(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.getFn = func(n int, _ string) (json.RawMessage, error) {
		return json.RawMessage(`{"call":` + string(rune('0'+n)) + `}`), nil
	}

	first := h.c.Sync(true)
	h.c.Sync(false)
	second := h.c.Sync(true)

	// The newer request resolves first.
	h.deliver(t, second)
	fresh := h.c.LoaderData()
	require.NotNil(t, fresh)

	// The older one resolves last and must be ignored.
	h.deliver(t, first)
	assert.Equal(t, fresh, h.c.LoaderData())
	assert.Equal(t, PhaseLoaded, h.c.Phase())
}

func TestLoad_ResolvingAfterCloseIsDropped(t *testing.T) {
	h := newHarness(t, "/dialog/1")

	load := h.c.Sync(true)
	clearCmd := h.c.Sync(false)

	h.deliver(t, load)
	assert.Nil(t, h.c.LoaderData(), "a closed dialog must not accept loader data")

	h.deliver(t, clearCmd)
	assert.Nil(t, h.c.LoaderData())
	assert.Equal(t, PhaseClosed, h.c.Phase())
}

func TestClose_CancelsInFlightLoad(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.started = make(chan struct{})
	started := h.f.started

	load := h.c.Sync(true)
	result := make(chan tea.Msg, 1)
	go func() { result <- load() }()

	<-started
	h.c.Sync(false)

	select {
	case msg := <-result:
		h.c.Update(msg)
	case <-time.After(time.Second):
		t.Fatal("closing did not cancel the in-flight load")
	}

	require.Len(t, h.f.getCtxs, 1)
	assert.ErrorIs(t, h.f.getCtxs[0].Err(), context.Canceled)
	assert.Nil(t, h.c.LoaderData())
	_, hasErr := h.c.Error()
	assert.False(t, hasErr, "a canceled load is not a failure")
}

func TestRefetchData(t *testing.T) {
	tests := []struct {
		name      string
		cacheBust bool
		wantURL   string
	}{
		{"cache busted", true, "/dialog/3?_refresh=1"},
		{"plain", false, "/dialog/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "/dialog/3", func(o *Options) { o.CacheBust = tt.cacheBust })
			h.f.getFn = func(n int, _ string) (json.RawMessage, error) {
				if n == 1 {
					return json.RawMessage(`{"name":"Alice"}`), nil
				}
				return json.RawMessage(`{"name":"Alicia"}`), nil
			}

			h.deliver(t, h.c.Sync(true))

			refetch := h.c.RefetchData()
			require.NotNil(t, refetch)
			assert.True(t, h.c.Refreshing())
			assert.Equal(t, uint64(1), h.c.RefreshToken())
			assert.Equal(t, PhaseLoaded, h.c.Phase(), "existing data stays visible while refreshing")

			h.deliver(t, refetch)
			assert.False(t, h.c.Refreshing())
			assert.JSONEq(t, `{"name":"Alicia"}`, string(h.c.LoaderData()))
			require.Len(t, h.f.gets, 2)
			assert.Equal(t, "/dialog/3", h.f.gets[0])
			assert.Equal(t, tt.wantURL, h.f.gets[1])
		})
	}
}

func TestRefetchData_WhileClosedIsIgnored(t *testing.T) {
	h := newHarness(t, "/dialog/3")

	assert.Nil(t, h.c.RefetchData())
	assert.Equal(t, 0, h.f.getCount())
	assert.Equal(t, uint64(0), h.c.RefreshToken())
}

func TestRefetchData_AfterFailedLoad(t *testing.T) {
	h := newHarness(t, "/dialog/3")
	h.f.getFn = func(n int, _ string) (json.RawMessage, error) {
		if n == 1 {
			return nil, &domain.NetworkError{Op: "load", Err: assert.AnError}
		}
		return json.RawMessage(`{"name":"Alice"}`), nil
	}

	h.deliver(t, h.c.Sync(true))
	require.Equal(t, PhaseClosed, h.c.Phase())

	refetch := h.c.RefetchData()
	assert.Equal(t, PhaseLoading, h.c.Phase())
	h.deliver(t, refetch)
	assert.Equal(t, PhaseLoaded, h.c.Phase())
}

func TestOnSubmit(t *testing.T) {
	h := newHarness(t, "/dialog/5")
	h.f.postFn = func(int, string, []byte) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true,"record":{"id":"5","name":"Bob"}}`), nil
	}

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.OnSubmit(map[string]any{"name": "Bob", "age": 7}))

	require.Len(t, h.f.posts, 1)
	assert.Equal(t, "/dialog/5", h.f.posts[0].url)
	assert.JSONEq(t, `{"name":"Bob","age":7}`, string(h.f.posts[0].body))
	assert.JSONEq(t, `{"ok":true,"record":{"id":"5","name":"Bob"}}`, string(h.c.ActionData()))
}

func TestOnSubmit_UsesPlainURLAfterRefetch(t *testing.T) {
	h := newHarness(t, "/dialog/5", func(o *Options) { o.CacheBust = true })

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.RefetchData())
	h.deliver(t, h.c.OnSubmit(map[string]string{"name": "Bob"}))

	require.Len(t, h.f.posts, 1)
	assert.Equal(t, "/dialog/5", h.f.posts[0].url)
}

func TestOnSubmit_Error(t *testing.T) {
	h := newHarness(t, "/dialog/5")
	h.f.postFn = func(int, string, []byte) (json.RawMessage, error) {
		return nil, &domain.StatusError{Op: "submit", URL: "/dialog/5", Status: 422, Message: "name is required"}
	}

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.OnSubmit(map[string]string{}))

	msg, hasErr := h.c.Error()
	require.True(t, hasErr)
	assert.Equal(t, "name is required", msg)
	assert.Nil(t, h.c.ActionData())
	assert.NotNil(t, h.c.LoaderData(), "a failed submit keeps the loaded data")
}

func TestOnSubmit_EncodeError(t *testing.T) {
	h := newHarness(t, "/dialog/5")
	h.deliver(t, h.c.Sync(true))

	assert.Nil(t, h.c.OnSubmit(map[string]any{"ch": make(chan int)}))
	_, hasErr := h.c.Error()
	assert.True(t, hasErr)
	assert.Empty(t, h.f.posts)
}

func TestOnSubmit_WhileClosedIsIgnored(t *testing.T) {
	h := newHarness(t, "/dialog/5")
	assert.Nil(t, h.c.OnSubmit(map[string]string{"name": "x"}))
	assert.Empty(t, h.f.posts)
}

func TestOnSubmit_StaleResultDropped(t *testing.T) {
	h := newHarness(t, "/dialog/5")
	h.f.postFn = func(_ int, _ string, body []byte) (json.RawMessage, error) {
		return json.RawMessage(body), nil
	}

	h.deliver(t, h.c.Sync(true))
	first := h.c.OnSubmit(map[string]int{"n": 1})
	second := h.c.OnSubmit(map[string]int{"n": 2})

	h.deliver(t, second)
	h.deliver(t, first)
	assert.JSONEq(t, `{"n":2}`, string(h.c.ActionData()))
}

func TestOnSubmit_ResultAfterCloseDropped(t *testing.T) {
	h := newHarness(t, "/dialog/5")

	h.deliver(t, h.c.Sync(true))
	submit := h.c.OnSubmit(map[string]int{"n": 1})
	clearCmd := h.c.Sync(false)

	h.deliver(t, submit)
	assert.Nil(t, h.c.ActionData())
	h.deliver(t, clearCmd)
	assert.Nil(t, h.c.ActionData())
}

func TestOnSubmit_ResultFromPreviousOpeningDropped(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.postFn = func(_ int, url string, _ []byte) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true,"record":{"id":"1","url":"` + url + `"}}`), nil
	}

	h.deliver(t, h.c.Sync(true))
	submit := h.c.OnSubmit(map[string]string{"name": "Ada"})
	h.c.Sync(false)
	h.c.SetURL("/dialog/2")
	h.deliver(t, h.c.Sync(true))
	require.Equal(t, PhaseLoaded, h.c.Phase())

	h.deliver(t, submit)
	assert.Equal(t, "/dialog/2", h.c.URL())
	assert.Nil(t, h.c.ActionData(), "a submit sent under /dialog/1 must not land on /dialog/2")
	_, hasErr := h.c.Error()
	assert.False(t, hasErr)
}

func TestOnSubmit_ResultAcrossSameRouteReopenDropped(t *testing.T) {
	h := newHarness(t, "/dialog/5")

	h.deliver(t, h.c.Sync(true))
	submit := h.c.OnSubmit(map[string]string{"name": "Bob"})
	h.c.Sync(false)
	h.deliver(t, h.c.Sync(true))

	h.deliver(t, submit)
	assert.Nil(t, h.c.ActionData())

	h.deliver(t, h.c.OnSubmit(map[string]string{"name": "Carol"}))
	assert.JSONEq(t, `{"ok":true}`, string(h.c.ActionData()), "submits from the current opening still apply")
}

func TestClose_CancelsInFlightSubmit(t *testing.T) {
	h := newHarness(t, "/dialog/5")

	h.deliver(t, h.c.Sync(true))
	submit := h.c.OnSubmit(map[string]string{"name": "Bob"})
	h.c.Sync(false)
	submit()

	require.Len(t, h.f.postCtx, 1)
	assert.ErrorIs(t, h.f.postCtx[0].Err(), context.Canceled)
}

func TestClose_ClearsActionData(t *testing.T) {
	h := newHarness(t, "/dialog/5")

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.OnSubmit(map[string]string{"name": "Bob"}))
	require.NotNil(t, h.c.ActionData())

	h.deliver(t, h.c.Sync(false))
	assert.Nil(t, h.c.ActionData())
	assert.Nil(t, h.c.LoaderData())
}

func TestRevalidation_OncePerClose(t *testing.T) {
	h := newHarness(t, "/dialog/1")

	for i := 1; i <= 3; i++ {
		h.deliver(t, h.c.Sync(true))
		follow := h.deliver(t, h.c.Sync(false))
		require.NotNil(t, follow)
		assert.IsType(t, revalidatedMsg{}, follow())
		assert.Equal(t, i, h.revalidations)
	}
}

func TestRevalidation_NilRevalidator(t *testing.T) {
	h := newHarness(t, "/dialog/1", func(o *Options) { o.Revalidate = nil })

	h.deliver(t, h.c.Sync(true))
	assert.Nil(t, h.deliver(t, h.c.Sync(false)))
	assert.Nil(t, h.c.LoaderData())
}

func TestSetURL_ReopenOnOtherRouteDropsData(t *testing.T) {
	h := newHarness(t, "/dialog/1")

	h.deliver(t, h.c.Sync(true))
	h.c.Sync(false)
	h.c.SetURL("/dialog/2")
	reload := h.c.Sync(true)

	assert.Nil(t, h.c.LoaderData(), "data for /dialog/1 must not show under /dialog/2")
	h.deliver(t, reload)
	assert.Equal(t, "/dialog/2", h.f.gets[1])
}

func TestSetURL_OtherRouteDropsError(t *testing.T) {
	h := newHarness(t, "/dialog/1")
	h.f.postFn = func(int, string, []byte) (json.RawMessage, error) {
		return nil, &domain.StatusError{Op: "submit", URL: "/dialog/1", Status: 422, Message: "name is required"}
	}

	h.deliver(t, h.c.Sync(true))
	h.deliver(t, h.c.OnSubmit(map[string]string{}))
	h.c.SetURL("/dialog/1")
	_, hasErr := h.c.Error()
	require.True(t, hasErr, "rebinding to the same route keeps the error")

	h.c.Sync(false)
	h.c.SetURL("/dialog/2")
	_, hasErr = h.c.Error()
	assert.False(t, hasErr)
}

func TestUpdate_IgnoresForeignMessages(t *testing.T) {
	a := newHarness(t, "/dialog/a")
	b := newHarness(t, "/dialog/b")

	load := b.c.Sync(true)
	a.c.Sync(true)
	msg := load()

	assert.False(t, a.c.Owns(msg))
	assert.True(t, b.c.Owns(msg))
	assert.False(t, a.c.Owns(tea.KeyMsg{}))

	assert.Nil(t, a.c.Update(msg))
	assert.Nil(t, a.c.LoaderData())
}

// TestToggleSequences drives random visibility sequences with results and
// timers delivered in random order, and checks that a dialog left closed
// ends with no loader data and one revalidation per close.
func TestToggleSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		h := newHarness(t, "/dialog/seq")
		var pending []tea.Cmd
		open := false
		closes := 0

		steps := 1 + rng.Intn(8)
		for i := 0; i < steps; i++ {
			open = rng.Intn(2) == 0
			wasOpen := h.c.Open()
			if cmd := h.c.Sync(open); cmd != nil {
				pending = append(pending, cmd)
			}
			if wasOpen && !open {
				closes++
			}

			// Deliver a random subset of what is in flight.
			for len(pending) > 0 && rng.Intn(2) == 0 {
				j := rng.Intn(len(pending))
				cmd := pending[j]
				pending = append(pending[:j], pending[j+1:]...)
				h.c.Update(cmd())
			}
		}

		rng.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })
		for _, cmd := range pending {
			h.c.Update(cmd())
		}

		if !open {
			assert.Nil(t, h.c.LoaderData(), "run %d: closed dialog kept loader data", run)
			assert.Equal(t, PhaseClosed, h.c.Phase(), "run %d", run)
		}
		assert.Equal(t, closes, h.revalidations, "run %d: revalidations", run)
	}
}

func TestCacheBust(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		token uint64
		want  string
	}{
		{"zero token", "/dialog/1", 0, "/dialog/1"},
		{"relative", "/dialog/1", 3, "/dialog/1?_refresh=3"},
		{"absolute with query", "http://host/dialog/1?tab=notes", 2, "http://host/dialog/1?_refresh=2&tab=notes"},
		{"replaces previous token", "/dialog/1?_refresh=1", 5, "/dialog/1?_refresh=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CacheBust(tt.url, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CacheBust("http://[::1", 1)
	assert.Error(t, err)
}

func TestCacheBust_SameLogicalEndpoint(t *testing.T) {
	busted, err := CacheBust("http://host/dialog/1", 9)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(busted, "http://host/dialog/1?"))
}
