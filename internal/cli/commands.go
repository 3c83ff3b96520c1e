package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/riordanpawley/routedialog/internal/app"
	"github.com/riordanpawley/routedialog/internal/config"
	"github.com/riordanpawley/routedialog/internal/dialog"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/server"
	"github.com/riordanpawley/routedialog/internal/services/fetch"
)

// Dependencies holds all the services needed for CLI commands
type Dependencies struct {
	Config *config.Config
	Client *fetch.Client
	Logger *slog.Logger
	Out    io.Writer
}

// NewDependencies wires the JSON client from cfg
func NewDependencies(cfg *config.Config, logger *slog.Logger, out io.Writer) *Dependencies {
	if logger == nil {
		logger = slog.Default()
	}
	client := fetch.NewClient(
		fetch.WithTimeout(cfg.HTTP.Timeout()),
		fetch.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		fetch.WithUserAgent(cfg.HTTP.UserAgent),
		fetch.WithLogger(logger),
	)
	return &Dependencies{
		Config: cfg,
		Client: client,
		Logger: logger,
		Out:    out,
	}
}

// ServeCommand runs the demo record server until ctx is canceled
func ServeCommand(ctx context.Context, deps *Dependencies) error {
	store := server.NewStore(server.SeedRecords()...)
	srv := server.New(store, deps.Logger)

	fmt.Fprintf(deps.Out, "Serving %d records on http://%s\n", len(store.List()), deps.Config.Server.Addr)
	return srv.ListenAndServe(ctx, deps.Config.Server.Addr)
}

// BrowseCommand runs the record browser TUI
func BrowseCommand(deps *Dependencies, opts ...tea.ProgramOption) error {
	model := app.New(deps.Config, deps.Client, deps.Logger)
	defer model.Close()

	deps.Logger.Info("starting browser", "base_url", deps.Config.Client.BaseURL)
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run browser")
	}
	return nil
}

// ListCommand prints the records matching query as a table
func ListCommand(ctx context.Context, deps *Dependencies, query domain.Query) error {
	ref := app.RecordsPath
	if v := query.Values(); len(v) > 0 {
		ref += "?" + v.Encode()
	}
	target, err := fetch.Resolve(deps.Config.Client.BaseURL, ref)
	if err != nil {
		return err
	}

	raw, err := deps.Client.GetJSON(ctx, target)
	if err != nil {
		return err
	}
	var records []domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return &domain.ParseError{Op: "list", URL: target, Err: err}
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Out, "No records.")
		return nil
	}

	w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tUPDATED")
	fmt.Fprintln(w, "--\t----\t-----\t-------")
	for _, r := range records {
		email := r.Email
		if email == "" {
			email = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, email, r.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

// FetchOptions controls FetchCommand
type FetchOptions struct {
	// Data is a JSON body; when set the request is a POST
	Data string
	// Refresh appends the cache-busting refresh token when non-zero
	Refresh uint64
}

// FetchCommand requests a route the way a dialog would and pretty-prints
// the JSON response
func FetchCommand(ctx context.Context, deps *Dependencies, path string, opts FetchOptions) error {
	target, err := fetch.Resolve(deps.Config.Client.BaseURL, path)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if opts.Data != "" {
		body := json.RawMessage(opts.Data)
		if !json.Valid(body) {
			return errors.Wrap(domain.ErrInvalidInput, "--data is not valid JSON")
		}
		raw, err = deps.Client.PostJSON(ctx, target, body)
	} else {
		if opts.Refresh > 0 {
			if target, err = dialog.CacheBust(target, opts.Refresh); err != nil {
				return err
			}
		}
		raw, err = deps.Client.GetJSON(ctx, target)
	}
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return &domain.ParseError{Op: "fetch", URL: target, Err: err}
	}
	fmt.Fprintln(deps.Out, strings.TrimSpace(out.String()))
	return nil
}
