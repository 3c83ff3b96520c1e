// Package cli implements the routedialog command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/riordanpawley/routedialog/internal/config"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/riordanpawley/routedialog/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys binds command flags to config keys
var flagKeys = map[string]string{
	"addr":      "server.addr",
	"base-url":  "client.base_url",
	"log-file":  "logging.file",
	"log-level": "logging.level",
}

// setupLogging opens the log destination for a command run
var setupLogging = logging.Setup

// NewRootCommand builds the routedialog command tree
func NewRootCommand() *cobra.Command {
	var (
		configFile string
		deps       *Dependencies
		cleanup    func()
	)

	root := &cobra.Command{
		Use:   "routedialog",
		Short: "Route-bound modal dialogs over JSON endpoints",
		Long: `routedialog opens modal dialogs whose data comes from a JSON route.

Opening a dialog loads its route, closing it clears the data after a short
delay and refreshes the host list, and saving posts the form back to the
same route.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, done, err := setupLogging(cfg.Logging.File, cfg.Logging.Level)
			if err != nil {
				return err
			}
			cleanup = done
			deps = NewDependencies(cfg, logger, cmd.OutOrStdout())
			return nil
		},
	}

	// withCleanup closes the log files once a subcommand returns, failed or not
	withCleanup := func(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			defer func() {
				if cleanup != nil {
					cleanup()
					cleanup = nil
				}
			}()
			return run(cmd, args)
		}
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/routedialog/config.yaml)")
	root.PersistentFlags().String("log-file", "", "write JSON logs to this file")
	root.PersistentFlags().String("log-level", "", "log level (debug/info/warn/error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo record endpoints",
		Args:  cobra.NoArgs,
		RunE: withCleanup(func(cmd *cobra.Command, _ []string) error {
			return ServeCommand(cmd.Context(), deps)
		}),
	}
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse records and edit them in route-bound dialogs",
		Args:  cobra.NoArgs,
		RunE: withCleanup(func(*cobra.Command, []string) error {
			return BrowseCommand(deps)
		}),
	}
	browseCmd.Flags().String("base-url", "", "server base URL (default http://127.0.0.1:8080)")

	var (
		search   string
		sortBy   string
		sortDesc bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Example: `  routedialog list
  routedialog list --search example.com --sort name
  routedialog list --sort updated --desc`,
		Args: cobra.NoArgs,
		RunE: withCleanup(func(cmd *cobra.Command, _ []string) error {
			field, err := domain.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			query := domain.Query{Search: search, Field: field}
			if sortDesc {
				query.Order = domain.SortDesc
			}
			return ListCommand(cmd.Context(), deps, query)
		}),
	}
	listCmd.Flags().String("base-url", "", "server base URL (default http://127.0.0.1:8080)")
	listCmd.Flags().StringVarP(&search, "search", "s", "", "only show records whose id, name or email contains this")
	listCmd.Flags().StringVar(&sortBy, "sort", "id", "sort by id, name or updated")
	listCmd.Flags().BoolVar(&sortDesc, "desc", false, "sort descending")

	var fetchOpts FetchOptions
	fetchCmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Load or submit a dialog route and print the JSON",
		Example: `  routedialog fetch /dialog/42
  routedialog fetch /dialog/42 --refresh 3
  routedialog fetch /dialog/42 --data '{"name":"Alice"}'`,
		Args: cobra.ExactArgs(1),
		RunE: withCleanup(func(cmd *cobra.Command, args []string) error {
			return FetchCommand(cmd.Context(), deps, args[0], fetchOpts)
		}),
	}
	fetchCmd.Flags().String("base-url", "", "server base URL (default http://127.0.0.1:8080)")
	fetchCmd.Flags().StringVarP(&fetchOpts.Data, "data", "d", "", "JSON body to POST")
	fetchCmd.Flags().Uint64Var(&fetchOpts.Refresh, "refresh", 0, "refresh token to append as _refresh")

	root.AddCommand(serveCmd, browseCmd, listCmd, fetchCmd)
	return root
}

// bindFlags lets explicitly set flags override config and environment
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind --%s", flag)
		}
	}
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
