package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/logging"
	"github.com/Saurabhh-37/supportsync/internal/session"
	"github.com/Saurabhh-37/supportsync/internal/state"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

type App struct {
	APIURL     string
	Format     string
	PrettyJSON bool
	LogLevel   string
	LogFile    string
	Timeout    time.Duration

	st  *state.State
	log *zap.SugaredLogger
	in  *bufio.Reader
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "supportsync",
		Short:         "Helpdesk tickets and feature requests from the terminal (CLI + TUI)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  supportsync

  # Log in once; the session is kept in ~/.supportsync
  supportsync login --email me@example.com

  # Scriptable commands
  supportsync tickets list --status open --format table
  supportsync tickets create --title "VPN down" --description "since 9am" --priority high
  supportsync features upvote 12
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	timeout := 30 * time.Second
	if v := envOr("SUPPORTSYNC_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("SUPPORTSYNC_API_URL", ""), "Helpdesk API base URL (default: apiBaseUrl from config.json, else "+api.DefaultBaseURL+")")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SUPPORTSYNC_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("SUPPORTSYNC_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("SUPPORTSYNC_LOG_FILE", ""), "Log file for the TUI (default: supportsync.log in the config dir)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", timeout, "HTTP timeout per request (0 disables)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTicketsCmd(app))
	cmd.AddCommand(newFeaturesCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newAttachmentsCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// open builds the application state once per invocation.
func (app *App) open(cmd *cobra.Command) (*state.State, error) {
	if app.st != nil {
		return app.st, nil
	}
	if app.log == nil {
		app.log = logging.New(app.LogLevel, cmd.ErrOrStderr())
	}
	s, err := store.Default()
	if err != nil {
		return nil, err
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	base := strings.TrimSpace(app.APIURL)
	if base == "" {
		base = cfg.APIBaseURL
	}
	app.st = state.New(state.Options{
		BaseURL:  base,
		Timeout:  app.Timeout,
		Store:    s,
		PageSize: cfg.EffectivePageSize(),
		Logger:   app.log,
	})
	return app.st, nil
}

// enter resumes the stored session and runs the route guard for path, the way
// the TUI does before rendering a screen.
func (app *App) enter(cmd *cobra.Command, path string) (*state.State, error) {
	st, err := app.open(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if _, err := st.Restore(ctx); err != nil {
		return nil, err
	}
	return guard(ctx, st, path)
}

// enterCached is enter for commands that only read the local cache: the
// session comes from the cached profile instead of the server.
func (app *App) enterCached(cmd *cobra.Command, path string) (*state.State, error) {
	st, err := app.open(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if _, err := st.Session.ResumeCached(ctx); err != nil {
		return nil, err
	}
	return guard(ctx, st, path)
}

func guard(ctx context.Context, st *state.State, path string) (*state.State, error) {
	d := st.Check(ctx, path)
	if d.Teardown {
		st.Teardown(ctx)
	}
	if !d.Allow {
		return nil, guardError{path: path, decision: d, sess: st.Session.State()}
	}
	return st, nil
}

// fail handles a command error: a 401 ends the stored session first.
func (app *App) fail(cmd *cobra.Command, err error) error {
	if app.st != nil && app.st.HandleErr(cmd.Context(), err) {
		err = errSessionExpired{err: err}
	}
	return writeErr(cmd, err)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// envelope is the JSON shape of every command result.
type envelope struct {
	Data  any            `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
	table func() format.Table
}

func (e envelope) Table() format.Table {
	if e.table == nil {
		return format.Table{}
	}
	return e.table()
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeData(cmd *cobra.Command, app *App, data any, table func() format.Table) error {
	return writeOut(cmd, app, envelope{Data: data, table: table})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), displayMessage(err))
	return err
}

// displayMessage is the user-facing text for err.
func displayMessage(err error) string {
	var le *session.LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	var ge guardError
	if errors.As(err, &ge) {
		return ge.Error()
	}
	var se errSessionExpired
	if errors.As(err, &se) {
		return se.Error()
	}
	return api.Message(err, "")
}

func defaultLogFile() string {
	dir, err := store.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "supportsync.log")
}
