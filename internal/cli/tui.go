package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Saurabhh-37/supportsync/internal/logging"
	"github.com/Saurabhh-37/supportsync/internal/store"
	"github.com/Saurabhh-37/supportsync/internal/tui"
)

// runTUI starts the interactive client. The TUI owns the terminal, so logs
// go to a file instead of stderr.
func runTUI(cmd *cobra.Command, app *App) error {
	path := strings.TrimSpace(app.LogFile)
	if path == "" {
		path = defaultLogFile()
	}
	if s, err := store.Default(); err == nil {
		_ = s.Ensure()
	}
	if app.log == nil {
		app.log = zap.NewNop().Sugar()
		if path != "" {
			lg, closeLog, err := logging.NewFile(app.LogLevel, path)
			if err == nil {
				app.log = lg
				defer closeLog()
			}
		}
	}

	st, err := app.open(cmd)
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	var opts tui.Options
	if cfg.TUI != nil {
		opts.Profile = cfg.TUI.Profile
	}
	st.Log.Infow("tui start", "api", st.API.BaseURL())
	return tui.Run(cmd.Context(), st, opts)
}
