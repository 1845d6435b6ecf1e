// Package tui is the interactive terminal client. Screens follow the route
// table; every network call runs as a tea.Cmd and its result is applied to
// the shared state in Update.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/state"
)

func Run(ctx context.Context, st *state.State, opts Options) error {
	applyThemePreference()
	applyAppearanceProfile(opts.Profile)
	m := newAppModel(ctx, st, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
