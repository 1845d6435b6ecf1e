package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

type Options struct {
	// Profile is the appearance profile ("default" or "mono").
	Profile string
}

type adminTab int

const (
	adminTickets adminTab = iota
	adminFeatures
	adminUsers
)

var adminTabNames = []string{"tickets", "features", "users"}

func parseAdminTab(s string) adminTab {
	for i, n := range adminTabNames {
		if n == s {
			return adminTab(i)
		}
	}
	return adminTickets
}

// inputMode is the single-line prompt shown under a list or detail view.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputAssign
)

type appModel struct {
	ctx context.Context
	st  *state.State

	width  int
	height int

	// ready is false until the persisted session has been restored.
	ready      bool
	restoreErr string
	loc        route.Location
	profile    string
	tuiState   *store.TUIState

	// flash is a one-line notice for the current screen; errLine is an error
	// not owned by a resource store (form validation, login failures).
	flash   string
	errLine string
	busy    bool
	spinner spinner.Model

	login  loginForm
	signup signupForm
	create createForm

	tickets  list.Model
	features list.Model
	users    list.Model
	adminTab adminTab

	input     textinput.Model
	inputMode inputMode

	comment    textarea.Model
	commenting bool
	detail     viewport.Model

	modal *confirmModal

	stats        *state.Stats
	statsLoading bool
	summary      *model.DashboardSummary
}

func newAppModel(ctx context.Context, st *state.State, opts Options) appModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleMuted()

	ts, err := st.Store.LoadTUIState()
	if err != nil {
		st.Log.Warnw("load tui state", "error", err)
		ts = &store.TUIState{Version: 1}
	}

	m := appModel{
		ctx:      ctx,
		st:       st,
		width:    80,
		height:   24,
		profile:  normalizeProfile(opts.Profile),
		tuiState: ts,
		spinner:  sp,
		login:    newLoginForm(),
		signup:   newSignupForm(),
		tickets:  newList("Tickets"),
		features: newList("Feature requests"),
		users:    newList("Users"),
		adminTab: parseAdminTab(ts.AdminTab),
		input:    newInput("", 200),
		comment:  newTextArea("Write a comment…"),
		create:   newCreateForm(nil, ""),
		detail:   viewport.New(80, 16),
	}
	m.resize()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.restoreCmd())
}

// screen is the pattern of the current route, empty before the first
// navigation.
func (m *appModel) screen() string {
	return m.loc.Route.Pattern
}

// textFocused reports whether keys go to a text input rather than to the
// global key bindings.
func (m *appModel) textFocused() bool {
	switch m.screen() {
	case route.Login, route.Signup, route.TicketCreate, route.FeatureCreate:
		return true
	}
	return m.inputMode != inputNone || m.commenting
}

// loading reports whether a fetch for the current screen is in flight.
func (m *appModel) loading() bool {
	if m.busy {
		return true
	}
	switch m.screen() {
	case route.Dashboard:
		return m.statsLoading
	case route.Tickets:
		return m.st.Tickets.Loading
	case route.TicketDetail:
		return m.st.Tickets.DetailLoading
	case route.Features:
		return m.st.Features.Loading
	case route.FeatureDetail:
		return m.st.Features.DetailLoading
	case route.Admin, route.Users:
		switch m.currentAdminTab() {
		case adminFeatures:
			return m.st.Features.Loading
		case adminUsers:
			return m.st.Users.Loading
		}
		return m.st.Tickets.Loading
	}
	return !m.ready
}

// storeErr is the error line owned by the current screen's resource store.
func (m *appModel) storeErr() string {
	switch m.screen() {
	case route.Tickets, route.TicketDetail:
		return m.st.Tickets.Err
	case route.Features, route.FeatureDetail:
		return m.st.Features.Err
	case route.Admin, route.Users:
		switch m.currentAdminTab() {
		case adminFeatures:
			return m.st.Features.Err
		case adminUsers:
			return m.st.Users.Err
		}
		return m.st.Tickets.Err
	}
	return ""
}

func (m *appModel) currentAdminTab() adminTab {
	if m.screen() == route.Users {
		return adminUsers
	}
	return m.adminTab
}

func (m *appModel) resize() {
	h := max(m.height-7, 3)
	w := max(m.width, 20)
	m.tickets.SetSize(w, h)
	m.features.SetSize(w, h)
	m.users.SetSize(w, h-2)
	m.detail.Width = w
	m.detail.Height = h
	if m.commenting {
		m.detail.Height = max(h-5, 3)
	}
	m.comment.SetWidth(max(w-2, 10))
	m.input.Width = max(w-20, 10)
	m.create.resize(w)
}

func (m *appModel) saveTUIState() {
	if m.tuiState == nil {
		return
	}
	m.tuiState.Route = m.loc.Path
	m.tuiState.AdminTab = adminTabNames[m.adminTab]
	if err := m.st.Store.SaveTUIState(m.tuiState); err != nil {
		m.st.Log.Warnw("save tui state", "error", err)
	}
}
