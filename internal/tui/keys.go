package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/perm"
	"github.com/Saurabhh-37/supportsync/internal/resource"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.modal != nil {
		cmd, done := m.modal.handle(m, msg)
		if done {
			m.modal = nil
		}
		return cmd
	}
	if !m.ready || m.busy {
		if msg.String() == "q" && !m.textFocused() {
			return tea.Quit
		}
		return nil
	}
	m.flash, m.errLine = "", ""

	switch {
	case m.inputMode != inputNone:
		return m.handleInputKey(msg)
	case m.commenting:
		return m.handleCommentKey(msg)
	}
	switch m.screen() {
	case route.Login:
		return m.handleLoginKey(msg)
	case route.Signup:
		return m.handleSignupKey(msg)
	case route.TicketCreate, route.FeatureCreate:
		return m.handleCreateKey(msg)
	}

	if cmd, ok := m.handleGlobalKey(msg); ok {
		return cmd
	}
	switch m.screen() {
	case route.Tickets, route.Features:
		return m.handleListKey(m.currentList(), msg)
	case route.Admin, route.Users:
		return m.handleAdminKey(msg)
	case route.TicketDetail:
		return m.handleTicketDetailKey(msg)
	case route.FeatureDetail:
		return m.handleFeatureDetailKey(msg)
	case route.Settings:
		return m.handleSettingsKey(msg)
	case route.Dashboard:
		if msg.String() == "r" {
			return m.fetchStats()
		}
	}
	return nil
}

func (m *appModel) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "1":
		return m.navigate(route.Dashboard), true
	case "2":
		return m.navigate(route.Tickets), true
	case "3":
		return m.navigate(route.Features), true
	case "4":
		return m.navigate(route.Admin), true
	case "5":
		return m.navigate(route.Settings), true
	case "L":
		m.busy = true
		return m.logoutCmd(), true
	}
	return nil, false
}

func (m *appModel) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+n":
		return m.navigate(route.Signup)
	case "ctrl+r":
		if m.restoreErr == "" {
			return nil
		}
		m.busy = true
		return m.restoreCmd()
	}
	cmd, submit := m.login.update(msg)
	if !submit {
		return cmd
	}
	email := strings.TrimSpace(m.login.email.Value())
	password := m.login.password.Value()
	if email == "" || password == "" {
		m.errLine = "Email and password are required."
		return nil
	}
	m.busy = true
	return m.loginCmd(email, password, m.login.remember)
}

func (m *appModel) handleSignupKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		return m.apply(m.st.Replace(m.ctx, route.Login))
	}
	cmd, submit := m.signup.update(msg)
	if !submit {
		return cmd
	}
	in, err := mutate.NewAccount(m.signup.username.Value(), m.signup.email.Value(), m.signup.password.Value())
	if err != nil {
		m.errLine = err.Error()
		return nil
	}
	m.busy = true
	return m.signupCmd(in)
}

func (m *appModel) handleCreateKey(msg tea.KeyMsg) tea.Cmd {
	isTicket := m.screen() == route.TicketCreate
	if msg.String() == "esc" {
		if isTicket {
			return m.back(route.Tickets)
		}
		return m.back(route.Features)
	}
	cmd, submit := m.create.update(msg)
	if !submit {
		return cmd
	}
	clear(m.create.fieldErr)
	title, desc, pri := m.create.title.Value(), m.create.description.Value(), m.create.selectedPriority()
	if isTicket {
		in, err := mutate.NewTicket(title, desc, pri)
		if err != nil {
			m.formErr(err)
			return nil
		}
		m.busy = true
		return m.createTicketCmd(in)
	}
	in, err := mutate.NewFeature(title, desc, pri)
	if err != nil {
		m.formErr(err)
		return nil
	}
	m.busy = true
	return m.createFeatureCmd(in)
}

func (m *appModel) formErr(err error) {
	var fe mutate.FieldError
	if errors.As(err, &fe) {
		m.create.fieldErr[fe.Field] = fe.Message
		return
	}
	m.errLine = err.Error()
}

// listView adapts one resource list to the shared list key bindings.
type listView struct {
	list       *list.Model
	kind       recordKind
	noun       string
	createPath string
	open       func(id int) string
	fetch      func() tea.Cmd
	statuses   []string
	priorities []string
	query      func() *queryOps
	canDelete  func(id int) bool
}

// queryOps are the filter operations of one store.
type queryOps struct {
	status, priority, search string
	page                     int
	setStatus                func(string) bool
	setPriority              func(string) bool
	setSearch                func(string) bool
	next, prev               func() bool
}

func storeOps[T resource.Record](s *resource.Store[T]) func() *queryOps {
	return func() *queryOps {
		return &queryOps{
			status:      s.Query.Status,
			priority:    s.Query.Priority,
			search:      s.Query.Search,
			page:        s.Page(),
			setStatus:   s.SetStatus,
			setPriority: s.SetPriority,
			setSearch:   s.SetSearch,
			next:        s.NextPage,
			prev:        s.PrevPage,
		}
	}
}

func (m *appModel) ticketList() listView {
	return listView{
		list:       &m.tickets,
		kind:       kindTicket,
		noun:       "ticket",
		createPath: route.TicketCreate,
		open:       route.TicketPath,
		fetch:      m.fetchTickets,
		statuses:   enumStrings(model.TicketStatuses),
		priorities: enumStrings(model.TicketPriorities),
		query:      storeOps(m.st.Tickets),
		canDelete: func(id int) bool {
			t, ok := m.st.Tickets.Find(id)
			return ok && perm.CanDeleteTicket(m.user(), t)
		},
	}
}

func (m *appModel) featureList() listView {
	return listView{
		list:       &m.features,
		kind:       kindFeature,
		noun:       "feature request",
		createPath: route.FeatureCreate,
		open:       route.FeaturePath,
		fetch:      m.fetchFeatures,
		statuses:   enumStrings(model.FeatureStatuses),
		priorities: enumStrings(model.FeaturePriorities),
		query:      storeOps(m.st.Features),
		canDelete: func(id int) bool {
			f, ok := m.st.Features.Find(id)
			return ok && perm.CanEditFeature(m.user(), f)
		},
	}
}

func (m *appModel) userList() listView {
	return listView{
		list:  &m.users,
		kind:  kindUser,
		noun:  "user",
		fetch: m.fetchUsers,
		canDelete: func(id int) bool {
			return perm.CanManageUsers(m.user()) && id != m.userID()
		},
	}
}

// currentList is the list shown on the current screen.
func (m *appModel) currentList() listView {
	switch m.screen() {
	case route.Features:
		return m.featureList()
	case route.Admin, route.Users:
		switch m.currentAdminTab() {
		case adminFeatures:
			return m.featureList()
		case adminUsers:
			return m.userList()
		}
	}
	return m.ticketList()
}

func (m *appModel) handleListKey(lv listView, msg tea.KeyMsg) tea.Cmd {
	var q *queryOps
	if lv.query != nil {
		q = lv.query()
	}
	switch msg.String() {
	case "/":
		if q == nil {
			return nil
		}
		m.inputMode = inputSearch
		m.input.Placeholder = "search " + lv.noun + "s"
		m.input.SetValue(q.search)
		m.input.CursorEnd()
		m.input.Focus()
		return nil
	case "s":
		if q != nil && q.setStatus(cycle(lv.statuses, q.status)) {
			return lv.fetch()
		}
		return nil
	case "p":
		if q != nil && q.setPriority(cycle(lv.priorities, q.priority)) {
			return lv.fetch()
		}
		return nil
	case "]":
		if q != nil && q.next() {
			return lv.fetch()
		}
		return nil
	case "[":
		if q != nil && q.prev() {
			return lv.fetch()
		}
		return nil
	case "n":
		if lv.createPath == "" {
			return nil
		}
		return m.navigate(lv.createPath)
	case "enter":
		if id, ok := selectedID(lv.list); ok && lv.open != nil {
			return m.navigate(lv.open(id))
		}
		return nil
	case "d":
		id, ok := selectedID(lv.list)
		if !ok {
			return nil
		}
		if !lv.canDelete(id) {
			m.errLine = "You do not have permission to delete this " + lv.noun + "."
			return nil
		}
		m.confirmDelete(lv.kind, lv.noun, id, false)
		return nil
	case "r":
		return lv.fetch()
	}
	var cmd tea.Cmd
	*lv.list, cmd = lv.list.Update(msg)
	return cmd
}

func (m *appModel) handleAdminKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "right":
		return m.switchAdminTab((m.currentAdminTab() + 1) % 3)
	case "shift+tab", "left":
		return m.switchAdminTab((m.currentAdminTab() + 2) % 3)
	case "R":
		if m.currentAdminTab() == adminUsers {
			return m.cycleUserRole()
		}
		return nil
	}
	return m.handleListKey(m.currentList(), msg)
}

func (m *appModel) switchAdminTab(t adminTab) tea.Cmd {
	m.adminTab = t
	if m.screen() == route.Users {
		return m.navigate(route.Admin)
	}
	m.saveTUIState()
	return m.fetchAdminTab()
}

func (m *appModel) cycleUserRole() tea.Cmd {
	id, ok := selectedID(&m.users)
	if !ok {
		return nil
	}
	u, ok := m.st.Users.Find(id)
	if !ok {
		return nil
	}
	ch, err := mutate.UserRole(m.user(), u, string(model.Next(model.Roles, u.Role)))
	if err != nil {
		m.errLine = err.Error()
		return nil
	}
	p, ok := m.st.Users.Apply(id, ch.Apply)
	if !ok {
		return nil
	}
	return m.saveUser(p, ch.Patch)
}

func (m *appModel) confirmDelete(kind recordKind, noun string, id int, fromDetail bool) {
	m.modal = &confirmModal{
		title: fmt.Sprintf("Delete %s #%d", noun, id),
		body:  fmt.Sprintf("Are you sure you want to delete this %s? This cannot be undone.", noun),
		label: "Delete",
		onYes: func(m *appModel) tea.Cmd {
			m.busy = true
			return m.deleteCmd(kind, id, fromDetail)
		},
	}
}

func (m *appModel) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.inputMode = inputNone
		m.input.Blur()
		return nil
	case "enter":
		val := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.inputMode = inputNone
		m.input.Blur()
		if mode == inputAssign {
			return m.assign(val)
		}
		lv := m.currentList()
		if lv.query != nil && lv.query().setSearch(val) {
			return lv.fetch()
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *appModel) handleCommentKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.commenting = false
		m.comment.Blur()
		m.resize()
		return nil
	case "ctrl+s":
		content, err := mutate.Comment(m.comment.Value())
		if err != nil {
			m.errLine = err.Error()
			return nil
		}
		kind := kindTicket
		if m.screen() == route.FeatureDetail {
			kind = kindFeature
		}
		m.busy = true
		return m.commentCmd(kind, m.loc.ID, content)
	}
	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	return cmd
}

func (m *appModel) startComment() {
	m.commenting = true
	m.comment.Reset()
	m.comment.Focus()
	m.resize()
}

func (m *appModel) handleTicketDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace":
		return m.back(route.Tickets)
	case "r":
		return m.fetchTicket(m.loc.ID)
	}
	cur := m.st.Tickets.Current
	if cur == nil {
		return nil
	}
	t := *cur
	u := m.user()
	switch msg.String() {
	case "s":
		ch, err := mutate.TicketStatus(u, t, string(model.Next(model.TicketStatuses, t.Status)))
		return m.applyTicket(t.ID, ch, err)
	case "p":
		ch, err := mutate.TicketPriority(u, t, string(model.Next(model.TicketPriorities, t.Priority)))
		return m.applyTicket(t.ID, ch, err)
	case "a":
		if !perm.CanAssign(u) {
			m.errLine = "Only agents and admins can assign tickets."
			return nil
		}
		m.inputMode = inputAssign
		m.input.Placeholder = "user id, or \"me\""
		m.input.SetValue("")
		m.input.Focus()
		return nil
	case "c":
		m.startComment()
		return nil
	case "d":
		if !perm.CanDeleteTicket(u, t) {
			m.errLine = "You do not have permission to delete this ticket."
			return nil
		}
		m.confirmDelete(kindTicket, "ticket", t.ID, true)
		return nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return cmd
}

func (m *appModel) applyTicket(id int, ch mutate.TicketChange, err error) tea.Cmd {
	if errors.Is(err, mutate.ErrNoChange) {
		return nil
	}
	if err != nil {
		m.errLine = err.Error()
		return nil
	}
	p, ok := m.st.Tickets.Apply(id, ch.Apply)
	if !ok {
		return nil
	}
	return m.saveTicket(p, ch.Patch)
}

// assign resolves "me" or a user id typed at the assign prompt.
func (m *appModel) assign(val string) tea.Cmd {
	cur := m.st.Tickets.Current
	if cur == nil || val == "" {
		return nil
	}
	var assignee model.User
	if strings.EqualFold(val, "me") {
		if u := m.user(); u != nil {
			assignee = *u
		}
	} else {
		id, err := strconv.Atoi(strings.TrimPrefix(val, "#"))
		if err != nil || id <= 0 {
			m.errLine = "Enter a user id, or \"me\"."
			return nil
		}
		assignee = model.User{ID: id}
		if u, ok := m.st.Users.Find(id); ok {
			assignee = u
		}
	}
	ch, err := mutate.TicketAssign(m.user(), *cur, assignee)
	return m.applyTicket(cur.ID, ch, err)
}

func (m *appModel) handleFeatureDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace":
		return m.back(route.Features)
	case "r":
		return m.fetchFeature(m.loc.ID)
	}
	cur := m.st.Features.Current
	if cur == nil {
		return nil
	}
	f := *cur
	u := m.user()
	switch msg.String() {
	case "s":
		ch, err := mutate.FeatureStatus(u, f, string(model.Next(model.FeatureStatuses, f.Status)))
		return m.applyFeature(f.ID, ch, err)
	case "p":
		ch, err := mutate.FeaturePriority(u, f, string(model.Next(model.FeaturePriorities, f.Priority)))
		return m.applyFeature(f.ID, ch, err)
	case "u":
		if err := mutate.CanUpvote(f, m.userID()); err != nil {
			m.errLine = err.Error()
			return nil
		}
		m.busy = true
		return m.upvoteCmd(f.ID)
	case "c":
		m.startComment()
		return nil
	case "d":
		if !perm.CanEditFeature(u, f) {
			m.errLine = "You do not have permission to delete this feature request."
			return nil
		}
		m.confirmDelete(kindFeature, "feature request", f.ID, true)
		return nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return cmd
}

func (m *appModel) applyFeature(id int, ch mutate.FeatureChange, err error) tea.Cmd {
	if errors.Is(err, mutate.ErrNoChange) {
		return nil
	}
	if err != nil {
		m.errLine = err.Error()
		return nil
	}
	p, ok := m.st.Features.Apply(id, ch.Apply)
	if !ok {
		return nil
	}
	return m.saveFeature(p, ch.Patch)
}

func (m *appModel) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() != "t" {
		return nil
	}
	m.profile = nextProfile(m.profile)
	applyAppearanceProfile(m.profile)
	cfg, err := store.LoadConfig()
	if err != nil {
		m.errLine = err.Error()
		return nil
	}
	if cfg.TUI == nil {
		cfg.TUI = &store.TUIConfig{}
	}
	cfg.TUI.Profile = m.profile
	if err := store.SaveConfig(cfg); err != nil {
		m.errLine = err.Error()
		return nil
	}
	m.flash = "Appearance: " + m.profile
	return nil
}
