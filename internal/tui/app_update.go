package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/session"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshDetail()
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	default:
		cmd = m.handleMsg(msg)
	}
	m.syncLists()
	m.refreshDetail()
	return m, cmd
}

func (m *appModel) navigate(path string) tea.Cmd {
	return m.apply(m.st.Go(m.ctx, path))
}

func (m *appModel) back(fallback string) tea.Cmd {
	return m.apply(m.st.Back(m.ctx, fallback))
}

// apply shows the screen a navigation resolved to and starts its fetches.
func (m *appModel) apply(res route.Result) tea.Cmd {
	leaving := m.loc
	m.loc = res.Location
	m.flash, m.errLine = "", ""
	m.inputMode = inputNone
	m.commenting = false
	m.modal = nil
	m.resize()

	switch res.Reason {
	case route.ReasonLoginRequired:
		if m.restoreErr == "" {
			m.flash = "Please log in to continue."
		}
	case route.ReasonAdminOnly:
		m.errLine = "That page is only available to admins."
	case route.ReasonNotFound:
		m.errLine = "No such page."
	}

	if leaving.Path != m.loc.Path {
		switch leaving.Route.Pattern {
		case route.TicketDetail:
			m.st.Tickets.CloseDetail()
		case route.FeatureDetail:
			m.st.Features.CloseDetail()
		}
	}
	if m.loc.Route.Requirement != route.None {
		m.saveTUIState()
	}
	return m.enterScreen()
}

func (m *appModel) enterScreen() tea.Cmd {
	switch m.screen() {
	case route.Login:
		m.login.reset(m.st.Session.RememberedEmail(m.ctx))
	case route.Signup:
		m.signup.reset()
	case route.Dashboard:
		return m.fetchStats()
	case route.Tickets:
		return m.fetchTickets()
	case route.TicketDetail:
		m.detail.GotoTop()
		return m.fetchTicket(m.loc.ID)
	case route.TicketCreate:
		m.create = newCreateForm(enumStrings(model.TicketPriorities), string(model.TicketMedium))
		m.create.resize(m.width)
	case route.Features:
		return m.fetchFeatures()
	case route.FeatureDetail:
		m.detail.GotoTop()
		return m.fetchFeature(m.loc.ID)
	case route.FeatureCreate:
		m.create = newCreateForm(enumStrings(model.FeaturePriorities), string(model.FeatureMedium))
		m.create.resize(m.width)
	case route.Admin:
		return tea.Batch(m.fetchSummary(), m.fetchAdminTab())
	case route.Users:
		return m.fetchUsers()
	}
	return nil
}

func (m *appModel) fetchAdminTab() tea.Cmd {
	switch m.currentAdminTab() {
	case adminFeatures:
		return m.fetchFeatures()
	case adminUsers:
		return m.fetchUsers()
	}
	return m.fetchTickets()
}

// handleAuthErr tears the session down on a 401 and sends the user to log in,
// remembering where they were.
func (m *appModel) handleAuthErr(err error) (tea.Cmd, bool) {
	if err == nil || !m.st.HandleErr(m.ctx, err) {
		return nil, false
	}
	from := m.loc.Path
	m.busy = false
	m.stats, m.summary = nil, nil
	cmd := m.apply(m.st.Replace(m.ctx, from))
	m.flash = "Your session has expired. Please log in again."
	return cmd, true
}

func (m *appModel) handleMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case restoredMsg:
		m.busy = false
		m.ready = true
		m.st.Restored(msg.err)
		if msg.err != nil {
			m.restoreErr = "Could not reach the server: " + api.Message(msg.err, msg.err.Error())
			return m.apply(m.st.Replace(m.ctx, route.Login))
		}
		m.restoreErr = ""
		target := route.Root
		if m.tuiState != nil && strings.TrimSpace(m.tuiState.Route) != "" {
			target = m.tuiState.Route
		}
		return m.apply(m.st.Replace(m.ctx, target))

	case loginMsg:
		m.busy = false
		if msg.err != nil {
			m.login.password.SetValue("")
			m.errLine = loginErrText(msg.err)
			return nil
		}
		m.restoreErr = ""
		cmd := m.apply(m.st.AfterLogin(msg.res.Landing))
		m.flash = "Welcome, " + msg.res.User.DisplayName() + "."
		return cmd

	case signupMsg:
		m.busy = false
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Registration failed. Please try again.")
			return nil
		}
		cmd := m.apply(m.st.Replace(m.ctx, route.Login))
		m.login.reset(msg.email)
		m.flash = "Registration successful! Please login to continue."
		return cmd

	case logoutMsg:
		m.busy = false
		m.st.Reset()
		m.stats, m.summary = nil, nil
		cmd := m.apply(m.st.Replace(m.ctx, route.Login))
		m.flash = "Logged out."
		return cmd

	case ticketsMsg:
		if msg.store != m.st.Tickets {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.store.FinishFetch(msg.seq, msg.items, msg.err) && msg.err == nil {
			m.st.CacheList(m.ctx, state.CacheTickets, msg.store.Query, msg.items)
		}

	case ticketMsg:
		if msg.store != m.st.Tickets {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		msg.store.FinishDetail(msg.seq, msg.rec, msg.err)

	case featuresMsg:
		if msg.store != m.st.Features {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.store.FinishFetch(msg.seq, msg.items, msg.err) && msg.err == nil {
			m.st.CacheList(m.ctx, state.CacheFeatures, msg.store.Query, msg.items)
		}

	case featureMsg:
		if msg.store != m.st.Features {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		msg.store.FinishDetail(msg.seq, msg.rec, msg.err)

	case usersMsg:
		if msg.store != m.st.Users {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.store.FinishFetch(msg.seq, msg.items, msg.err) && msg.err == nil {
			m.st.CacheList(m.ctx, state.CacheUsers, msg.store.Query, msg.items)
		}

	case ticketSavedMsg:
		if msg.store != m.st.Tickets {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			msg.store.Fail(msg.p, msg.err)
			return nil
		}
		// Update responses carry no comments.
		if cur, ok := msg.store.Find(msg.rec.ID); ok && len(msg.rec.Comments) == 0 {
			msg.rec.Comments = cur.Comments
		}
		msg.store.Confirm(msg.p, msg.rec)

	case featureSavedMsg:
		if msg.store != m.st.Features {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			msg.store.Fail(msg.p, msg.err)
			return nil
		}
		// Update responses carry no comments.
		if cur, ok := msg.store.Find(msg.rec.ID); ok && len(msg.rec.Comments) == 0 {
			msg.rec.Comments = cur.Comments
		}
		msg.store.Confirm(msg.p, msg.rec)

	case userSavedMsg:
		if msg.store != m.st.Users {
			return nil
		}
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			msg.store.Fail(msg.p, msg.err)
			return nil
		}
		msg.store.Confirm(msg.p, msg.rec)

	case ticketCreatedMsg:
		m.busy = false
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Could not create the ticket.")
			return nil
		}
		m.st.Tickets.Upsert(msg.rec)
		cmd := m.apply(m.st.Replace(m.ctx, route.TicketPath(msg.rec.ID)))
		m.flash = fmt.Sprintf("Ticket #%d created.", msg.rec.ID)
		return cmd

	case featureCreatedMsg:
		m.busy = false
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Could not create the feature request.")
			return nil
		}
		m.st.Features.Upsert(msg.rec)
		cmd := m.apply(m.st.Replace(m.ctx, route.FeaturePath(msg.rec.ID)))
		m.flash = fmt.Sprintf("Feature request #%d created.", msg.rec.ID)
		return cmd

	case deletedMsg:
		return m.handleDeleted(msg)

	case commentMsg:
		if msg.store != m.storeFor(msg.kind) {
			return nil
		}
		m.busy = false
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Could not add the comment.")
			return nil
		}
		switch msg.kind {
		case kindTicket:
			if t, ok := m.st.Tickets.Find(msg.id); ok {
				t.Comments = append(slices.Clone(t.Comments), msg.comment)
				m.st.Tickets.Upsert(t)
			}
		case kindFeature:
			if f, ok := m.st.Features.Find(msg.id); ok {
				f.Comments = append(slices.Clone(f.Comments), msg.comment)
				m.st.Features.Upsert(f)
			}
		}
		m.commenting = false
		m.comment.Reset()
		m.resize()
		m.detail.GotoBottom()
		m.flash = "Comment added."

	case upvoteMsg:
		if msg.store != m.st.Features {
			return nil
		}
		m.busy = false
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.st.Features.SetErr(msg.err)
			return nil
		}
		if f, ok := m.st.Features.Find(msg.id); ok {
			f.UpvotedBy = slices.Clone(f.UpvotedBy)
			mutate.ApplyUpvote(&f, m.userID(), msg.res.UpvotesCount)
			m.st.Features.Upsert(f)
		}
		m.flash = "Upvoted."
		if msg.res.Message != "" {
			m.flash = msg.res.Message
		}

	case statsMsg:
		m.statsLoading = false
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Could not load the dashboard.")
			return nil
		}
		m.stats = &msg.stats

	case summaryMsg:
		if cmd, ok := m.handleAuthErr(msg.err); ok {
			return cmd
		}
		if msg.err != nil {
			m.errLine = api.Message(msg.err, "Could not load the summary.")
			return nil
		}
		m.summary = &msg.sum

	default:
		return m.updateFocusedInput(msg)
	}
	return nil
}

func (m *appModel) handleDeleted(msg deletedMsg) tea.Cmd {
	if msg.store != m.storeFor(msg.kind) {
		return nil
	}
	m.busy = false
	if cmd, ok := m.handleAuthErr(msg.err); ok {
		return cmd
	}
	var (
		path, fallback, noun string
		err                  = msg.err
	)
	switch msg.kind {
	case kindTicket:
		path, fallback, noun = route.TicketPath(msg.id), route.Tickets, "Ticket"
		if err != nil {
			m.st.Tickets.SetErr(err)
			return nil
		}
		m.st.Tickets.Remove(msg.id)
	case kindFeature:
		path, fallback, noun = route.FeaturePath(msg.id), route.Features, "Feature request"
		if err != nil {
			m.st.Features.SetErr(err)
			return nil
		}
		m.st.Features.Remove(msg.id)
	case kindUser:
		if err != nil {
			m.st.Users.SetErr(err)
			return nil
		}
		m.st.Users.Remove(msg.id)
		m.flash = fmt.Sprintf("User #%d deleted.", msg.id)
		return nil
	}
	m.st.Deleted(path)
	var cmd tea.Cmd
	if msg.fromDetail && m.loc.Path == path {
		cmd = m.back(fallback)
	}
	m.flash = fmt.Sprintf("%s #%d deleted.", noun, msg.id)
	return cmd
}

// updateFocusedInput forwards non-key messages to whichever text input is
// active.
func (m *appModel) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.inputMode != inputNone:
		m.input, cmd = m.input.Update(msg)
	case m.commenting:
		m.comment, cmd = m.comment.Update(msg)
	}
	return cmd
}

func loginErrText(err error) string {
	var le *session.LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	var lo *session.LockedOutError
	if errors.As(err, &lo) || errors.Is(err, session.ErrTooManyAttempts) {
		return err.Error()
	}
	return api.Message(err, "Login failed. Please try again.")
}

func (m *appModel) user() *model.User {
	return m.st.Session.State().User
}

func (m *appModel) userID() int {
	if u := m.user(); u != nil {
		return u.ID
	}
	return 0
}

func enumStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// cycle steps through "" (no filter) followed by vals.
func cycle(vals []string, cur string) string {
	for i, v := range vals {
		if v == cur {
			if i == len(vals)-1 {
				return ""
			}
			return vals[i+1]
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
