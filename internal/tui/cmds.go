package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/resource"
	"github.com/Saurabhh-37/supportsync/internal/session"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

// Network work happens in commands; results come back as messages and are
// applied to the resource stores in Update. Result messages carry the store
// they were issued against so that responses arriving after a logout are
// dropped.

type restoredMsg struct{ err error }

type loginMsg struct {
	res session.LoginResult
	err error
}

type signupMsg struct {
	email string
	err   error
}

type logoutMsg struct{}

type ticketsMsg struct {
	store *resource.Store[model.Ticket]
	seq   uint64
	items []model.Ticket
	err   error
}

type ticketMsg struct {
	store *resource.Store[model.Ticket]
	seq   uint64
	rec   model.Ticket
	err   error
}

type featuresMsg struct {
	store *resource.Store[model.FeatureRequest]
	seq   uint64
	items []model.FeatureRequest
	err   error
}

type featureMsg struct {
	store *resource.Store[model.FeatureRequest]
	seq   uint64
	rec   model.FeatureRequest
	err   error
}

type usersMsg struct {
	store *resource.Store[model.User]
	seq   uint64
	items []model.User
	err   error
}

// savedMsg answers an optimistic mutation.
type ticketSavedMsg struct {
	store *resource.Store[model.Ticket]
	p     resource.Pending
	rec   model.Ticket
	err   error
}

type featureSavedMsg struct {
	store *resource.Store[model.FeatureRequest]
	p     resource.Pending
	rec   model.FeatureRequest
	err   error
}

type userSavedMsg struct {
	store *resource.Store[model.User]
	p     resource.Pending
	rec   model.User
	err   error
}

type ticketCreatedMsg struct {
	rec model.Ticket
	err error
}

type featureCreatedMsg struct {
	rec model.FeatureRequest
	err error
}

type recordKind int

const (
	kindTicket recordKind = iota
	kindFeature
	kindUser
)

type deletedMsg struct {
	store any
	kind  recordKind
	id    int
	// fromDetail is set when the delete was issued from the record's own screen.
	fromDetail bool
	err        error
}

type commentMsg struct {
	store   any
	kind    recordKind
	id      int
	comment model.Comment
	err     error
}

type upvoteMsg struct {
	store *resource.Store[model.FeatureRequest]
	id    int
	res   api.UpvoteResult
	err   error
}

type statsMsg struct {
	stats state.Stats
	err   error
}

type summaryMsg struct {
	sum model.DashboardSummary
	err error
}

func (m *appModel) restoreCmd() tea.Cmd {
	ctx, sess := m.ctx, m.st.Session
	return func() tea.Msg {
		_, err := sess.Restore(ctx)
		return restoredMsg{err: err}
	}
}

func (m *appModel) loginCmd(email, password string, remember bool) tea.Cmd {
	ctx, sess := m.ctx, m.st.Session
	return func() tea.Msg {
		res, err := sess.Login(ctx, email, password, remember)
		return loginMsg{res: res, err: err}
	}
}

func (m *appModel) signupCmd(in api.RegisterInput) tea.Cmd {
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		_, err := c.Register(ctx, in)
		return signupMsg{email: in.Email, err: err}
	}
}

func (m *appModel) logoutCmd() tea.Cmd {
	ctx, sess := m.ctx, m.st.Session
	return func() tea.Msg {
		sess.Logout(ctx)
		return logoutMsg{}
	}
}

func (m *appModel) fetchTickets() tea.Cmd {
	s := m.st.Tickets
	seq, q := s.BeginFetch(), s.Query
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		items, err := c.ListTickets(ctx, q)
		return ticketsMsg{store: s, seq: seq, items: items, err: err}
	}
}

func (m *appModel) fetchTicket(id int) tea.Cmd {
	s := m.st.Tickets
	seq := s.BeginDetail()
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := state.LoadTicket(ctx, c, id)
		return ticketMsg{store: s, seq: seq, rec: rec, err: err}
	}
}

func (m *appModel) fetchFeatures() tea.Cmd {
	s := m.st.Features
	seq, q := s.BeginFetch(), s.Query
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		items, err := c.ListFeatureRequests(ctx, q)
		return featuresMsg{store: s, seq: seq, items: items, err: err}
	}
}

func (m *appModel) fetchFeature(id int) tea.Cmd {
	s := m.st.Features
	seq := s.BeginDetail()
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := state.LoadFeature(ctx, c, id)
		return featureMsg{store: s, seq: seq, rec: rec, err: err}
	}
}

func (m *appModel) fetchUsers() tea.Cmd {
	s := m.st.Users
	seq := s.BeginFetch()
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		items, err := c.ListUsers(ctx)
		return usersMsg{store: s, seq: seq, items: items, err: err}
	}
}

func (m *appModel) fetchStats() tea.Cmd {
	m.statsLoading = true
	ctx, st := m.ctx, m.st
	return func() tea.Msg {
		stats, err := st.LoadStats(ctx)
		return statsMsg{stats: stats, err: err}
	}
}

func (m *appModel) fetchSummary() tea.Cmd {
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		sum, err := c.DashboardSummary(ctx)
		return summaryMsg{sum: sum, err: err}
	}
}

func (m *appModel) saveTicket(p resource.Pending, patch api.TicketPatch) tea.Cmd {
	s := m.st.Tickets
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := c.UpdateTicket(ctx, p.ID, patch)
		return ticketSavedMsg{store: s, p: p, rec: rec, err: err}
	}
}

func (m *appModel) saveFeature(p resource.Pending, patch api.FeaturePatch) tea.Cmd {
	s := m.st.Features
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := c.UpdateFeatureRequest(ctx, p.ID, patch)
		return featureSavedMsg{store: s, p: p, rec: rec, err: err}
	}
}

func (m *appModel) saveUser(p resource.Pending, patch api.UserPatch) tea.Cmd {
	s := m.st.Users
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := c.UpdateUser(ctx, p.ID, patch)
		return userSavedMsg{store: s, p: p, rec: rec, err: err}
	}
}

func (m *appModel) createTicketCmd(in api.TicketInput) tea.Cmd {
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := c.CreateTicket(ctx, in)
		return ticketCreatedMsg{rec: rec, err: err}
	}
}

func (m *appModel) createFeatureCmd(in api.FeatureInput) tea.Cmd {
	ctx, c := m.ctx, m.st.API
	return func() tea.Msg {
		rec, err := c.CreateFeatureRequest(ctx, in)
		return featureCreatedMsg{rec: rec, err: err}
	}
}

// storeFor is the resource store results for kind are applied to.
func (m *appModel) storeFor(kind recordKind) any {
	switch kind {
	case kindFeature:
		return m.st.Features
	case kindUser:
		return m.st.Users
	}
	return m.st.Tickets
}

func (m *appModel) deleteCmd(kind recordKind, id int, fromDetail bool) tea.Cmd {
	ctx, c, s := m.ctx, m.st.API, m.storeFor(kind)
	return func() tea.Msg {
		var err error
		switch kind {
		case kindTicket:
			err = c.DeleteTicket(ctx, id)
		case kindFeature:
			err = c.DeleteFeatureRequest(ctx, id)
		case kindUser:
			err = c.DeleteUser(ctx, id)
		}
		return deletedMsg{store: s, kind: kind, id: id, fromDetail: fromDetail, err: err}
	}
}

func (m *appModel) commentCmd(kind recordKind, id int, content string) tea.Cmd {
	ctx, c, s := m.ctx, m.st.API, m.storeFor(kind)
	return func() tea.Msg {
		var (
			cm  model.Comment
			err error
		)
		if kind == kindFeature {
			cm, err = c.AddFeatureRequestComment(ctx, id, content)
		} else {
			cm, err = c.AddTicketComment(ctx, id, content)
		}
		return commentMsg{store: s, kind: kind, id: id, comment: cm, err: err}
	}
}

func (m *appModel) upvoteCmd(id int) tea.Cmd {
	ctx, c, s := m.ctx, m.st.API, m.st.Features
	return func() tea.Msg {
		res, err := c.Upvote(ctx, id)
		return upvoteMsg{store: s, id: id, res: res, err: err}
	}
}
