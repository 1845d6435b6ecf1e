package tui

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Saurabhh-37/supportsync/internal/api/apitest"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

// harness drives appModel without a terminal: commands run inline and only
// the app's own messages are fed back into Update.
type harness struct {
	t   *testing.T
	srv *apitest.Server
	st  *state.State
	m   appModel
}

func newHarness(t *testing.T, srv *apitest.Server) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SUPPORTSYNC_CONFIG_DIR", dir)
	st := state.New(state.Options{BaseURL: srv.URL, Store: store.Store{Dir: dir}, PageSize: 20})
	return &harness{t: t, srv: srv, st: st}
}

func (h *harness) start() {
	h.t.Helper()
	h.m = newAppModel(context.Background(), h.st, Options{})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.m.Init())
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(appModel)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := h.collect(cmd, nil)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			h.t.Fatalf("update loop did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		next, cmd := h.m.Update(msg)
		h.m = next.(appModel)
		queue = h.collect(cmd, queue)
	}
}

func (h *harness) collect(cmd tea.Cmd, queue []tea.Msg) []tea.Msg {
	if cmd == nil {
		return queue
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			queue = h.collect(c, queue)
		}
		return queue
	}
	if isAppMsg(msg) {
		queue = append(queue, msg)
	}
	return queue
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case restoredMsg, loginMsg, signupMsg, logoutMsg,
		ticketsMsg, ticketMsg, featuresMsg, featureMsg, usersMsg,
		ticketSavedMsg, featureSavedMsg, userSavedMsg,
		ticketCreatedMsg, featureCreatedMsg, deletedMsg,
		commentMsg, upvoteMsg, statsMsg, summaryMsg:
		return true
	}
	return false
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(k tea.KeyType) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: k})
}

func (h *harness) login(email, password string) {
	h.t.Helper()
	if h.m.screen() != route.Login {
		h.t.Fatalf("expected the login screen, at %q", h.m.loc.Path)
	}
	h.typeText(email)
	h.press(tea.KeyEnter)
	h.typeText(password)
	h.press(tea.KeyEnter)
}

func (h *harness) wantPath(path string) {
	h.t.Helper()
	if h.m.loc.Path != path {
		h.t.Fatalf("at %q, want %q (flash=%q err=%q)", h.m.loc.Path, path, h.m.flash, h.m.errLine)
	}
}

func TestStart_LoggedOutShowsLogin(t *testing.T) {
	h := newHarness(t, apitest.New(t))
	h.start()

	h.wantPath(route.Login)
	if !h.m.ready || h.m.restoreErr != "" {
		t.Fatalf("ready=%v restoreErr=%q", h.m.ready, h.m.restoreErr)
	}
	if !strings.Contains(h.m.View(), "Log in") {
		t.Fatalf("login view:\n%s", h.m.View())
	}
}

func TestLogin_LandsOnDashboard(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	srv.AddTicket(u.ID, "Open one", model.TicketOpen, model.TicketHigh)
	h := newHarness(t, srv)
	h.start()

	h.login("ann@x.com", "pw")
	h.wantPath(route.Dashboard)
	if !strings.Contains(h.m.flash, "Welcome, ann") {
		t.Fatalf("flash = %q", h.m.flash)
	}
	if h.m.stats == nil || h.m.stats.OpenTickets != 1 {
		t.Fatalf("stats = %#v", h.m.stats)
	}
}

func TestLogin_BadPasswordStaysOnForm(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	h.start()

	h.login("ann@x.com", "wrong")
	h.wantPath(route.Login)
	if !strings.Contains(h.m.errLine, "Incorrect email or password") {
		t.Fatalf("errLine = %q", h.m.errLine)
	}
	if h.m.login.password.Value() != "" {
		t.Fatalf("password kept after a failed login")
	}
}

func TestTicketDetail_StatusThenDelete(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	srv.AddTicket(u.ID, "First", model.TicketNew, model.TicketLow)
	srv.AddTicket(u.ID, "Second", model.TicketNew, model.TicketLow)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")

	h.typeText("2")
	h.wantPath(route.Tickets)
	if n := len(h.m.tickets.Items()); n != 2 {
		t.Fatalf("list shows %d tickets", n)
	}

	id, ok := selectedID(&h.m.tickets)
	if !ok {
		t.Fatalf("no selection")
	}
	h.press(tea.KeyEnter)
	h.wantPath(route.TicketPath(id))
	if cur := h.st.Tickets.Current; cur == nil || cur.ID != id {
		t.Fatalf("detail not loaded: %#v", cur)
	}

	h.typeText("s")
	want := model.Next(model.TicketStatuses, model.TicketNew)
	if h.st.Tickets.Current.Status != want {
		t.Fatalf("local status = %q, want %q", h.st.Tickets.Current.Status, want)
	}
	if got, _ := srv.Ticket(id); got.Status != want {
		t.Fatalf("server status = %q, want %q", got.Status, want)
	}

	h.typeText("d")
	if h.m.modal == nil {
		t.Fatalf("delete did not ask for confirmation")
	}
	h.typeText("y")
	h.wantPath(route.Tickets)
	if _, ok := srv.Ticket(id); ok {
		t.Fatalf("ticket %d still on the server", id)
	}
	if _, ok := h.st.Tickets.Find(id); ok {
		t.Fatalf("ticket %d still in the store", id)
	}
	if !strings.Contains(h.m.flash, "deleted") {
		t.Fatalf("flash = %q", h.m.flash)
	}
}

func TestStaleResults_DroppedAfterLogout(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := srv.AddTicket(u.ID, "Keep", model.TicketOpen, model.TicketLow)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")
	h.typeText("2")

	h.typeText("d")
	if h.m.modal == nil {
		t.Fatalf("no modal")
	}
	pending := h.m.modal.onYes(&h.m)
	h.m.modal = nil
	if !h.m.busy {
		t.Fatalf("confirming a delete did not mark the model busy")
	}
	oldTickets := h.st.Tickets

	h.m.busy = false
	h.typeText("L")
	h.wantPath(route.Login)
	h.login("ann@x.com", "pw")
	h.typeText("2")
	if _, ok := h.st.Tickets.Find(tk.ID); !ok {
		t.Fatalf("ticket %d not listed after login", tk.ID)
	}

	h.send(pending())
	if _, ok := h.st.Tickets.Find(tk.ID); !ok {
		t.Fatalf("delete issued before logout removed ticket %d", tk.ID)
	}
	if strings.Contains(h.m.flash, "deleted") {
		t.Fatalf("flash = %q", h.m.flash)
	}

	h.send(commentMsg{store: oldTickets, kind: kindTicket, id: tk.ID, comment: model.Comment{ID: 99, Content: "late"}})
	if got, _ := h.st.Tickets.Find(tk.ID); len(got.Comments) != 0 {
		t.Fatalf("comment issued before logout applied: %#v", got.Comments)
	}
	if h.m.flash == "Comment added." {
		t.Fatalf("stale comment reported")
	}
}

func TestNewAppModel_BuildsWithoutTerminal(t *testing.T) {
	srv := apitest.New(t)
	h := newHarness(t, srv)
	m := newAppModel(context.Background(), h.st, Options{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	if v := next.(appModel).View(); v == "" {
		t.Fatalf("empty view")
	}
}

func TestDeleteModal_Cancel(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := srv.AddTicket(u.ID, "Keep", model.TicketOpen, model.TicketLow)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")
	h.typeText("2")

	h.typeText("d")
	if h.m.modal == nil {
		t.Fatalf("no modal")
	}
	h.press(tea.KeyEsc)
	if h.m.modal != nil {
		t.Fatalf("modal still open")
	}
	if _, ok := srv.Ticket(tk.ID); !ok {
		t.Fatalf("ticket deleted after cancel")
	}
	if n := srv.Calls(http.MethodDelete, "/api/tickets/"+itoa(tk.ID)); n != 0 {
		t.Fatalf("delete requests = %d", n)
	}
}

func TestAdminTab_RefusedForUsers(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")

	h.typeText("4")
	h.wantPath(route.Dashboard)
	if !strings.Contains(h.m.errLine, "only available to admins") {
		t.Fatalf("errLine = %q", h.m.errLine)
	}
}

func TestAdmin_LoadsSummaryAndTabs(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("root", "root@x.com", "pw", model.RoleAdmin)
	srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	h.start()
	h.login("root@x.com", "pw")

	h.typeText("4")
	h.wantPath(route.Admin)
	if h.m.summary == nil || h.m.summary.TotalCounts.Users != 2 {
		t.Fatalf("summary = %#v", h.m.summary)
	}
	h.press(tea.KeyTab)
	h.press(tea.KeyTab)
	if h.m.currentAdminTab() != adminUsers {
		t.Fatalf("tab = %v", h.m.currentAdminTab())
	}
	if n := len(h.st.Users.Items); n != 2 {
		t.Fatalf("users loaded = %d", n)
	}
}

func TestFeatureUpvote_OncePerUser(t *testing.T) {
	srv := apitest.New(t)
	owner := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	bo := srv.AddUser("bo", "bo@x.com", "pw", model.RoleUser)
	fr := srv.AddFeature(owner.ID, "Dark mode")
	h := newHarness(t, srv)
	h.start()
	h.login("bo@x.com", "pw")

	h.typeText("3")
	h.wantPath(route.Features)
	h.press(tea.KeyEnter)
	h.wantPath(route.FeaturePath(fr.ID))

	h.typeText("u")
	if !strings.Contains(h.m.flash, "upvoted successfully") {
		t.Fatalf("flash = %q err = %q", h.m.flash, h.m.errLine)
	}
	cur := h.st.Features.Current
	if cur == nil || cur.UpvotesCount != 1 || !slices.Contains(cur.UpvotedBy, bo.ID) {
		t.Fatalf("after upvote: %#v", cur)
	}

	h.typeText("u")
	if !strings.Contains(h.m.errLine, "already upvoted") {
		t.Fatalf("errLine = %q", h.m.errLine)
	}
	if n := srv.Calls(http.MethodPost, "/api/feature-requests/"+itoa(fr.ID)+"/upvote"); n != 1 {
		t.Fatalf("upvote requests = %d", n)
	}
}

func TestRestore_TransientFailureKeepsToken(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	ctx := context.Background()
	if err := h.st.Store.SetToken(ctx, srv.TokenFor(u.ID)); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	srv.Fail(http.MethodGet, "/api/auth/profile", http.StatusServiceUnavailable, "maintenance")

	h.start()
	h.wantPath(route.Login)
	if !strings.Contains(h.m.restoreErr, "Could not reach the server") {
		t.Fatalf("restoreErr = %q", h.m.restoreErr)
	}
	if tok, _ := h.st.Store.Token(ctx); tok == "" {
		t.Fatalf("token dropped on a transient failure")
	}

	h.press(tea.KeyCtrlR)
	h.wantPath(route.Dashboard)
	if h.m.restoreErr != "" {
		t.Fatalf("restoreErr kept: %q", h.m.restoreErr)
	}
}

func TestRestore_ReopensSavedRoute(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	if err := h.st.Store.SetToken(context.Background(), srv.TokenFor(u.ID)); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := h.st.Store.SaveTUIState(&store.TUIState{Version: 1, Route: route.Features}); err != nil {
		t.Fatalf("SaveTUIState: %v", err)
	}

	h.start()
	h.wantPath(route.Features)
}

func TestSessionExpiry_ReturnsAfterLogin(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	srv.AddTicket(u.ID, "One", model.TicketOpen, model.TicketLow)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")
	h.typeText("2")
	h.wantPath(route.Tickets)

	srv.Fail(http.MethodGet, "/api/tickets", http.StatusUnauthorized, "Could not validate credentials")
	h.typeText("r")
	h.wantPath(route.Login)
	if !strings.Contains(h.m.flash, "session has expired") {
		t.Fatalf("flash = %q", h.m.flash)
	}
	if len(h.st.Tickets.Items) != 0 {
		t.Fatalf("records kept after teardown")
	}

	h.login("ann@x.com", "pw")
	h.wantPath(route.Tickets)
	if len(h.st.Tickets.Items) != 1 {
		t.Fatalf("tickets = %d", len(h.st.Tickets.Items))
	}
}

func TestCreateTicket_ValidatesThenOpensDetail(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")
	h.typeText("2")
	h.typeText("n")
	h.wantPath(route.TicketCreate)

	h.press(tea.KeyCtrlS)
	h.wantPath(route.TicketCreate)
	if len(h.m.create.fieldErr) == 0 {
		t.Fatalf("empty form submitted")
	}
	if n := srv.Calls(http.MethodPost, "/api/tickets"); n != 0 {
		t.Fatalf("create requests = %d", n)
	}

	h.typeText("Broken laptop")
	h.press(tea.KeyTab)
	h.typeText("Screen flickers")
	h.press(tea.KeyCtrlS)
	if !strings.HasPrefix(h.m.loc.Path, route.Tickets+"/") {
		t.Fatalf("at %q after create (err=%q)", h.m.loc.Path, h.m.errLine)
	}
	if cur := h.st.Tickets.Current; cur == nil || cur.Title != "Broken laptop" {
		t.Fatalf("detail = %#v", cur)
	}
}

func TestLogout_ClearsState(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	srv.AddTicket(u.ID, "One", model.TicketOpen, model.TicketLow)
	h := newHarness(t, srv)
	h.start()
	h.login("ann@x.com", "pw")
	h.typeText("2")

	h.typeText("L")
	h.wantPath(route.Login)
	if len(h.st.Tickets.Items) != 0 {
		t.Fatalf("tickets kept after logout")
	}
	if tok, _ := h.st.Store.Token(context.Background()); tok != "" {
		t.Fatalf("token kept after logout")
	}
}

func TestCycle(t *testing.T) {
	vals := []string{"a", "b"}
	got := []string{cycle(vals, ""), cycle(vals, "a"), cycle(vals, "b")}
	if !slices.Equal(got, []string{"a", "b", ""}) {
		t.Fatalf("cycle = %v", got)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
