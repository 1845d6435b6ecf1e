package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/route"
)

const appName = "SupportSync"

func (m appModel) View() string {
	if m.modal != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, renderConfirmModal(m.width, m.modal))
	}
	return strings.Join([]string{
		m.viewHeader(),
		"",
		m.viewBody(),
		m.viewStatus(),
		m.viewFooter(),
	}, "\n")
}

type navTab struct {
	key, label, path string
	admin            bool
}

var navTabs = []navTab{
	{"1", "Dashboard", route.Dashboard, false},
	{"2", "Tickets", route.Tickets, false},
	{"3", "Features", route.Features, false},
	{"4", "Admin", route.Admin, true},
	{"5", "Settings", route.Settings, false},
}

func (m *appModel) viewHeader() string {
	title := styleTitle().Render(appName)
	sess := m.st.Session.State()
	if !sess.IsAuthenticated() {
		return title
	}
	var tabs []string
	for _, t := range navTabs {
		if t.admin && !sess.IsAdmin() {
			continue
		}
		label := t.key + " " + t.label
		if m.inSection(t.path) {
			tabs = append(tabs, styleActiveTab().Render(label))
		} else {
			tabs = append(tabs, styleTab().Render(label))
		}
	}
	who := styleMuted().Render(fmt.Sprintf("%s (%s)", sess.User.DisplayName(), sess.Role()))
	left := title + "  " + strings.Join(tabs, "")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(who), 1)
	return left + strings.Repeat(" ", gap) + who
}

// inSection reports whether the current screen belongs under the nav tab at
// path.
func (m *appModel) inSection(path string) bool {
	switch path {
	case route.Tickets:
		return strings.HasPrefix(m.loc.Path, route.Tickets)
	case route.Features:
		return strings.HasPrefix(m.loc.Path, route.Features)
	case route.Admin:
		return m.loc.Path == route.Admin || m.loc.Path == route.Users
	}
	return m.loc.Path == path
}

func (m *appModel) viewStatus() string {
	switch {
	case m.loading():
		return m.spinner.View() + styleMuted().Render(" Loading…")
	case m.errLine != "":
		return styleError().Render(m.errLine)
	case m.storeErr() != "":
		return styleError().Render(m.storeErr())
	case m.flash != "":
		return styleFlash().Render(m.flash)
	}
	return ""
}

func (m *appModel) viewFooter() string {
	var help string
	switch {
	case m.inputMode == inputSearch:
		help = "enter: search   esc: cancel"
	case m.inputMode == inputAssign:
		help = "enter: assign   esc: cancel"
	case m.commenting:
		help = "ctrl+s: post comment   esc: cancel"
	default:
		help = m.screenHelp()
	}
	return styleMuted().Render(help)
}

func (m *appModel) screenHelp() string {
	const global = "1-5: sections   L: logout   q: quit"
	switch m.screen() {
	case "":
		return "q: quit"
	case route.Login:
		h := "tab: next field   space: toggle remember   enter: log in   ctrl+n: sign up   ctrl+c: quit"
		if m.restoreErr != "" {
			h = "ctrl+r: retry connection   " + h
		}
		return h
	case route.Signup:
		return "tab: next field   enter: create account   esc: back to login   ctrl+c: quit"
	case route.TicketCreate, route.FeatureCreate:
		return "tab: next field   ←/→: priority   ctrl+s: submit   esc: cancel"
	case route.Tickets, route.Features:
		return "/: search   s: status   p: priority   [/]: page   n: new   enter: open   d: delete   r: refresh\n" + global
	case route.Admin, route.Users:
		h := "tab: switch tab   enter: open   d: delete   r: refresh"
		if m.currentAdminTab() == adminUsers {
			h += "   R: cycle role"
		} else {
			h += "   /: search   s: status   p: priority   [/]: page"
		}
		return h + "\n" + global
	case route.TicketDetail:
		h := "s: status   p: priority   c: comment   d: delete   r: refresh   esc: back"
		if m.st.Session.State().IsAgent() {
			h = "s: status   p: priority   a: assign   c: comment   d: delete   r: refresh   esc: back"
		}
		return h + "\n" + global
	case route.FeatureDetail:
		h := "s: status   p: priority   c: comment   d: delete   r: refresh   esc: back"
		if f := m.st.Features.Current; f != nil && !f.HasUpvoted(m.userID()) {
			h = "u: upvote   " + h
		}
		return h + "\n" + global
	case route.Settings:
		return "t: toggle appearance\n" + global
	case route.Dashboard:
		return "r: refresh\n" + global
	}
	return global
}

func (m *appModel) viewBody() string {
	if !m.ready {
		return m.spinner.View() + " Connecting to " + m.st.API.BaseURL() + "…"
	}
	switch m.screen() {
	case route.Login:
		return m.viewLogin()
	case route.Signup:
		return styleTitle().Render("Create an account") + "\n\n" + m.signup.view()
	case route.Dashboard:
		return m.viewDashboard()
	case route.Tickets:
		return m.viewList(m.ticketList(), len(m.st.Tickets.Items), m.st.Tickets.Loading)
	case route.Features:
		return m.viewList(m.featureList(), len(m.st.Features.Items), m.st.Features.Loading)
	case route.TicketCreate:
		return styleTitle().Render("New ticket") + "\n\n" + m.create.view()
	case route.FeatureCreate:
		return styleTitle().Render("New feature request") + "\n\n" + m.create.view()
	case route.TicketDetail, route.FeatureDetail:
		return m.viewDetail()
	case route.Admin, route.Users:
		return m.viewAdmin()
	case route.Settings:
		return m.viewSettings()
	}
	return ""
}

func (m *appModel) viewLogin() string {
	var b strings.Builder
	b.WriteString(styleTitle().Render("Log in"))
	b.WriteString("\n\n")
	if m.restoreErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(colorWarn).Render(m.restoreErr))
		b.WriteString("\n")
		b.WriteString(styleMuted().Render("Your saved session was kept. Press ctrl+r to retry, or log in again."))
		b.WriteString("\n\n")
	}
	b.WriteString(m.login.view())
	return b.String()
}

func (m *appModel) viewList(lv listView, n int, loading bool) string {
	var lines []string
	if lv.query != nil {
		q := lv.query()
		filters := []string{
			"status: " + orAll(q.status),
			"priority: " + orAll(q.priority),
		}
		if q.search != "" {
			filters = append(filters, fmt.Sprintf("search: %q", q.search))
		}
		filters = append(filters, fmt.Sprintf("page %d", q.page))
		lines = append(lines, styleLabel().Render(strings.Join(filters, " · ")))
	}
	switch {
	case n == 0 && !loading:
		lines = append(lines, "", styleMuted().Render("No "+lv.noun+"s found."))
	default:
		lines = append(lines, lv.list.View())
	}
	if m.inputMode == inputSearch {
		lines = append(lines, "Search: "+m.input.View())
	}
	return strings.Join(lines, "\n")
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

func (m *appModel) viewAdmin() string {
	var lines []string
	if s := m.summary; s != nil {
		c := s.TotalCounts
		lines = append(lines, styleLabel().Render(fmt.Sprintf(
			"Tickets %d · Feature requests %d · Users %d · Comments %d · Attachments %d",
			c.Tickets, c.FeatureRequests, c.Users, c.Comments, c.Attachments)))
		if len(s.TicketStatus) > 0 {
			lines = append(lines, styleMuted().Render("Ticket status: "+formatCounts(s.TicketStatus)))
		}
	}
	var tabs []string
	for i, n := range []string{"Tickets", "Feature requests", "Users"} {
		if adminTab(i) == m.currentAdminTab() {
			tabs = append(tabs, styleActiveTab().Render(n))
		} else {
			tabs = append(tabs, styleTab().Render(n))
		}
	}
	lines = append(lines, strings.Join(tabs, " "))
	switch m.currentAdminTab() {
	case adminFeatures:
		lines = append(lines, m.viewList(m.featureList(), len(m.st.Features.Items), m.st.Features.Loading))
	case adminUsers:
		lines = append(lines, m.viewList(m.userList(), len(m.st.Users.Items), m.st.Users.Loading))
	default:
		lines = append(lines, m.viewList(m.ticketList(), len(m.st.Tickets.Items), m.st.Tickets.Loading))
	}
	return strings.Join(lines, "\n")
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	return strings.Join(parts, " · ")
}

func (m *appModel) viewDashboard() string {
	s := m.stats
	if s == nil {
		return ""
	}
	row := func(label string, v int) string {
		return styleLabel().Render(fmt.Sprintf("%-24s", label)) + fmt.Sprint(v)
	}
	lines := []string{
		styleTitle().Render("Your overview"),
		"",
		row("Open tickets", s.OpenTickets),
		row("High priority (open)", s.HighPriorityOpen),
		row("Low priority (open)", s.LowPriorityOpen),
		row("Assigned to me", s.AssignedToMe),
		row("Feature requests", s.FeatureRequests),
		row("Pending review", s.PendingFeatures),
		"",
		styleTitle().Render("Top feature requests"),
	}
	if len(s.TopFeatureRequests) == 0 {
		lines = append(lines, styleMuted().Render("  none yet"))
	}
	for _, f := range s.TopFeatureRequests {
		lines = append(lines, fmt.Sprintf("  ▲ %-4d #%d %s", f.UpvotesCount, f.ID, f.Title))
	}
	lines = append(lines, "", styleTitle().Render("Recent tickets"))
	if len(s.RecentTickets) == 0 {
		lines = append(lines, styleMuted().Render("  none yet"))
	}
	for _, t := range s.RecentTickets {
		lines = append(lines, fmt.Sprintf("  #%d %s", t.ID, t.Title)+
			styleMuted().Render(" · "+t.Status.Label()+" · "+t.Priority.Label()))
	}
	return strings.Join(lines, "\n")
}

func (m *appModel) viewSettings() string {
	sess := m.st.Session.State()
	row := func(label, v string) string {
		return "  " + styleLabel().Render(fmt.Sprintf("%-14s", label)) + v
	}
	lines := []string{styleTitle().Render("Account")}
	if u := sess.User; u != nil {
		lines = append(lines,
			row("Username", u.Username),
			row("Email", u.Email),
			row("Role", string(u.Role)),
		)
	}
	if c, err := m.st.Session.Claims(); err == nil && !c.ExpiresAt.IsZero() {
		lines = append(lines, row("Session until", c.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
	lines = append(lines, "", styleTitle().Render("Client"),
		row("API", m.st.API.BaseURL()),
		row("Data dir", m.st.Store.Dir),
		row("Appearance", m.profile),
	)
	return strings.Join(lines, "\n")
}

func (m *appModel) viewDetail() string {
	var lines []string
	if (m.screen() == route.TicketDetail && m.st.Tickets.Current == nil) ||
		(m.screen() == route.FeatureDetail && m.st.Features.Current == nil) {
		return ""
	}
	lines = append(lines, m.detail.View())
	if m.commenting {
		lines = append(lines, styleLabel().Render("New comment"), m.comment.View())
	}
	if m.inputMode == inputAssign {
		lines = append(lines, "Assign to: "+m.input.View())
	}
	return strings.Join(lines, "\n")
}

// refreshDetail re-renders the open record into the viewport.
func (m *appModel) refreshDetail() {
	switch m.screen() {
	case route.TicketDetail:
		if t := m.st.Tickets.Current; t != nil {
			m.detail.SetContent(ticketContent(*t, m.detail.Width))
		}
	case route.FeatureDetail:
		if f := m.st.Features.Current; f != nil {
			m.detail.SetContent(featureContent(*f, m.userID(), m.detail.Width))
		}
	}
}

func metaLine(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, styleLabel().Render(pairs[i]+": ")+pairs[i+1])
	}
	return strings.Join(parts, "   ")
}

func ticketContent(t model.Ticket, width int) string {
	assignee := "unassigned"
	switch {
	case t.AssignedUser != nil:
		assignee = t.AssignedUser.DisplayName()
	case t.AssignedTo != nil:
		assignee = fmt.Sprintf("user #%d", *t.AssignedTo)
	}
	reporter := fmt.Sprintf("user #%d", t.UserID)
	if t.User != nil {
		reporter = t.User.DisplayName()
	}
	lines := []string{
		styleTitle().Render(fmt.Sprintf("#%d %s", t.ID, t.Title)),
		metaLine("Status", t.Status.Label(), "Priority", t.Priority.Label()),
		metaLine("Reporter", reporter, "Assignee", assignee),
		metaLine("Created", shortDate(t.CreatedAt), "Updated", shortDate(t.UpdatedAt)),
		"",
		orNone(renderMarkdown(t.Description, width)),
		"",
	}
	lines = append(lines, commentLines(t.Comments, width)...)
	return strings.Join(lines, "\n")
}

func featureContent(f model.FeatureRequest, userID, width int) string {
	requester := fmt.Sprintf("user #%d", f.RequesterID)
	if f.Requester != nil {
		requester = f.Requester.DisplayName()
	}
	votes := fmt.Sprintf("%d", f.UpvotesCount)
	if f.HasUpvoted(userID) {
		votes += " (you upvoted)"
	}
	lines := []string{
		styleTitle().Render(fmt.Sprintf("#%d %s", f.ID, f.Title)),
		metaLine("Status", string(f.Status), "Priority", string(f.Priority)),
		metaLine("Requester", requester, "Upvotes", votes),
		metaLine("Created", shortDate(f.CreatedAt)),
		"",
		orNone(renderMarkdown(f.Description, width)),
		"",
	}
	lines = append(lines, commentLines(f.Comments, width)...)
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return styleMuted().Render("No description.")
	}
	return s
}

func commentLines(cs []model.Comment, width int) []string {
	lines := []string{styleTitle().Render(fmt.Sprintf("Comments (%d)", len(cs)))}
	if len(cs) == 0 {
		return append(lines, styleMuted().Render("No comments yet."))
	}
	for _, c := range cs {
		who := fmt.Sprintf("user #%d", c.UserID)
		if c.User != nil {
			who = c.User.DisplayName()
		}
		lines = append(lines,
			"",
			styleLabel().Render(who+" · "+c.CreatedAt.Local().Format("2006-01-02 15:04")),
			renderMarkdownCompact(c.Content, width-2),
		)
	}
	return lines
}
