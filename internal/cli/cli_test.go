package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/api/apitest"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/state"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

// testEnv points the CLI at an in-memory API and a private config dir.
type testEnv struct {
	srv *apitest.Server
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	srv := apitest.New(t)
	t.Setenv("SUPPORTSYNC_CONFIG_DIR", dir)
	t.Setenv("SUPPORTSYNC_API_URL", srv.URL)
	t.Setenv("SUPPORTSYNC_FORMAT", "")
	return &testEnv{srv: srv, dir: dir}
}

func runCLI(t *testing.T, stdin string, args ...string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustRun(t *testing.T, stdin string, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("supportsync %v failed: %v\nstderr:\n%s", args, err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("stdout is not a JSON envelope: %v\n%s", err, stdout)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("envelope without data: %s", stdout)
	}
	return env
}

func mustFail(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	_, stderr, err := runCLI(t, stdin, args...)
	if err == nil {
		t.Fatalf("supportsync %v: expected failure", args)
	}
	return string(stderr)
}

func (e *testEnv) login(t *testing.T, email, password string) {
	t.Helper()
	mustRun(t, password+"\n", "login", "--email", email, "--password-stdin")
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", env["data"])
	}
	return m
}

func dataIDs(t *testing.T, env map[string]any) []int {
	t.Helper()
	xs, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("data is %T, want array", env["data"])
	}
	var ids []int
	for _, x := range xs {
		if m, ok := x.(map[string]any); ok {
			if f, ok := m["id"].(float64); ok {
				ids = append(ids, int(f))
			}
		}
	}
	return ids
}

func TestLogin_PersistsSessionForLaterCommands(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)

	env := mustRun(t, "pw\n", "login", "--email", "ann@x.com", "--password-stdin", "--remember")
	if got := dataMap(t, env)["landing"]; got != "/dashboard" {
		t.Fatalf("landing = %v", got)
	}

	who := dataMap(t, mustRun(t, "", "whoami"))
	user, _ := who["user"].(map[string]any)
	if user["email"] != "ann@x.com" {
		t.Fatalf("whoami = %#v", who)
	}

	s := store.Store{Dir: e.dir}
	if email, _ := s.RememberedEmail(context.Background()); email != "ann@x.com" {
		t.Fatalf("remembered email = %q", email)
	}
}

func TestLogin_WrongPasswordShowsServerMessage(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)

	stderr := mustFail(t, "nope\n", "login", "--email", "ann@x.com", "--password-stdin")
	if !strings.Contains(stderr, "Incorrect email or password") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCommands_RequireLogin(t *testing.T) {
	newTestEnv(t)
	stderr := mustFail(t, "", "tickets", "list")
	if !strings.Contains(stderr, "login required") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestLogin_RefusedWhileLoggedIn(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "ann@x.com", "pw")

	stderr := mustFail(t, "pw\n", "login", "--email", "ann@x.com", "--password-stdin")
	if !strings.Contains(stderr, "already logged in as ann") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestUsers_AdminOnly(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("bo", "bo@x.com", "pw", model.RoleAgent)
	e.login(t, "bo@x.com", "pw")

	stderr := mustFail(t, "", "users", "list")
	if !strings.Contains(stderr, "admins only") {
		t.Fatalf("stderr = %q", stderr)
	}
	if n := e.srv.Calls(http.MethodGet, "/users"); n != 0 {
		t.Fatalf("guard let %d requests through", n)
	}
}

func TestUsers_ListAsAdmin(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("root", "root@x.com", "pw", model.RoleAdmin)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "root@x.com", "pw")

	if ids := dataIDs(t, mustRun(t, "", "users", "list")); len(ids) != 2 {
		t.Fatalf("users = %v", ids)
	}
	env := mustRun(t, "", "users", "list", "--role", "user")
	if ids := dataIDs(t, env); len(ids) != 1 {
		t.Fatalf("filtered users = %v", ids)
	}
}

func TestTickets_CreateDeleteList(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "ann@x.com", "pw")

	a := dataMap(t, mustRun(t, "", "tickets", "create", "--title", "VPN down", "--description", "since 9am", "--priority", "high"))
	b := dataMap(t, mustRun(t, "", "tickets", "create", "--title", "Printer jam", "--description", "3rd floor"))
	aID, bID := int(a["id"].(float64)), int(b["id"].(float64))
	if b["priority"] != "medium" {
		t.Fatalf("default priority = %v", b["priority"])
	}

	mustRun(t, "", "tickets", "delete", "#"+itoa(aID), "--yes")

	ids := dataIDs(t, mustRun(t, "", "tickets", "list"))
	if len(ids) != 1 || ids[0] != bID {
		t.Fatalf("after delete: %v", ids)
	}
}

func TestTickets_DeleteNeedsConfirmation(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := e.srv.AddTicket(u.ID, "Keep me", model.TicketOpen, model.TicketLow)
	e.login(t, "ann@x.com", "pw")

	stderr := mustFail(t, "n\n", "tickets", "delete", itoa(tk.ID))
	if !strings.Contains(stderr, "aborted") {
		t.Fatalf("stderr = %q", stderr)
	}
	if _, ok := e.srv.Ticket(tk.ID); !ok {
		t.Fatalf("ticket deleted without confirmation")
	}
}

func TestTickets_CreateValidatesLocally(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "ann@x.com", "pw")

	mustFail(t, "", "tickets", "create", "--title", "", "--description", "x")
	if n := e.srv.Calls(http.MethodPost, "/api/tickets"); n != 0 {
		t.Fatalf("invalid ticket reached the server %d times", n)
	}
}

func TestTickets_UpdateAndComment(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := e.srv.AddTicket(u.ID, "Slow wifi", model.TicketNew, model.TicketLow)
	e.login(t, "ann@x.com", "pw")

	got := dataMap(t, mustRun(t, "", "tickets", "update", itoa(tk.ID), "--status", "in_progress", "--priority", "high"))
	if got["status"] != "in_progress" || got["priority"] != "high" {
		t.Fatalf("update = %#v", got)
	}
	mustRun(t, "", "tickets", "comment", itoa(tk.ID), "--body", "rebooted the router")
	env := mustRun(t, "", "tickets", "comments", itoa(tk.ID))
	if xs, _ := env["data"].([]any); len(xs) != 1 {
		t.Fatalf("comments = %#v", env["data"])
	}
}

func TestTickets_CachedListServesLastFetch(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.srv.AddTicket(u.ID, "One", model.TicketOpen, model.TicketLow)
	e.login(t, "ann@x.com", "pw")

	mustRun(t, "", "tickets", "list", "--status", "open")
	before := e.srv.Calls(http.MethodGet, "/api/tickets")

	env := mustRun(t, "", "tickets", "list", "--status", "open", "--cached")
	if ids := dataIDs(t, env); len(ids) != 1 {
		t.Fatalf("cached = %v", ids)
	}
	meta, _ := env["meta"].(map[string]any)
	if meta["cachedAt"] == nil {
		t.Fatalf("cached list without cachedAt: %#v", meta)
	}
	if after := e.srv.Calls(http.MethodGet, "/api/tickets"); after != before {
		t.Fatalf("--cached contacted the server")
	}

	stderr := mustFail(t, "", "tickets", "list", "--status", "closed", "--cached")
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("cache miss stderr = %q", stderr)
	}
}

func TestCachedList_GuardedWithoutServer(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("root", "root@x.com", "pw", model.RoleAdmin)
	e.srv.AddUser("bo", "bo@x.com", "pw", model.RoleAgent)
	e.login(t, "root@x.com", "pw")

	mustRun(t, "", "users", "list")
	before := e.srv.Calls(http.MethodGet, "/users")
	if ids := dataIDs(t, mustRun(t, "", "users", "list", "--cached")); len(ids) != 2 {
		t.Fatalf("cached users = %v", ids)
	}
	if n := e.srv.Calls(http.MethodGet, "/users"); n != before {
		t.Fatalf("--cached contacted the server")
	}
	mustRun(t, "", "logout")

	ctx := context.Background()
	s := store.Store{Dir: e.dir}
	seed := []model.User{{ID: 1, Username: "root", Role: model.RoleAdmin}}
	if err := s.PutCache(ctx, state.CacheUsers, api.ListQuery{}.Key(), seed); err != nil {
		t.Fatalf("PutCache: %v", err)
	}
	if stderr := mustFail(t, "", "users", "list", "--cached"); !strings.Contains(stderr, "login required") {
		t.Fatalf("logged out stderr = %q", stderr)
	}

	e.login(t, "bo@x.com", "pw")
	if err := s.PutCache(ctx, state.CacheUsers, api.ListQuery{}.Key(), seed); err != nil {
		t.Fatalf("PutCache: %v", err)
	}
	if stderr := mustFail(t, "", "users", "list", "--cached"); !strings.Contains(stderr, "admins only") {
		t.Fatalf("agent stderr = %q", stderr)
	}
}

func TestFeatures_UpvoteOnce(t *testing.T) {
	e := newTestEnv(t)
	owner := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.srv.AddUser("bo", "bo@x.com", "pw", model.RoleUser)
	fr := e.srv.AddFeature(owner.ID, "Dark mode")
	e.login(t, "bo@x.com", "pw")

	got := dataMap(t, mustRun(t, "", "features", "upvote", itoa(fr.ID)))
	if got["upvotes_count"].(float64) != 1 {
		t.Fatalf("upvote = %#v", got)
	}
	stderr := mustFail(t, "", "features", "upvote", itoa(fr.ID))
	if !strings.Contains(stderr, "already upvoted") {
		t.Fatalf("stderr = %q", stderr)
	}
	if n := e.srv.Calls(http.MethodPost, "/api/feature-requests/"+itoa(fr.ID)+"/upvote"); n != 1 {
		t.Fatalf("upvote requests = %d, want 1", n)
	}
}

func TestUnauthorizedEndsSession(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "ann@x.com", "pw")

	e.srv.Fail(http.MethodGet, "/api/tickets", http.StatusUnauthorized, "Could not validate credentials")
	stderr := mustFail(t, "", "tickets", "list")
	if !strings.Contains(stderr, "session expired") {
		t.Fatalf("stderr = %q", stderr)
	}
	tok, _ := store.Store{Dir: e.dir}.Token(context.Background())
	if tok != "" {
		t.Fatalf("token kept after 401")
	}
	if stderr := mustFail(t, "", "tickets", "list"); !strings.Contains(stderr, "login required") {
		t.Fatalf("next command: %q", stderr)
	}
}

func TestTableFormat(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.srv.AddTicket(u.ID, "Table row", model.TicketOpen, model.TicketHigh)
	e.login(t, "ann@x.com", "pw")

	stdout, stderr, err := runCLI(t, "", "--format", "table", "tickets", "list")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, stderr)
	}
	out := string(stdout)
	if !strings.Contains(out, "TITLE") || !strings.Contains(out, "Table row") {
		t.Fatalf("table output:\n%s", out)
	}
}

func TestDashboard_PersonalForUsers(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.srv.AddTicket(u.ID, "a", model.TicketOpen, model.TicketHigh)
	e.srv.AddTicket(u.ID, "b", model.TicketClosed, model.TicketHigh)
	e.login(t, "ann@x.com", "pw")

	got := dataMap(t, mustRun(t, "", "dashboard"))
	if got["open_tickets"].(float64) != 1 || got["high_priority_open"].(float64) != 1 {
		t.Fatalf("dashboard = %#v", got)
	}
	if n := e.srv.Calls(http.MethodGet, "/api/dashboard/summary"); n != 0 {
		t.Fatalf("non-admin asked for the admin summary")
	}
}

func TestConfig_SetGet(t *testing.T) {
	newTestEnv(t)

	mustRun(t, "", "config", "set", "pageSize", "25")
	got := dataMap(t, mustRun(t, "", "config", "get", "pageSize"))
	if got["pageSize"] != "25" {
		t.Fatalf("pageSize = %#v", got)
	}
	if stderr := mustFail(t, "", "config", "set", "pageSize", "500"); !strings.Contains(stderr, "between 1 and 100") {
		t.Fatalf("stderr = %q", stderr)
	}
	all := dataMap(t, mustRun(t, "", "config", "get"))
	for _, k := range store.ConfigKeys() {
		if _, ok := all[k]; !ok {
			t.Fatalf("config get missing %q: %#v", k, all)
		}
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	e := newTestEnv(t)
	e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	e.login(t, "ann@x.com", "pw")

	mustRun(t, "", "logout")
	if n := e.srv.Calls(http.MethodPost, "/api/auth/logout"); n != 1 {
		t.Fatalf("server logout calls = %d", n)
	}
	if stderr := mustFail(t, "", "whoami"); !strings.Contains(stderr, "login required") {
		t.Fatalf("whoami after logout: %q", stderr)
	}
}

func leafCommands(c *cobra.Command) []*cobra.Command {
	if !c.HasSubCommands() {
		return []*cobra.Command{c}
	}
	var out []*cobra.Command
	for _, sub := range c.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		out = append(out, leafCommands(sub)...)
	}
	return out
}

func TestCommandSurface(t *testing.T) {
	root := NewRootCmd()

	var persistent []string
	root.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		persistent = append(persistent, f.Name)
	})
	for _, name := range []string{"api-url", "format", "log-level", "log-file"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("missing persistent flag --%s (have %v)", name, persistent)
		}
	}

	for _, c := range leafCommands(root) {
		if c.RunE == nil && c.Run == nil {
			t.Errorf("%s has no action", c.CommandPath())
		}
		if strings.TrimSpace(c.Short) == "" {
			t.Errorf("%s has no short help", c.CommandPath())
		}
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if strings.TrimSpace(f.Usage) == "" {
				t.Errorf("%s --%s has no usage text", c.CommandPath(), f.Name)
			}
		})
	}

	for _, path := range [][]string{
		{"tickets", "delete"},
		{"features", "delete"},
		{"users", "delete"},
	} {
		c, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if c.Flags().ShorthandLookup("y") == nil {
			t.Errorf("%s lacks -y", c.CommandPath())
		}
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestPublish_WritesTicketPages(t *testing.T) {
	e := newTestEnv(t)
	u := e.srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := e.srv.AddTicket(u.ID, "Laptop fan", model.TicketOpen, model.TicketLow)
	e.login(t, "ann@x.com", "pw")
	mustRun(t, "", "tickets", "comment", itoa(tk.ID), "--body", "very loud")

	out := t.TempDir()
	got := dataMap(t, mustRun(t, "", "publish", "tickets", "--to", out))
	written, _ := got["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("written = %#v", got)
	}
	b, err := os.ReadFile(filepath.Join(out, "tickets", itoa(tk.ID)+".md"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(b), "Laptop fan") || !strings.Contains(string(b), "very loud") {
		t.Fatalf("page:\n%s", b)
	}

	stderr := mustFail(t, "", "publish", "ticket", itoa(tk.ID), "--to", out, "--overwrite=false")
	if !strings.Contains(stderr, "file exists") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestDocs(t *testing.T) {
	newTestEnv(t)

	topics, _ := dataMap(t, mustRun(t, "", "docs"))["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("no topics")
	}
	stdout, _, err := runCLI(t, "", "docs", "roles", "--raw")
	if err != nil || !strings.HasPrefix(string(stdout), "# Roles") {
		t.Fatalf("docs roles --raw: %v\n%s", err, stdout)
	}
	if stderr := mustFail(t, "", "docs", "nope"); !strings.Contains(stderr, "unknown docs topic") {
		t.Fatalf("stderr = %q", stderr)
	}
}
