package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/api/apitest"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	srv *apitest.Server
	clk *fakeClock
	st  store.Store
	m   *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		srv: apitest.New(t),
		clk: &fakeClock{t: time.Now()},
		st:  store.Store{Dir: t.TempDir()},
	}
	f.m = f.manager()
	return f
}

// manager builds a fresh Manager over the same store, like a new CLI invocation.
func (f *fixture) manager() *Manager {
	m := New(Options{Store: f.st, Now: f.clk.Now})
	m.SetAPI(api.New(api.Options{BaseURL: f.srv.URL, Tokens: m}))
	return m
}

const loginPath = "/api/auth/login"

func TestLogin_LockoutAfterThreeFailures_ThenSucceedsAfterWindow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "right-pw", model.RoleUser)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err := f.m.Login(ctx, "a@x.com", "wrong", false)
		var le *LoginError
		if !errors.As(err, &le) {
			t.Fatalf("attempt %d: expected LoginError, got %v", i, err)
		}
		if le.Message != "Incorrect email or password" {
			t.Fatalf("attempt %d message = %q", i, le.Message)
		}
	}
	_, err := f.m.Login(ctx, "a@x.com", "wrong", false)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("third failure: expected ErrTooManyAttempts, got %v", err)
	}
	if err.Error() != "Too many failed login attempts. Please try again in 5 minutes." {
		t.Fatalf("lockout message = %q", err.Error())
	}

	// Fourth attempt, even with the right password, never reaches the server.
	f.clk.Advance(time.Minute)
	_, err = f.m.Login(ctx, "a@x.com", "right-pw", false)
	var locked *LockedOutError
	if !errors.As(err, &locked) {
		t.Fatalf("expected LockedOutError, got %v", err)
	}
	if !strings.Contains(err.Error(), "240 seconds") {
		t.Fatalf("locked message = %q", err.Error())
	}
	if n := f.srv.Calls(http.MethodPost, loginPath); n != 3 {
		t.Fatalf("server saw %d login calls, want 3", n)
	}
	if f.m.State().IsAuthenticated() {
		t.Fatalf("must not be authenticated while locked out")
	}

	f.clk.Advance(4*time.Minute + time.Second)
	res, err := f.m.Login(ctx, "a@x.com", "right-pw", false)
	if err != nil {
		t.Fatalf("login after lockout: %v", err)
	}
	if res.Landing != "/dashboard" {
		t.Fatalf("landing = %q", res.Landing)
	}
	if !f.m.State().IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
	if l, _ := f.st.LoadLockout(ctx); l.Failures != 0 || !l.Until.IsZero() {
		t.Fatalf("lockout not reset: %#v", l)
	}
}

func TestLogin_AdminLandsOnAdmin(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("root", "root@x.com", "pw-123", model.RoleAdmin)

	res, err := f.m.Login(context.Background(), "root@x.com", "pw-123", false)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Landing != "/admin" || !f.m.State().IsAdmin() {
		t.Fatalf("landing = %q state = %#v", res.Landing, f.m.State())
	}
}

func TestLockout_SpansManagers(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "right-pw", model.RoleUser)
	ctx := context.Background()

	for i := 0; i < MaxLoginAttempts; i++ {
		_, _ = f.manager().Login(ctx, "a@x.com", "wrong", false)
	}
	_, err := f.manager().Login(ctx, "a@x.com", "right-pw", false)
	var locked *LockedOutError
	if !errors.As(err, &locked) {
		t.Fatalf("expected lockout to persist across managers, got %v", err)
	}
	if d, _ := f.manager().Lockout(ctx); d <= 0 || d > LockoutDuration {
		t.Fatalf("Lockout() = %v", d)
	}
}

func TestLogin_RememberEmail(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
	ctx := context.Background()

	if _, err := f.m.Login(ctx, " a@x.com ", "pw-123", true); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := f.m.RememberedEmail(ctx); got != "a@x.com" {
		t.Fatalf("remembered = %q", got)
	}
	f.m.Logout(ctx)
	if got := f.m.RememberedEmail(ctx); got != "a@x.com" {
		t.Fatalf("logout must keep remembered email, got %q", got)
	}
	if _, err := f.m.Login(ctx, "a@x.com", "pw-123", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := f.m.RememberedEmail(ctx); got != "" {
		t.Fatalf("login without remember should forget, got %q", got)
	}
}

func TestLogin_ProfileWithoutRoleIsFailure(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "pw-123", "")
	ctx := context.Background()

	_, err := f.m.Login(ctx, "a@x.com", "pw-123", false)
	var le *LoginError
	if !errors.As(err, &le) || le.Message != "Invalid email or password" {
		t.Fatalf("expected generic LoginError, got %v", err)
	}
	if tok, _ := f.st.Token(ctx); tok != "" || f.m.Token() != "" {
		t.Fatalf("token must not survive a failed login")
	}
	if l, _ := f.st.LoadLockout(ctx); l.Failures != 1 {
		t.Fatalf("failures = %d", l.Failures)
	}
}

func TestLogout_ClearsStateEvenWhenServerFails(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
	ctx := context.Background()
	if _, err := f.m.Login(ctx, "a@x.com", "pw-123", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.st.PutCache(ctx, "tickets", "-", []int{1}); err != nil {
		t.Fatalf("PutCache: %v", err)
	}

	f.srv.Fail(http.MethodPost, "/api/auth/logout", http.StatusInternalServerError, "boom")
	f.m.Logout(ctx)

	if f.m.State().IsAuthenticated() || f.m.State().Status != Unauthenticated {
		t.Fatalf("expected unauthenticated, got %#v", f.m.State())
	}
	if tok, _ := f.st.Token(ctx); tok != "" {
		t.Fatalf("residual token %q", tok)
	}
	var out []int
	if _, ok, _ := f.st.GetCache(ctx, "tickets", "-", &out); ok {
		t.Fatalf("cache should be cleared on logout")
	}
}

func TestLogout_ClearsStateWhenServerUnreachable(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
	ctx := context.Background()
	if _, err := f.m.Login(ctx, "a@x.com", "pw-123", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.srv.Close()

	f.m.Logout(ctx)
	if f.m.State().IsAuthenticated() || f.m.Token() != "" {
		t.Fatalf("expected local state cleared")
	}
	if tok, _ := f.st.Token(ctx); tok != "" {
		t.Fatalf("residual token %q", tok)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)
		st, err := f.m.Restore(ctx)
		if err != nil || st.Status != Unauthenticated {
			t.Fatalf("Restore = %#v, %v", st, err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		f := newFixture(t)
		u := f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleAgent)
		_ = f.st.SetToken(ctx, f.srv.TokenFor(u.ID))
		st, err := f.m.Restore(ctx)
		if err != nil || !st.IsAuthenticated() || !st.IsAgent() || st.IsAdmin() {
			t.Fatalf("Restore = %#v, %v", st, err)
		}
	})

	t.Run("rejected token is discarded", func(t *testing.T) {
		f := newFixture(t)
		u := f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
		tok := f.srv.TokenFor(u.ID)
		f.srv.Revoke(tok)
		_ = f.st.SetToken(ctx, tok)
		st, err := f.m.Restore(ctx)
		if err != nil || st.IsAuthenticated() {
			t.Fatalf("Restore = %#v, %v", st, err)
		}
		if got, _ := f.st.Token(ctx); got != "" {
			t.Fatalf("token should be discarded")
		}
	})

	t.Run("transient failure keeps token", func(t *testing.T) {
		f := newFixture(t)
		u := f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
		tok := f.srv.TokenFor(u.ID)
		_ = f.st.SetToken(ctx, tok)
		f.srv.Fail(http.MethodGet, "/api/auth/profile", http.StatusServiceUnavailable, "")
		st, err := f.m.Restore(ctx)
		if api.KindOf(err) != api.KindServer || st.IsAuthenticated() {
			t.Fatalf("Restore = %#v, %v", st, err)
		}
		if got, _ := f.st.Token(ctx); got != tok {
			t.Fatalf("token must be kept on transient failure")
		}
		// Next start succeeds.
		st, err = f.manager().Restore(ctx)
		if err != nil || !st.IsAuthenticated() {
			t.Fatalf("second Restore = %#v, %v", st, err)
		}
	})

	t.Run("expired token skips the network", func(t *testing.T) {
		f := newFixture(t)
		u := f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
		_ = f.st.SetToken(ctx, f.srv.ExpiredTokenFor(u.ID))
		st, err := f.m.Restore(ctx)
		if err != nil || st.IsAuthenticated() {
			t.Fatalf("Restore = %#v, %v", st, err)
		}
		if n := f.srv.Calls(http.MethodGet, "/api/auth/profile"); n != 0 {
			t.Fatalf("profile called %d times", n)
		}
		if got, _ := f.st.Token(ctx); got != "" {
			t.Fatalf("expired token should be discarded")
		}
	})
}

func TestClaims(t *testing.T) {
	f := newFixture(t)
	u := f.srv.AddUser("a", "a@x.com", "pw-123", model.RoleUser)
	if _, err := f.m.Claims(); err == nil {
		t.Fatalf("expected error without token")
	}
	if _, err := f.m.Login(context.Background(), "a@x.com", "pw-123", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	c, err := f.m.Claims()
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if c.Subject != u.Email || c.Expired(time.Now()) || !c.Expired(time.Now().Add(2*time.Hour)) {
		t.Fatalf("claims = %#v", c)
	}
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResumeCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if st, err := f.manager().ResumeCached(ctx); err != nil || st.IsAuthenticated() {
		t.Fatalf("no token: state=%+v err=%v", st, err)
	}

	f.srv.AddUser("a", "a@x.com", "pw", model.RoleAgent)
	if _, err := f.m.Login(ctx, "a@x.com", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	profiles := f.srv.Calls(http.MethodGet, "/api/auth/profile")

	m := f.manager()
	st, err := m.ResumeCached(ctx)
	if err != nil {
		t.Fatalf("ResumeCached: %v", err)
	}
	if !st.IsAuthenticated() || st.User.Email != "a@x.com" || st.Role() != model.RoleAgent {
		t.Fatalf("state = %+v", st)
	}
	if m.Token() == "" {
		t.Fatalf("token not loaded")
	}
	if n := f.srv.Calls(http.MethodGet, "/api/auth/profile"); n != profiles {
		t.Fatalf("ResumeCached contacted the server")
	}

	f.clk.Advance(2 * time.Hour)
	st, err = f.manager().ResumeCached(ctx)
	if err != nil || st.IsAuthenticated() {
		t.Fatalf("expired: state=%+v err=%v", st, err)
	}
	if tok, _ := f.st.Token(ctx); tok != "" {
		t.Fatalf("expired token kept")
	}
}

func TestLogout_DropsCachedProfile(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("a", "a@x.com", "pw", model.RoleUser)
	ctx := context.Background()
	if _, err := f.m.Login(ctx, "a@x.com", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.m.Logout(ctx)

	var u model.User
	if _, ok, err := f.st.GetCache(ctx, CacheProfile, profileKey, &u); err != nil || ok {
		t.Fatalf("profile cache after logout: ok=%v err=%v", ok, err)
	}
}
