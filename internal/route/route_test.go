package route

import (
	"testing"

	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/session"
)

func sess(role model.Role) session.State {
	return session.State{User: &model.User{ID: 1, Email: "a@x.com", Role: role}, Status: session.Authenticated}
}

var anon = session.State{Status: session.Unauthenticated}

func TestGuard_AdminOnlyRedirectsNonAdmins(t *testing.T) {
	for _, r := range Table {
		if r.Requirement != AdminOnly {
			continue
		}
		for _, role := range []model.Role{model.RoleUser, model.RoleAgent} {
			d := Guard(sess(role), r.Pattern, true)
			if d.Allow || d.Redirect != Dashboard || d.Reason != ReasonAdminOnly {
				t.Fatalf("%s as %s: %#v", r.Pattern, role, d)
			}
		}
		if d := Guard(sess(model.RoleAdmin), r.Pattern, true); !d.Allow {
			t.Fatalf("%s as admin: %#v", r.Pattern, d)
		}
	}
}

func TestNavigator_AdminOnlyRedirectRegardlessOfHistory(t *testing.T) {
	histories := [][]string{
		nil,
		{Tickets, "/tickets/3"},
		{Settings, Features, "/feature-requests/9", Dashboard},
	}
	for _, h := range histories {
		var n Navigator
		s := sess(model.RoleAgent)
		for _, p := range h {
			n.Go(s, p, true)
		}
		for _, target := range []string{Users, Admin} {
			res := n.Go(s, target, true)
			if res.Location.Path != Dashboard || res.Reason != ReasonAdminOnly {
				t.Fatalf("history %v -> %s: %#v", h, target, res)
			}
		}
	}
}

func TestGuard_ProtectedRoutesRequireLogin(t *testing.T) {
	for _, p := range []string{Dashboard, Tickets, "/tickets/12", TicketCreate, Features, "/feature-requests/4", Settings, Users, Admin} {
		d := Guard(anon, p, false)
		if d.Allow || d.Redirect != Login || d.From != p || d.Reason != ReasonLoginRequired {
			t.Fatalf("%s: %#v", p, d)
		}
	}
}

func TestGuard_PublicRoutes(t *testing.T) {
	// Authenticated users are sent away from login/signup without losing the session.
	d := Guard(sess(model.RoleUser), Login, true)
	if d.Allow || d.Redirect != Dashboard || d.Teardown {
		t.Fatalf("authenticated on /login: %#v", d)
	}
	// A residual token on a public screen is discarded.
	d = Guard(anon, Signup, true)
	if !d.Allow || !d.Teardown {
		t.Fatalf("stale token on /signup: %#v", d)
	}
	d = Guard(anon, Login, false)
	if !d.Allow || d.Teardown {
		t.Fatalf("anon on /login: %#v", d)
	}
}

func TestGuard_RootAndUnknownGoToDashboard(t *testing.T) {
	for _, p := range []string{"/", "", "/nope", "/tickets/abc", "/tickets/1/extra", "/tickets/0"} {
		d := Guard(sess(model.RoleUser), p, true)
		if d.Redirect != Dashboard {
			t.Fatalf("%q: %#v", p, d)
		}
	}
}

func TestMatch(t *testing.T) {
	loc, ok := Match("/tickets/create/")
	if !ok || loc.Route.Pattern != TicketCreate {
		t.Fatalf("create: %#v", loc)
	}
	loc, ok = Match("/feature-requests/42?tab=comments")
	if !ok || loc.Route.Pattern != FeatureDetail || loc.ID != 42 || loc.Path != "/feature-requests/42" {
		t.Fatalf("detail: %#v", loc)
	}
	if TicketPath(7) != "/tickets/7" || FeaturePath(8) != "/feature-requests/8" {
		t.Fatalf("path builders")
	}
}

func TestNavigator_ReturnsToIntendedAfterLogin(t *testing.T) {
	var n Navigator
	res := n.Go(anon, "/tickets/5", false)
	if res.Location.Path != Login || n.Intended() != "/tickets/5" {
		t.Fatalf("expected login with intended, got %#v intended=%q", res, n.Intended())
	}
	res = n.AfterLogin(sess(model.RoleUser), Dashboard)
	if res.Location.Path != "/tickets/5" || res.Location.ID != 5 {
		t.Fatalf("after login: %#v", res)
	}
	if n.Intended() != "" {
		t.Fatalf("intended should be consumed")
	}

	// An intended admin page still goes through the guard.
	n.Reset()
	n.Go(anon, Users, false)
	res = n.AfterLogin(sess(model.RoleUser), Dashboard)
	if res.Location.Path != Dashboard {
		t.Fatalf("non-admin intended /users: %#v", res)
	}

	n.Reset()
	n.Go(anon, Login, false)
	res = n.AfterLogin(sess(model.RoleAdmin), Admin)
	if res.Location.Path != Admin {
		t.Fatalf("plain login should use landing: %#v", res)
	}
}

func TestNavigator_PublicRouteWithStaleTokenTearsDown(t *testing.T) {
	var n Navigator
	res := n.Go(anon, "/dashboard", true)
	if res.Location.Path != Login || !res.Teardown {
		t.Fatalf("expected login with teardown, got %#v", res)
	}
}

func TestNavigator_BackStack(t *testing.T) {
	var n Navigator
	s := sess(model.RoleUser)
	n.Go(s, Tickets, true)
	n.Go(s, "/tickets/1", true)
	n.Go(s, "/tickets/2", true)

	// /tickets/1 was deleted meanwhile.
	res := n.Back(s, Tickets, true, func(p string) bool { return p == "/tickets/1" })
	if res.Location.Path != Tickets {
		t.Fatalf("back: %#v", res)
	}
	res = n.Back(s, Dashboard, true, nil)
	if res.Location.Path != Dashboard {
		t.Fatalf("empty stack should use fallback: %#v", res)
	}
	if n.Current().Path != Dashboard {
		t.Fatalf("current = %#v", n.Current())
	}
}
