// Package route declares the client's screens and decides, per navigation,
// whether a screen may be shown for the current session.
package route

import (
	"strconv"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/session"
)

type Requirement int

const (
	None Requirement = iota
	Authenticated
	AdminOnly
)

func (r Requirement) String() string {
	switch r {
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "adminOnly"
	default:
		return "none"
	}
}

const (
	Login         = "/login"
	Signup        = "/signup"
	Root          = "/"
	Dashboard     = "/dashboard"
	Tickets       = "/tickets"
	TicketCreate  = "/tickets/create"
	TicketDetail  = "/tickets/:id"
	Features      = "/feature-requests"
	FeatureCreate = "/feature-requests/create"
	FeatureDetail = "/feature-requests/:id"
	Settings      = "/settings"
	Users         = "/users"
	Admin         = "/admin"
)

type Route struct {
	Pattern     string
	Title       string
	Requirement Requirement
}

// Table is every known screen. Static segments win over :id.
var Table = []Route{
	{Login, "Login", None},
	{Signup, "Sign up", None},
	{Dashboard, "Dashboard", Authenticated},
	{Tickets, "Tickets", Authenticated},
	{TicketCreate, "New ticket", Authenticated},
	{TicketDetail, "Ticket", Authenticated},
	{Features, "Feature requests", Authenticated},
	{FeatureCreate, "New feature request", Authenticated},
	{FeatureDetail, "Feature request", Authenticated},
	{Settings, "Settings", Authenticated},
	{Users, "Users", AdminOnly},
	{Admin, "Admin", AdminOnly},
}

// Location is a concrete path matched against the table.
type Location struct {
	Route Route
	Path  string
	ID    int
}

func TicketPath(id int) string { return Tickets + "/" + strconv.Itoa(id) }

func FeaturePath(id int) string { return Features + "/" + strconv.Itoa(id) }

// Clean strips query strings and trailing slashes.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// Match resolves path against the table.
func Match(path string) (Location, bool) {
	path = Clean(path)
	var param *Location
	for _, r := range Table {
		if r.Pattern == path {
			return Location{Route: r, Path: path}, true
		}
		if param == nil {
			if id, ok := matchID(r.Pattern, path); ok {
				param = &Location{Route: r, Path: path, ID: id}
			}
		}
	}
	if param != nil {
		return *param, true
	}
	return Location{}, false
}

func matchID(pattern, path string) (int, bool) {
	prefix, ok := strings.CutSuffix(pattern, "/:id")
	if !ok {
		return 0, false
	}
	rest, ok := strings.CutPrefix(path, prefix+"/")
	if !ok || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow    bool
	Redirect string
	// From is the originally requested path when the redirect is to login.
	From string
	// Teardown asks the caller to discard a residual token before showing the screen.
	Teardown bool
	Reason   string
}

const (
	ReasonLoginRequired = "login required"
	ReasonAdminOnly     = "admins only"
	ReasonLoggedIn      = "already logged in"
	ReasonNotFound      = "no such page"
)

// Guard decides whether path may render for sess. hasToken reports whether a
// token is held even though sess may not be authenticated.
func Guard(sess session.State, path string, hasToken bool) Decision {
	path = Clean(path)
	if path == Root {
		return Decision{Redirect: Dashboard}
	}
	loc, ok := Match(path)
	if !ok {
		return Decision{Redirect: Dashboard, Reason: ReasonNotFound}
	}
	switch loc.Route.Requirement {
	case None:
		if sess.IsAuthenticated() {
			return Decision{Redirect: Dashboard, Reason: ReasonLoggedIn}
		}
		// A token lingering on a public screen is not trusted.
		return Decision{Allow: true, Teardown: hasToken}
	case AdminOnly:
		if !sess.IsAuthenticated() {
			return Decision{Redirect: Login, From: path, Reason: ReasonLoginRequired}
		}
		if !sess.IsAdmin() {
			return Decision{Redirect: Dashboard, Reason: ReasonAdminOnly}
		}
		return Decision{Allow: true}
	default:
		if !sess.IsAuthenticated() {
			return Decision{Redirect: Login, From: path, Reason: ReasonLoginRequired}
		}
		return Decision{Allow: true}
	}
}
