package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/session"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// guardError is a command refused by the route guard.
type guardError struct {
	path     string
	decision route.Decision
	sess     session.State
}

func (e guardError) Error() string {
	switch e.decision.Reason {
	case route.ReasonLoginRequired:
		return "login required: run `supportsync login` first"
	case route.ReasonAdminOnly:
		return "admins only: " + e.path + " requires the admin role"
	case route.ReasonLoggedIn:
		return fmt.Sprintf("already logged in as %s; run `supportsync logout` first", e.sess.User.DisplayName())
	}
	return fmt.Sprintf("%s: redirected to %s", e.decision.Reason, e.decision.Redirect)
}

type errSessionExpired struct {
	err error
}

func (e errSessionExpired) Error() string {
	return "session expired or revoked; run `supportsync login` again"
}

func (e errSessionExpired) Unwrap() error { return e.err }

func parseID(kind, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, raw)
	}
	return id, nil
}
