package route

import "github.com/Saurabhh-37/supportsync/internal/session"

const maxRedirects = 4

// Result is where a navigation ended up.
type Result struct {
	Location Location
	// Teardown is set when the session must be discarded before rendering.
	Teardown bool
	// Reason is the first redirect's reason, empty when the target was allowed as-is.
	Reason string
}

// Navigator resolves navigations through Guard. It remembers the destination a
// login redirect interrupted and a back stack for list/detail hops.
type Navigator struct {
	cur      Location
	intended string
	back     []string
}

func (n *Navigator) Current() Location { return n.cur }

// Intended is the path to return to after login, if any.
func (n *Navigator) Intended() string { return n.intended }

// Go navigates to path, pushing the current location on the back stack.
func (n *Navigator) Go(sess session.State, path string, hasToken bool) Result {
	prev := n.cur.Path
	res := n.resolve(sess, path, hasToken)
	if prev != "" && prev != res.Location.Path && res.Location.Route.Requirement != None {
		n.back = append(n.back, prev)
	}
	n.cur = res.Location
	return res
}

// Replace navigates without touching the back stack.
func (n *Navigator) Replace(sess session.State, path string, hasToken bool) Result {
	res := n.resolve(sess, path, hasToken)
	n.cur = res.Location
	return res
}

// Back pops the back stack, or goes to fallback when it is empty. Entries for
// records that no longer exist are skipped by the caller passing skip.
func (n *Navigator) Back(sess session.State, fallback string, hasToken bool, skip func(string) bool) Result {
	for len(n.back) > 0 {
		p := n.back[len(n.back)-1]
		n.back = n.back[:len(n.back)-1]
		if skip != nil && skip(p) {
			continue
		}
		return n.Replace(sess, p, hasToken)
	}
	return n.Replace(sess, fallback, hasToken)
}

// AfterLogin sends the user to the interrupted destination when there is one,
// else to landing. The back stack starts fresh.
func (n *Navigator) AfterLogin(sess session.State, landing string) Result {
	target := landing
	if n.intended != "" {
		target = n.intended
	}
	n.intended = ""
	n.back = nil
	return n.Replace(sess, target, true)
}

// Reset forgets history, e.g. on logout.
func (n *Navigator) Reset() {
	n.back = nil
	n.intended = ""
	n.cur = Location{}
}

func (n *Navigator) resolve(sess session.State, path string, hasToken bool) Result {
	var res Result
	for i := 0; i <= maxRedirects; i++ {
		d := Guard(sess, path, hasToken)
		if d.Teardown {
			res.Teardown = true
			hasToken = false
		}
		if res.Reason == "" {
			res.Reason = d.Reason
		}
		if d.Allow {
			res.Location, _ = Match(path)
			return res
		}
		if d.From != "" {
			n.intended = d.From
		}
		path = d.Redirect
	}
	// Unreachable with the current table; land on login rather than loop.
	res.Location, _ = Match(Login)
	return res
}
