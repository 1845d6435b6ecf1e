// Package perm mirrors the server's permission rules so the UI only offers
// actions the server will accept. The server stays authoritative.
package perm

import "github.com/Saurabhh-37/supportsync/internal/model"

// CanAssign reports whether u may assign tickets (agents and admins).
func CanAssign(u *model.User) bool {
	return u != nil && u.Role.IsAgent()
}

func CanManageUsers(u *model.User) bool {
	return u != nil && u.Role.IsAdmin()
}

// CanViewDashboardSummary gates the server-wide summary.
func CanViewDashboardSummary(u *model.User) bool {
	return CanManageUsers(u)
}

func isAssignee(u *model.User, t model.Ticket) bool {
	return t.AssignedTo != nil && *t.AssignedTo == u.ID
}

// CanEditTicket covers title/description/status/priority changes: the creator,
// the assignee, and any agent or admin.
func CanEditTicket(u *model.User, t model.Ticket) bool {
	if u == nil {
		return false
	}
	return t.UserID == u.ID || isAssignee(u, t) || u.Role.IsAgent()
}

// CanDeleteTicket allows the creator or an admin.
func CanDeleteTicket(u *model.User, t model.Ticket) bool {
	if u == nil {
		return false
	}
	return t.UserID == u.ID || u.Role.IsAdmin()
}

// CanEditFeature allows the requester or an admin; deletes follow the same rule.
func CanEditFeature(u *model.User, fr model.FeatureRequest) bool {
	if u == nil {
		return false
	}
	return fr.RequesterID == u.ID || u.Role.IsAdmin()
}

func CanDeleteAttachment(u *model.User, a model.Attachment) bool {
	if u == nil {
		return false
	}
	return a.UserID == u.ID || u.Role.IsAdmin()
}
