package perm

import (
	"testing"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

func user(id int, role model.Role) *model.User {
	return &model.User{ID: id, Role: role}
}

func TestRoleGates(t *testing.T) {
	cases := []struct {
		role           model.Role
		assign, manage bool
	}{
		{model.RoleUser, false, false},
		{model.RoleAgent, true, false},
		{model.RoleAdmin, true, true},
	}
	for _, c := range cases {
		u := user(1, c.role)
		if CanAssign(u) != c.assign || CanManageUsers(u) != c.manage || CanViewDashboardSummary(u) != c.manage {
			t.Fatalf("%s: assign=%v manage=%v", c.role, CanAssign(u), CanManageUsers(u))
		}
	}
	if CanAssign(nil) || CanManageUsers(nil) {
		t.Fatalf("nil user must be denied")
	}
}

func TestTicketRules(t *testing.T) {
	owner := user(1, model.RoleUser)
	stranger := user(2, model.RoleUser)
	assignee := user(3, model.RoleUser)
	agent := user(4, model.RoleAgent)
	admin := user(5, model.RoleAdmin)
	three := 3
	tk := model.Ticket{ID: 10, UserID: 1, AssignedTo: &three}

	for _, u := range []*model.User{owner, assignee, agent, admin} {
		if !CanEditTicket(u, tk) {
			t.Fatalf("user %d should edit", u.ID)
		}
	}
	if CanEditTicket(stranger, tk) || CanEditTicket(nil, tk) {
		t.Fatalf("stranger must not edit")
	}

	if !CanDeleteTicket(owner, tk) || !CanDeleteTicket(admin, tk) {
		t.Fatalf("owner and admin delete")
	}
	for _, u := range []*model.User{stranger, assignee, agent} {
		if CanDeleteTicket(u, tk) {
			t.Fatalf("user %d must not delete", u.ID)
		}
	}
}

func TestFeatureAndAttachmentRules(t *testing.T) {
	fr := model.FeatureRequest{ID: 1, RequesterID: 7}
	if !CanEditFeature(user(7, model.RoleUser), fr) || !CanEditFeature(user(1, model.RoleAdmin), fr) {
		t.Fatalf("requester and admin edit")
	}
	if CanEditFeature(user(8, model.RoleAgent), fr) {
		t.Fatalf("agents do not edit other people's feature requests")
	}
	a := model.Attachment{ID: 1, UserID: 7}
	if !CanDeleteAttachment(user(7, model.RoleUser), a) || CanDeleteAttachment(user(8, model.RoleAgent), a) {
		t.Fatalf("attachment delete rules")
	}
}
