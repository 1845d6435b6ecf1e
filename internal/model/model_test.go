package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTicketStatus_AcceptsVariants(t *testing.T) {
	cases := map[string]TicketStatus{
		"new":         TicketNew,
		"OPEN":        TicketOpen,
		"in-progress": TicketInProgress,
		"In Progress": TicketInProgress,
		" resolved ":  TicketResolved,
	}
	for in, want := range cases {
		got, err := ParseTicketStatus(in)
		if err != nil {
			t.Fatalf("ParseTicketStatus(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTicketStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse_RejectsInventedValues(t *testing.T) {
	if _, err := ParseTicketStatus("escalated"); !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum, got %v", err)
	}
	if _, err := ParseTicketPriority(""); !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum for empty, got %v", err)
	}
	if _, err := ParseFeatureStatus("done"); !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum, got %v", err)
	}
}

func TestParseFeatureStatus_KeepsWireCasing(t *testing.T) {
	got, err := ParseFeatureStatus("under_review")
	if err != nil {
		t.Fatalf("ParseFeatureStatus: %v", err)
	}
	if got != FeatureUnderReview {
		t.Fatalf("got %q, want %q", got, FeatureUnderReview)
	}
	p, err := ParseFeaturePriority("high")
	if err != nil || p != FeatureHigh {
		t.Fatalf("ParseFeaturePriority(high) = %q, %v", p, err)
	}
}

func TestRolePredicates(t *testing.T) {
	if RoleUser.IsAgent() || RoleUser.IsAdmin() {
		t.Fatalf("user must be neither agent nor admin")
	}
	if !RoleAgent.IsAgent() || RoleAgent.IsAdmin() {
		t.Fatalf("agent must be agent and not admin")
	}
	if !RoleAdmin.IsAgent() || !RoleAdmin.IsAdmin() {
		t.Fatalf("admin must be both agent and admin")
	}
}

func TestNext_Wraps(t *testing.T) {
	if got := Next(TicketPriorities, TicketHigh); got != TicketLow {
		t.Fatalf("Next(high) = %q, want low", got)
	}
	if got := Next(TicketStatuses, TicketStatus("bogus")); got != TicketNew {
		t.Fatalf("Next(unknown) = %q, want first", got)
	}
}

func TestFeatureRequest_DecodesServerPayload(t *testing.T) {
	raw := `{"id":7,"title":"Dark mode","description":"pls","status":"Under Review","priority":"High",
		"created_at":"2026-01-02T03:04:05Z","requester_id":3,"upvotes_count":2,"upvoted_by":[3,9]}`
	var fr FeatureRequest
	if err := json.Unmarshal([]byte(raw), &fr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fr.Status != FeatureUnderReview || fr.Priority != FeatureHigh {
		t.Fatalf("unexpected enums: %#v", fr)
	}
	if !fr.HasUpvoted(9) || fr.HasUpvoted(4) {
		t.Fatalf("HasUpvoted mismatch: %v", fr.UpvotedBy)
	}
}

func TestUserDisplayName(t *testing.T) {
	var nilUser *User
	if got := nilUser.DisplayName(); got != "-" {
		t.Fatalf("nil user = %q", got)
	}
	u := &User{ID: 4, Email: "a@x.com"}
	if got := u.DisplayName(); got != "a@x.com" {
		t.Fatalf("got %q", got)
	}
	u.Username = "alice"
	if got := u.DisplayName(); got != "alice" {
		t.Fatalf("got %q", got)
	}
}
