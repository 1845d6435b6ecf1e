package apitest

import (
	"testing"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

func TestTokenFor_SameSecondReloginAfterRevoke(t *testing.T) {
	s := New(t)
	u := s.AddUser("a", "a@x.com", "pw", model.RoleUser)

	first := s.TokenFor(u.ID)
	s.Revoke(first)
	second := s.TokenFor(u.ID)
	if first == second {
		t.Fatalf("tokens issued in the same second are identical")
	}
	if _, err := s.verify(first); err == nil {
		t.Fatalf("revoked token accepted")
	}
	got, err := s.verify(second)
	if err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("verified user = %d, want %d", got.ID, u.ID)
	}
}
