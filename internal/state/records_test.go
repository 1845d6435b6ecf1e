package state

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/Saurabhh-37/supportsync/internal/api/apitest"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

func TestLoadTicket_FetchesComments(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	tk := srv.AddTicket(u.ID, "Printer", model.TicketOpen, model.TicketLow)
	s := newState(t, srv, store.Store{Dir: t.TempDir()})
	ctx := context.Background()
	if _, err := s.Login(ctx, "ann@x.com", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := s.API.AddTicketComment(ctx, tk.ID, "tried turning it off"); err != nil {
		t.Fatalf("AddTicketComment: %v", err)
	}

	got, err := LoadTicket(ctx, s.API, tk.ID)
	if err != nil {
		t.Fatalf("LoadTicket: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Content != "tried turning it off" {
		t.Fatalf("comments = %#v", got.Comments)
	}
}

func TestLoadFeature_CommentFailureIsAnError(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	fr := srv.AddFeature(u.ID, "Dark mode")
	s := newState(t, srv, store.Store{Dir: t.TempDir()})
	ctx := context.Background()
	if _, err := s.Login(ctx, "ann@x.com", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	srv.Fail(http.MethodGet, "/api/feature-requests/"+strconv.Itoa(fr.ID)+"/comments", http.StatusInternalServerError, "boom")

	if _, err := LoadFeature(ctx, s.API, fr.ID); err == nil {
		t.Fatalf("expected an error")
	}
}
