package state

import (
	"context"
	"testing"
	"time"

	"github.com/Saurabhh-37/supportsync/internal/api/apitest"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/store"
)

func TestComputeStats(t *testing.T) {
	me := 4
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tickets := []model.Ticket{
		{ID: 1, Status: model.TicketNew, Priority: model.TicketHigh, CreatedAt: base},
		{ID: 2, Status: model.TicketClosed, Priority: model.TicketHigh, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Status: model.TicketInProgress, Priority: model.TicketLow, AssignedTo: &me, CreatedAt: base.Add(2 * time.Hour)},
	}
	features := []model.FeatureRequest{
		{ID: 1, Status: model.FeatureUnderReview, UpvotesCount: 1},
		{ID: 2, Status: model.FeatureProposed, UpvotesCount: 9},
	}
	st := ComputeStats(me, tickets, features)
	if st.OpenTickets != 2 || st.HighPriorityOpen != 1 || st.LowPriorityOpen != 1 {
		t.Fatalf("ticket counts: %#v", st)
	}
	if st.FeatureRequests != 2 || st.PendingFeatures != 1 || st.AssignedToMe != 1 {
		t.Fatalf("feature counts: %#v", st)
	}
	if st.TopFeatureRequests[0].ID != 2 || st.RecentTickets[0].ID != 3 {
		t.Fatalf("ordering: top=%d recent=%d", st.TopFeatureRequests[0].ID, st.RecentTickets[0].ID)
	}
}

func TestLoadStats_UsesVisibleRecords(t *testing.T) {
	srv := apitest.New(t)
	ann := srv.AddUser("ann", "ann@x.com", "pw", model.RoleUser)
	bob := srv.AddUser("bob", "bob@x.com", "pw", model.RoleUser)
	srv.AddTicket(ann.ID, "mine", model.TicketNew, model.TicketHigh)
	srv.AddTicket(bob.ID, "not mine", model.TicketNew, model.TicketHigh)
	srv.AddFeature(bob.ID, "dark mode")

	s := newState(t, srv, store.Store{Dir: t.TempDir()})
	ctx := context.Background()
	if _, err := s.Login(ctx, "ann@x.com", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	st, err := s.LoadStats(ctx)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if st.OpenTickets != 1 || st.FeatureRequests != 1 {
		t.Fatalf("stats: %#v", st)
	}
}
