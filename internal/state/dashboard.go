package state

import (
	"context"
	"slices"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
)

// statsWindow is how many records the personal dashboard counts over.
const statsWindow = 100

// Stats is the personal dashboard, computed client-side from the caller's
// visible tickets and feature requests.
type Stats struct {
	OpenTickets        int                    `json:"open_tickets"`
	HighPriorityOpen   int                    `json:"high_priority_open"`
	LowPriorityOpen    int                    `json:"low_priority_open"`
	FeatureRequests    int                    `json:"feature_requests"`
	PendingFeatures    int                    `json:"pending_feature_requests"`
	TopFeatureRequests []model.FeatureRequest `json:"top_feature_requests"`
	AssignedToMe       int                    `json:"assigned_to_me,omitempty"`
	RecentTickets      []model.Ticket         `json:"recent_tickets"`
}

func ComputeStats(userID int, tickets []model.Ticket, features []model.FeatureRequest) Stats {
	var st Stats
	for _, t := range tickets {
		if t.AssignedTo != nil && *t.AssignedTo == userID {
			st.AssignedToMe++
		}
		if t.Status == model.TicketClosed {
			continue
		}
		st.OpenTickets++
		switch t.Priority {
		case model.TicketHigh:
			st.HighPriorityOpen++
		case model.TicketLow:
			st.LowPriorityOpen++
		}
	}
	st.FeatureRequests = len(features)
	for _, fr := range features {
		if fr.Status == model.FeatureUnderReview {
			st.PendingFeatures++
		}
	}

	top := slices.Clone(features)
	slices.SortStableFunc(top, func(a, b model.FeatureRequest) int { return b.UpvotesCount - a.UpvotesCount })
	st.TopFeatureRequests = top[:min(5, len(top))]

	recent := slices.Clone(tickets)
	slices.SortStableFunc(recent, func(a, b model.Ticket) int { return b.CreatedAt.Compare(a.CreatedAt) })
	st.RecentTickets = recent[:min(5, len(recent))]
	return st
}

// LoadStats fetches what the personal dashboard needs.
func (s *State) LoadStats(ctx context.Context) (Stats, error) {
	q := api.ListQuery{Limit: statsWindow}
	tickets, err := s.API.ListTickets(ctx, q)
	if err != nil {
		return Stats{}, err
	}
	features, err := s.API.ListFeatureRequests(ctx, q)
	if err != nil {
		return Stats{}, err
	}
	var uid int
	if u := s.Session.State().User; u != nil {
		uid = u.ID
	}
	return ComputeStats(uid, tickets, features), nil
}
