package state

import (
	"context"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
)

// LoadTicket fetches a ticket and, when the record arrives without them, its
// comments. It touches no store, so it is safe to call from a tea.Cmd.
func LoadTicket(ctx context.Context, c *api.Client, id int) (model.Ticket, error) {
	t, err := c.GetTicket(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if len(t.Comments) == 0 {
		cs, err := c.TicketComments(ctx, id)
		if err != nil {
			return model.Ticket{}, err
		}
		t.Comments = cs
	}
	return t, nil
}

func LoadFeature(ctx context.Context, c *api.Client, id int) (model.FeatureRequest, error) {
	f, err := c.GetFeatureRequest(ctx, id)
	if err != nil {
		return model.FeatureRequest{}, err
	}
	if len(f.Comments) == 0 {
		cs, err := c.FeatureRequestComments(ctx, id)
		if err != nil {
			return model.FeatureRequest{}, err
		}
		f.Comments = cs
	}
	return f, nil
}
