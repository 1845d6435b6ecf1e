package cli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/perm"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary counts (server-wide for admins, personal otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Dashboard)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			if perm.CanViewDashboardSummary(st.Session.State().User) {
				sum, err := st.API.DashboardSummary(ctx)
				if err != nil {
					return app.fail(cmd, err)
				}
				return writeData(cmd, app, sum, func() format.Table { return summaryTable(sum) })
			}
			stats, err := st.LoadStats(ctx)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, stats, func() format.Table { return statsTable(stats) })
		},
	}
}

func statsTable(s state.Stats) format.Table {
	t := kvTable(
		"open tickets", strconv.Itoa(s.OpenTickets),
		"high priority (open)", strconv.Itoa(s.HighPriorityOpen),
		"low priority (open)", strconv.Itoa(s.LowPriorityOpen),
		"assigned to me", strconv.Itoa(s.AssignedToMe),
		"feature requests", strconv.Itoa(s.FeatureRequests),
		"under review", strconv.Itoa(s.PendingFeatures),
	)
	for _, fr := range s.TopFeatureRequests {
		t.Rows = append(t.Rows, []string{"top: " + cell(fr.Title), strconv.Itoa(fr.UpvotesCount) + " upvotes"})
	}
	return t
}

func summaryTable(s model.DashboardSummary) format.Table {
	c := s.TotalCounts
	t := kvTable(
		"tickets", strconv.Itoa(c.Tickets),
		"feature requests", strconv.Itoa(c.FeatureRequests),
		"users", strconv.Itoa(c.Users),
		"comments", strconv.Itoa(c.Comments),
		"attachments", strconv.Itoa(c.Attachments),
	)
	add := func(prefix string, m map[string]int) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.Rows = append(t.Rows, []string{prefix + k, strconv.Itoa(m[k])})
		}
	}
	add("tickets ", s.TicketStatus)
	add("features ", s.FeatureRequestStatus)
	add("role ", s.UserRoles)
	r := s.RecentActivity
	t.Rows = append(t.Rows,
		[]string{"recent tickets", strconv.Itoa(r.Tickets)},
		[]string{"recent feature requests", strconv.Itoa(r.FeatureRequests)},
		[]string{"recent comments", strconv.Itoa(r.Comments)},
	)
	return t
}
