package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func newTicketsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket", "t"},
		Short:   "Support ticket commands",
	}
	cmd.AddCommand(newTicketsListCmd(app))
	cmd.AddCommand(newTicketsShowCmd(app))
	cmd.AddCommand(newTicketsCreateCmd(app))
	cmd.AddCommand(newTicketsUpdateCmd(app))
	cmd.AddCommand(newTicketsDeleteCmd(app))
	cmd.AddCommand(newTicketsCommentCmd(app))
	cmd.AddCommand(newTicketsCommentsCmd(app))
	return cmd
}

// listFlags are the filter/paging flags shared by list commands.
type listFlags struct {
	status   string
	priority string
	search   string
	skip     int
	limit    int
	cached   bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&f.search, "search", "", "Search title and description")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "Records to skip")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Page size (default: pageSize from config.json)")
	cmd.Flags().BoolVar(&f.cached, "cached", false, "Print the last fetched result without contacting the server")
}

func newTicketsListCmd(app *App) *cobra.Command {
	var lf listFlags
	var mine bool
	var assignedTo int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openList(cmd, app, lf.cached, route.Tickets)
			if err != nil {
				return app.fail(cmd, err)
			}
			rs := st.Tickets
			if lf.status != "" {
				v, err := model.ParseTicketStatus(lf.status)
				if err != nil {
					return app.fail(cmd, mutate.ErrInvalidStatus)
				}
				rs.SetStatus(string(v))
			}
			if lf.priority != "" {
				v, err := model.ParseTicketPriority(lf.priority)
				if err != nil {
					return app.fail(cmd, mutate.ErrInvalidPriority)
				}
				rs.SetPriority(string(v))
			}
			rs.SetSearch(lf.search)
			rs.SetAssignedTo(assignedTo)
			rs.SetLimit(lf.limit)
			rs.SetPage(lf.skip)

			kind := state.CacheTickets
			if mine {
				kind = state.CacheMyTickets
			}
			if lf.cached {
				var items []model.Ticket
				at, ok, err := st.Store.GetCache(cmd.Context(), kind, rs.Query.Key(), &items)
				if err != nil {
					return app.fail(cmd, err)
				}
				if !ok {
					return app.fail(cmd, errNotFound("cached "+kind, rs.Query.Key()))
				}
				return writeList(cmd, app, items, rs.Query, &at, func() format.Table { return ticketTable(items) })
			}

			ctx := cmd.Context()
			seq := rs.BeginFetch()
			var items []model.Ticket
			if mine {
				items, err = st.API.MyTickets(ctx, rs.Query)
			} else {
				items, err = st.API.ListTickets(ctx, rs.Query)
			}
			rs.FinishFetch(seq, items, err)
			if err != nil {
				return app.fail(cmd, err)
			}
			st.CacheList(ctx, kind, rs.Query, rs.Items)
			return writeList(cmd, app, rs.Items, rs.Query, nil, func() format.Table { return ticketTable(rs.Items) })
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&mine, "mine", false, "Only tickets you created")
	cmd.Flags().IntVar(&assignedTo, "assigned-to", 0, "Only tickets assigned to this user id")
	return cmd
}

// openList guards path; a cached read is guarded against the cached profile.
func openList(cmd *cobra.Command, app *App, cached bool, path string) (*state.State, error) {
	if cached {
		return app.enterCached(cmd, path)
	}
	return app.enter(cmd, path)
}

func writeList(cmd *cobra.Command, app *App, data any, q api.ListQuery, cachedAt *time.Time, table func() format.Table) error {
	meta := map[string]any{"skip": q.Skip, "limit": q.Limit}
	if cachedAt != nil {
		meta["cachedAt"] = cachedAt.Format(time.RFC3339)
	}
	return writeOut(cmd, app, envelope{Data: data, Meta: meta, table: table})
}

func ticketDetailTable(t model.Ticket) format.Table {
	return kvTable(
		"id", strconv.Itoa(t.ID),
		"title", t.Title,
		"status", t.Status.Label(),
		"priority", t.Priority.Label(),
		"creator", t.User.DisplayName(),
		"assignee", t.AssignedUser.DisplayName(),
		"created", day(t.CreatedAt),
		"updated", day(t.UpdatedAt),
		"comments", strconv.Itoa(len(t.Comments)),
		"description", t.Description,
	)
}

func newTicketsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show a ticket with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.TicketPath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			t, err := state.LoadTicket(cmd.Context(), st.API, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, t, func() format.Table { return ticketDetailTable(t) })
		},
	}
}

func newTicketsCreateCmd(app *App) *cobra.Command {
	var title, description, priority string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.TicketCreate)
			if err != nil {
				return app.fail(cmd, err)
			}
			in, err := mutate.NewTicket(title, description, priority)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := st.API.CreateTicket(cmd.Context(), in)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, t, func() format.Table { return ticketDetailTable(t) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Ticket title")
	cmd.Flags().StringVar(&description, "description", "", "Ticket description")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high; default medium)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func optional(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func newTicketsUpdateCmd(app *App) *cobra.Command {
	var title, description, status, priority string
	var assignTo int

	cmd := &cobra.Command{
		Use:   "update <ticket-id>",
		Short: "Change a ticket's fields, status, priority or assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.TicketPath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			cur, err := st.API.GetTicket(ctx, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			actor := st.Session.State().User

			ch, err := mutate.EditTicket(actor, cur, mutate.TicketEdit{
				Title:       optional(cmd, "title", title),
				Description: optional(cmd, "description", description),
				Status:      optional(cmd, "status", status),
				Priority:    optional(cmd, "priority", priority),
			})
			if err != nil && !(errors.Is(err, mutate.ErrNoChange) && cmd.Flags().Changed("assign-to")) {
				return writeErr(cmd, err)
			}
			patch := ch.Patch
			if cmd.Flags().Changed("assign-to") {
				assignee := model.User{ID: assignTo}
				if actor.Role.IsAdmin() {
					if assignee, err = st.API.GetUser(ctx, assignTo); err != nil {
						return app.fail(cmd, err)
					}
				}
				ach, err := mutate.TicketAssign(actor, cur, assignee)
				if err != nil && !(errors.Is(err, mutate.ErrNoChange) && patch != (api.TicketPatch{})) {
					return writeErr(cmd, err)
				}
				patch.AssignedTo = ach.Patch.AssignedTo
			}

			t, err := st.API.UpdateTicket(ctx, id, patch)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, t, func() format.Table { return ticketDetailTable(t) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (new|open|in_progress|resolved|closed)")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority (low|medium|high)")
	cmd.Flags().IntVar(&assignTo, "assign-to", 0, "Assign to this agent's user id (agents and admins)")
	return cmd
}

func newTicketsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <ticket-id>",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.TicketPath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			ok, err := app.confirm(cmd, "Are you sure you want to delete ticket #"+strconv.Itoa(id)+"?", yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errAborted)
			}
			if err := st.API.DeleteTicket(cmd.Context(), id); err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"id": id, "deleted": true}, nil)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newTicketsCommentCmd(app *App) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "comment <ticket-id>",
		Short: "Add a comment to a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.TicketPath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			content, err := mutate.Comment(body)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := st.API.AddTicketComment(cmd.Context(), id, content)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, c, func() format.Table { return commentTable([]model.Comment{c}) })
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "Comment text")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newTicketsCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <ticket-id>",
		Short: "List a ticket's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ticket", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.TicketPath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			cs, err := st.API.TicketComments(cmd.Context(), id)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, cs, func() format.Table { return commentTable(cs) })
		},
	}
}
