package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func newFeaturesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "features",
		Aliases: []string{"feature-requests", "feature", "f"},
		Short:   "Feature request commands",
	}
	cmd.AddCommand(newFeaturesListCmd(app))
	cmd.AddCommand(newFeaturesShowCmd(app))
	cmd.AddCommand(newFeaturesCreateCmd(app))
	cmd.AddCommand(newFeaturesUpdateCmd(app))
	cmd.AddCommand(newFeaturesDeleteCmd(app))
	cmd.AddCommand(newFeaturesUpvoteCmd(app))
	cmd.AddCommand(newFeaturesCommentCmd(app))
	cmd.AddCommand(newFeaturesCommentsCmd(app))
	return cmd
}

func newFeaturesListCmd(app *App) *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feature requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openList(cmd, app, lf.cached, route.Features)
			if err != nil {
				return app.fail(cmd, err)
			}
			rs := st.Features
			if lf.status != "" {
				v, err := model.ParseFeatureStatus(lf.status)
				if err != nil {
					return app.fail(cmd, mutate.ErrInvalidStatus)
				}
				rs.SetStatus(string(v))
			}
			if lf.priority != "" {
				v, err := model.ParseFeaturePriority(lf.priority)
				if err != nil {
					return app.fail(cmd, mutate.ErrInvalidPriority)
				}
				rs.SetPriority(string(v))
			}
			rs.SetSearch(lf.search)
			rs.SetLimit(lf.limit)
			rs.SetPage(lf.skip)

			if lf.cached {
				var items []model.FeatureRequest
				at, ok, err := st.Store.GetCache(cmd.Context(), state.CacheFeatures, rs.Query.Key(), &items)
				if err != nil {
					return app.fail(cmd, err)
				}
				if !ok {
					return app.fail(cmd, errNotFound("cached "+state.CacheFeatures, rs.Query.Key()))
				}
				return writeList(cmd, app, items, rs.Query, &at, func() format.Table { return featureTable(items) })
			}

			ctx := cmd.Context()
			seq := rs.BeginFetch()
			items, err := st.API.ListFeatureRequests(ctx, rs.Query)
			rs.FinishFetch(seq, items, err)
			if err != nil {
				return app.fail(cmd, err)
			}
			st.CacheList(ctx, state.CacheFeatures, rs.Query, rs.Items)
			return writeList(cmd, app, rs.Items, rs.Query, nil, func() format.Table { return featureTable(rs.Items) })
		},
	}

	lf.register(cmd)
	return cmd
}

func featureDetailTable(fr model.FeatureRequest) format.Table {
	return kvTable(
		"id", strconv.Itoa(fr.ID),
		"title", fr.Title,
		"status", string(fr.Status),
		"priority", string(fr.Priority),
		"requester", fr.Requester.DisplayName(),
		"upvotes", strconv.Itoa(fr.UpvotesCount),
		"created", day(fr.CreatedAt),
		"comments", strconv.Itoa(len(fr.Comments)),
		"description", fr.Description,
	)
}

func newFeaturesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <feature-id>",
		Short: "Show a feature request with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			fr, err := state.LoadFeature(cmd.Context(), st.API, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, fr, func() format.Table { return featureDetailTable(fr) })
		},
	}
}

func newFeaturesCreateCmd(app *App) *cobra.Command {
	var title, description, priority string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Propose a feature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.FeatureCreate)
			if err != nil {
				return app.fail(cmd, err)
			}
			in, err := mutate.NewFeature(title, description, priority)
			if err != nil {
				return writeErr(cmd, err)
			}
			fr, err := st.API.CreateFeatureRequest(cmd.Context(), in)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, fr, func() format.Table { return featureDetailTable(fr) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Feature title")
	cmd.Flags().StringVar(&description, "description", "", "What and why")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (Low|Medium|High; default Medium)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newFeaturesUpdateCmd(app *App) *cobra.Command {
	var title, description, status, priority string

	cmd := &cobra.Command{
		Use:   "update <feature-id>",
		Short: "Change a feature request (requester or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			cur, err := st.API.GetFeatureRequest(ctx, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			ch, err := mutate.EditFeature(st.Session.State().User, cur, mutate.FeatureEdit{
				Title:       optional(cmd, "title", title),
				Description: optional(cmd, "description", description),
				Status:      optional(cmd, "status", status),
				Priority:    optional(cmd, "priority", priority),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			fr, err := st.API.UpdateFeatureRequest(ctx, id, ch.Patch)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, fr, func() format.Table { return featureDetailTable(fr) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (Proposed|Under Review|Approved|Rejected)")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority (Low|Medium|High)")
	return cmd
}

func newFeaturesDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <feature-id>",
		Short: "Delete a feature request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			ok, err := app.confirm(cmd, "Are you sure you want to delete feature request #"+strconv.Itoa(id)+"?", yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errAborted)
			}
			if err := st.API.DeleteFeatureRequest(cmd.Context(), id); err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"id": id, "deleted": true}, nil)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newFeaturesUpvoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upvote <feature-id>",
		Short: "Upvote a feature request (once per user)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			fr, err := st.API.GetFeatureRequest(ctx, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			uid := st.Session.State().User.ID
			if err := mutate.CanUpvote(fr, uid); err != nil {
				return writeErr(cmd, err)
			}
			res, err := st.API.Upvote(ctx, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			mutate.ApplyUpvote(&fr, uid, res.UpvotesCount)
			return writeData(cmd, app, fr, func() format.Table { return featureDetailTable(fr) })
		},
	}
}

func newFeaturesCommentCmd(app *App) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "comment <feature-id>",
		Short: "Comment on a feature request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			content, err := mutate.Comment(body)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := st.API.AddFeatureRequestComment(cmd.Context(), id, content)
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

func newFeaturesCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <feature-id>",
		Short: "List a feature request's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("feature request", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.FeaturePath(id))
			if err != nil {
				return app.fail(cmd, err)
			}
			cs, err := st.API.FeatureRequestComments(cmd.Context(), id)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, cs, func() format.Table { return commentTable(cs) })
		},
	}
}
