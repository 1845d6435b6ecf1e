package cli

import (
	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/publish"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func newPublishCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite bool
	var status string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export tickets and feature requests as Markdown (a snapshot, not synced)",
	}
	opts := func() publish.WriteOptions { return publish.WriteOptions{Overwrite: overwrite} }

	ticketCmd := &cobra.Command{
		Use:   "ticket <ticket-id>",
		Short: "Publish one ticket with its comments",
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
			res, err := publish.WriteTicket(toDir, t, opts())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res, nil)
		},
	}

	featureCmd := &cobra.Command{
		Use:   "feature <feature-id>",
		Short: "Publish one feature request with its comments",
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
			f, err := state.LoadFeature(cmd.Context(), st.API, id)
			if err != nil {
				return app.fail(cmd, err)
			}
			res, err := publish.WriteFeature(toDir, f, opts())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res, nil)
		},
	}

	ticketsCmd := &cobra.Command{
		Use:   "tickets",
		Short: "Publish an index plus a page per visible ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Tickets)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			q := st.Tickets.Query
			if status != "" {
				v, err := model.ParseTicketStatus(status)
				if err != nil {
					return writeErr(cmd, mutate.ErrInvalidStatus)
				}
				q.Status = string(v)
			}
			q.Limit = 100
			list, err := st.API.ListTickets(ctx, q)
			if err != nil {
				return app.fail(cmd, err)
			}
			ts := make([]model.Ticket, 0, len(list))
			for _, t := range list {
				full, err := state.LoadTicket(ctx, st.API, t.ID)
				if err != nil {
					return app.fail(cmd, err)
				}
				ts = append(ts, full)
			}
			res, err := publish.WriteTickets(toDir, ts, opts())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res, nil)
		},
	}
	ticketsCmd.Flags().StringVar(&status, "status", "", "Only tickets with this status")

	featuresCmd := &cobra.Command{
		Use:   "features",
		Short: "Publish an index plus a page per feature request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Features)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			q := st.Features.Query
			q.Limit = 100
			list, err := st.API.ListFeatureRequests(ctx, q)
			if err != nil {
				return app.fail(cmd, err)
			}
			fs := make([]model.FeatureRequest, 0, len(list))
			for _, f := range list {
				full, err := state.LoadFeature(ctx, st.API, f.ID)
				if err != nil {
					return app.fail(cmd, err)
				}
				fs = append(fs, full)
			}
			res, err := publish.WriteFeatures(toDir, fs, opts())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, res, nil)
		},
	}

	cmd.PersistentFlags().StringVar(&toDir, "to", "", "Output directory")
	_ = cmd.MarkPersistentFlagRequired("to")
	cmd.PersistentFlags().BoolVar(&overwrite, "overwrite", true, "Overwrite existing files")

	cmd.AddCommand(ticketCmd)
	cmd.AddCommand(featureCmd)
	cmd.AddCommand(ticketsCmd)
	cmd.AddCommand(featuresCmd)
	return cmd
}
