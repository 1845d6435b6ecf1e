package cli

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/route"
)

func newAttachmentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "Upload and delete file attachments",
	}
	cmd.AddCommand(newAttachmentsUploadCmd(app))
	cmd.AddCommand(newAttachmentsDeleteCmd(app))
	return cmd
}

func newAttachmentsUploadCmd(app *App) *cobra.Command {
	var ticketID int

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file, optionally attaching it to a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Clean(args[0])
			dest := route.Dashboard
			if ticketID > 0 {
				dest = route.TicketPath(ticketID)
			}
			st, err := app.enter(cmd, dest)
			if err != nil {
				return app.fail(cmd, err)
			}
			f, err := os.Open(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			a, err := st.API.UploadAttachment(cmd.Context(), filepath.Base(path), f, ticketID)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, a, func() format.Table {
				return kvTable(
					"id", strconv.Itoa(a.ID),
					"filename", a.Filename,
					"type", a.FileType,
					"size", strconv.FormatInt(a.FileSize, 10),
					"created", day(a.CreatedAt),
				)
			})
		},
	}

	cmd.Flags().IntVar(&ticketID, "ticket", 0, "Ticket id to attach the file to")
	return cmd
}

func newAttachmentsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <attachment-id>",
		Short: "Delete an attachment (uploader or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("attachment", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.Dashboard)
			if err != nil {
				return app.fail(cmd, err)
			}
			ok, err := app.confirm(cmd, "Are you sure you want to delete attachment #"+strconv.Itoa(id)+"?", yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errAborted)
			}
			if err := st.API.DeleteAttachment(cmd.Context(), id); err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"id": id, "deleted": true}, nil)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
