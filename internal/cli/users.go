package cli

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/state"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User administration (admins only)",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersShowCmd(app))
	cmd.AddCommand(newUsersUpdateCmd(app))
	cmd.AddCommand(newUsersDeleteCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	var role string
	var cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openList(cmd, app, cached, route.Users)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			rs := st.Users
			var cachedAt *time.Time
			if cached {
				var us []model.User
				at, ok, err := st.Store.GetCache(ctx, state.CacheUsers, api.ListQuery{}.Key(), &us)
				if err != nil {
					return app.fail(cmd, err)
				}
				if !ok {
					return app.fail(cmd, errNotFound("cached "+state.CacheUsers, api.ListQuery{}.Key()))
				}
				rs.Items, cachedAt = us, &at
			} else {
				seq := rs.BeginFetch()
				us, err := st.API.ListUsers(ctx)
				rs.FinishFetch(seq, us, err)
				if err != nil {
					return app.fail(cmd, err)
				}
				st.CacheList(ctx, state.CacheUsers, api.ListQuery{}, rs.Items)
			}

			out := rs.Items
			if strings.TrimSpace(role) != "" {
				r, err := model.ParseRole(role)
				if err != nil {
					return writeErr(cmd, mutate.ErrInvalidRole)
				}
				out = nil
				for _, u := range rs.Items {
					if u.Role == r {
						out = append(out, u)
					}
				}
			}
			if cachedAt != nil {
				return writeOut(cmd, app, envelope{
					Data:  out,
					Meta:  map[string]any{"cachedAt": cachedAt.Format(time.RFC3339)},
					table: func() format.Table { return userTable(out) },
				})
			}
			return writeData(cmd, app, out, func() format.Table { return userTable(out) })
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Only users with this role (user|agent|admin)")
	cmd.Flags().BoolVar(&cached, "cached", false, "Print the last fetched result without contacting the server")
	return cmd
}

func newUsersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.Users)
			if err != nil {
				return app.fail(cmd, err)
			}
			u, err := st.API.GetUser(cmd.Context(), id)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, u, func() format.Table { return userTable([]model.User{u}) })
		},
	}
}

func newUsersUpdateCmd(app *App) *cobra.Command {
	var role, username, email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Change a user's role, name, email or password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.Users)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			cur, err := st.API.GetUser(ctx, id)
			if err != nil {
				return app.fail(cmd, err)
			}

			var patch api.UserPatch
			if cmd.Flags().Changed("role") {
				ch, err := mutate.UserRole(st.Session.State().User, cur, role)
				if err != nil && !errors.Is(err, mutate.ErrNoChange) {
					return writeErr(cmd, err)
				}
				patch.Role = ch.Patch.Role
			}
			if v := strings.TrimSpace(username); v != "" && v != cur.Username {
				patch.Username = &v
			}
			if v := strings.TrimSpace(email); v != "" && v != cur.Email {
				patch.Email = &v
			}
			if passwordStdin {
				pw, err := app.readLine(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				if pw != "" {
					patch.Password = &pw
				}
			}
			if patch == (api.UserPatch{}) {
				return writeErr(cmd, mutate.ErrNoChange)
			}

			u, err := st.API.UpdateUser(ctx, id, patch)
			if err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, u, func() format.Table { return userTable([]model.User{u}) })
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "New role (user|agent|admin)")
	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read a new password from the first line of stdin")
	return cmd
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.enter(cmd, route.Users)
			if err != nil {
				return app.fail(cmd, err)
			}
			if st.Session.State().User.ID == id {
				return writeErr(cmd, mutate.ForbiddenError{Action: "delete your own account"})
			}
			ok, err := app.confirm(cmd, "Are you sure you want to delete user #"+strconv.Itoa(id)+"?", yes)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errAborted)
			}
			if err := st.API.DeleteUser(cmd.Context(), id); err != nil {
				return app.fail(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"id": id, "deleted": true}, nil)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
