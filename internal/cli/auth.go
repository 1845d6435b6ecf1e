package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Saurabhh-37/supportsync/internal/format"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/mutate"
	"github.com/Saurabhh-37/supportsync/internal/route"
	"github.com/Saurabhh-37/supportsync/internal/session"
)

func newLoginCmd(app *App) *cobra.Command {
	var email string
	var passwordStdin bool
	var remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Login)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()

			// Refuse before prompting when the lockout is still running.
			if d, err := st.Session.Lockout(ctx); err != nil {
				return app.fail(cmd, err)
			} else if d > 0 {
				return app.fail(cmd, &session.LockedOutError{Remaining: d})
			}

			if strings.TrimSpace(email) == "" {
				saved := st.Session.RememberedEmail(ctx)
				label := "Email: "
				if saved != "" {
					label = "Email [" + saved + "]: "
				}
				email, err = app.promptLine(cmd, label)
				if err != nil {
					return app.fail(cmd, err)
				}
				if strings.TrimSpace(email) == "" {
					email = saved
				}
			}
			var password string
			if passwordStdin {
				password, err = app.readLine(cmd)
			} else {
				password, err = app.promptPassword(cmd, "Password: ")
			}
			if err != nil {
				return app.fail(cmd, err)
			}

			res, err := st.Login(ctx, email, password, remember)
			if err != nil {
				return app.fail(cmd, err)
			}
			u := st.Session.State().User
			return writeData(cmd, app, map[string]any{"user": u, "landing": res.Location.Path}, func() format.Table {
				return userTable([]model.User{*u})
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the email for the next login")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.open(cmd)
			if err != nil {
				return app.fail(cmd, err)
			}
			ctx := cmd.Context()
			// Loads the token so the server can be told; failure is not fatal here.
			if _, err := st.Restore(ctx); err != nil {
				app.log.Debugw("restore before logout", "error", err)
			}
			st.Logout(ctx)
			return writeData(cmd, app, map[string]any{"loggedOut": true}, nil)
		},
	}
}

func newSignupCmd(app *App) *cobra.Command {
	var username string
	var email string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Signup)
			if err != nil {
				return app.fail(cmd, err)
			}
			var password string
			if passwordStdin {
				password, err = app.readLine(cmd)
			} else {
				password, err = app.promptPassword(cmd, "Password: ")
			}
			if err != nil {
				return app.fail(cmd, err)
			}
			in, err := mutate.NewAccount(username, email, password)
			if err != nil {
				return app.fail(cmd, err)
			}
			u, err := st.API.Register(cmd.Context(), in)
			if err != nil {
				return app.fail(cmd, err)
			}
			cmd.PrintErrln("Registration successful! Please login to continue.")
			return writeData(cmd, app, u, func() format.Table { return userTable([]model.User{u}) })
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.enter(cmd, route.Settings)
			if err != nil {
				return app.fail(cmd, err)
			}
			u := st.Session.State().User
			out := map[string]any{"user": u}
			if c, err := st.Session.Claims(); err == nil && !c.ExpiresAt.IsZero() {
				out["tokenExpiresAt"] = c.ExpiresAt.UTC().Format(time.RFC3339)
			}
			return writeData(cmd, app, out, func() format.Table { return userTable([]model.User{*u}) })
		},
	}
}
