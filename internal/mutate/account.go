package mutate

import (
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/api"
	"github.com/Saurabhh-37/supportsync/internal/model"
	"github.com/Saurabhh-37/supportsync/internal/perm"
)

// NewAccount validates the signup form.
func NewAccount(username, email, password string) (api.RegisterInput, error) {
	in := api.RegisterInput{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	switch {
	case in.Username == "":
		return api.RegisterInput{}, FieldError{Field: "username", Message: "Username is required"}
	case in.Email == "":
		return api.RegisterInput{}, FieldError{Field: "email", Message: "Email is required"}
	case !strings.Contains(in.Email, "@"):
		return api.RegisterInput{}, FieldError{Field: "email", Message: "Email is not valid"}
	case in.Password == "":
		return api.RegisterInput{}, FieldError{Field: "password", Message: "Password is required"}
	}
	return in, nil
}

type UserChange struct {
	Patch api.UserPatch
	Apply func(*model.User)
}

// UserRole changes u's role. Admins may not change their own role, which
// would otherwise lock the last admin out of user management.
func UserRole(actor *model.User, u model.User, raw string) (UserChange, error) {
	if !perm.CanManageUsers(actor) {
		return UserChange{}, ForbiddenError{Action: "manage users"}
	}
	r, err := model.ParseRole(raw)
	if err != nil {
		return UserChange{}, ErrInvalidRole
	}
	if r == u.Role {
		return UserChange{}, ErrNoChange
	}
	if actor.ID == u.ID {
		return UserChange{}, ForbiddenError{Action: "change your own role"}
	}
	return UserChange{
		Patch: api.UserPatch{Role: &r},
		Apply: func(u *model.User) { u.Role = r },
	}, nil
}
