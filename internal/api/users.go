package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type UserPatch struct {
	Username *string     `json:"username,omitempty"`
	Email    *string     `json:"email,omitempty"`
	Password *string     `json:"password,omitempty"`
	Role     *model.Role `json:"role,omitempty"`
}

func userPath(id int) string { return "/users/" + strconv.Itoa(id) }

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := c.get(ctx, "/users", nil, &out)
	return nonNil(out), err
}

func (c *Client) GetUser(ctx context.Context, id int) (model.User, error) {
	var u model.User
	err := c.get(ctx, userPath(id), nil, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id int, p UserPatch) (model.User, error) {
	var u model.User
	err := c.send(ctx, http.MethodPut, userPath(id), p, &u)
	return u, err
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, userPath(id), nil, nil)
}

// DashboardSummary is admin-only on the server.
func (c *Client) DashboardSummary(ctx context.Context) (model.DashboardSummary, error) {
	var s model.DashboardSummary
	err := c.get(ctx, "/api/dashboard/summary", nil, &s)
	return s, err
}
