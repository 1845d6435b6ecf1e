package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts form-encoded credentials (OAuth2 password flow: the email goes in "username").
func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", strings.TrimSpace(email))
	form.Set("password", password)
	var tok Token
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &tok)
	if err != nil {
		return Token{}, err
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return Token{}, errors.New("login response missing access_token")
	}
	return tok, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	var u model.User
	err := c.send(ctx, http.MethodPost, "/api/auth/register", in, &u)
	return u, err
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.get(ctx, "/api/auth/profile", nil, &u)
	return u, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}
