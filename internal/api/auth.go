package api

import (
	"context"
	"net/http"

	"github.com/rpggio/taskdesk/internal/domain/user"
)

// LoginResult is the server's answer to a credential exchange.
type LoginResult struct {
	Token string
	User  user.Summary
}

// Login exchanges credentials for a token. It is the only call sent
// without a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp struct {
		Token string   `json:"token"`
		User  wireUser `json:"user"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: resp.Token, User: resp.User.summary()}, nil
}

// RegisterRequest describes a user to create.
type RegisterRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     user.Role `json:"role"`
}

// RegisterUser creates a user. Admin only on the server side.
func (c *Client) RegisterUser(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
		auth:   true,
	}, nil)
}

// CurrentUser returns the profile the server associates with the token.
func (c *Client) CurrentUser(ctx context.Context) (user.Summary, error) {
	var resp wireUser
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}, &resp); err != nil {
		return user.Summary{}, err
	}
	return resp.summary(), nil
}
