package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/walletflow/internal/model"
)

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, creds model.Credentials) (model.AuthResponse, error) {
	body := model.Credentials{Email: creds.Email, Password: creds.Password}

	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "api/auth/sign-in", body, &resp); err != nil {
		return model.AuthResponse{}, fmt.Errorf("sign in: %w", err)
	}
	return resp, nil
}

// SignUp registers a new account and returns its token.
func (c *Client) SignUp(ctx context.Context, creds model.Credentials) (model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "api/auth/sign-up", creds, &resp); err != nil {
		return model.AuthResponse{}, fmt.Errorf("sign up: %w", err)
	}
	return resp, nil
}

// SignOut revokes the current token on the server.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "api/auth/sign-out", nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// CurrentUser returns the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "api/users/current", nil, &user); err != nil {
		return model.User{}, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}
