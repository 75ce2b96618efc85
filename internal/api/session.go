package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stopro/roster/internal/domain"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse accepts both token field spellings the backend has used.
type loginResponse struct {
	AccessToken  string      `json:"accessToken"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         domain.User `json:"user"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var out loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginBody{Email: email, Password: password}, &out, requestOpts{anonymous: true})
	if errors.Is(err, domain.ErrUnauthorized) {
		return nil, fmt.Errorf("failed to sign in: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	token := out.AccessToken
	if token == "" {
		token = out.Token
	}
	if token == "" {
		return nil, fmt.Errorf("failed to sign in: response carried no token")
	}

	return &domain.Session{
		AccessToken:  token,
		RefreshToken: out.RefreshToken,
		User:         out.User,
	}, nil
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &out, nil
}

// Logout ends the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, requestOpts{}); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
