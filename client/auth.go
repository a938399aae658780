package client

import (
	"context"
	"fmt"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/users"
	"golang.org/x/oauth2"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the self-service sign-up body.
type Registration struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Region   string `json:"region,omitempty"`
}

// Login signs in, stores the issued session and returns the signed-in profile.
// Any previous session is dropped first.
func (c *Client) Login(ctx context.Context, email, password string) (users.Profile, error) {
	return c.startSession(ctx, "/auth/login", Credentials{Email: email, Password: password})
}

// Register creates a public account and signs in as it.
func (c *Client) Register(ctx context.Context, reg Registration) (users.Profile, error) {
	return c.startSession(ctx, "/auth/register", reg)
}

func (c *Client) startSession(ctx context.Context, path string, body any) (users.Profile, error) {
	if err := tokens.ClearSession(ctx, c.store); err != nil {
		return users.Profile{}, fmt.Errorf("clearing previous session: %w", err)
	}

	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return users.Profile{}, err
	}
	var tok oauth2.Token
	if err := resp.Decode(&tok); err != nil {
		return users.Profile{}, err
	}
	session, err := tokens.SessionFromToken(&tok)
	if err != nil {
		return users.Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := tokens.SaveSession(ctx, c.store, session); err != nil {
		return users.Profile{}, err
	}
	c.logger.Info().Bool("mocked", resp.Mocked).Msg("signed in")
	return c.CurrentUser(ctx)
}

// CurrentUser fetches the profile of the stored session.
func (c *Client) CurrentUser(ctx context.Context) (users.Profile, error) {
	resp, err := c.Get(ctx, "/users/me", nil)
	if err != nil {
		return users.Profile{}, err
	}
	var profile users.Profile
	if err := resp.Decode(&profile); err != nil {
		return users.Profile{}, err
	}
	return profile, nil
}

// Logout forgets the stored session. Nothing is sent to the backend.
func (c *Client) Logout(ctx context.Context) error {
	return tokens.ClearSession(ctx, c.store)
}

// Session returns the stored session, if any.
func (c *Client) Session(ctx context.Context) (tokens.Session, bool) {
	return tokens.LoadSession(ctx, c.store)
}
