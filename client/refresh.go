package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/tokens"
	"golang.org/x/oauth2"
)

// refreshAndRetry handles a first 401. The request is retried at most once;
// if the session cannot be renewed the original failure is returned.
func (c *Client) refreshAndRetry(ctx context.Context, req *Request, body []byte, sentToken string, original error) (*Response, error) {
	req.retried = true

	refreshToken, ok := c.store.Get(ctx, tokens.RefreshTokenKey)
	if !ok {
		c.metrics.request(labelFailed)
		c.logger.Debug().Str("path", req.Path).Msg("401 with no refresh token stored")
		return nil, original
	}

	if current, ok := c.store.Get(ctx, tokens.AccessTokenKey); ok && current != sentToken {
		c.metrics.refresh(refreshSkipped)
		c.logger.Debug().Str("path", req.Path).Msg("access token already renewed, retrying")
		return c.do(ctx, req, body)
	}

	if err := c.refresh(ctx, refreshToken); err != nil {
		c.metrics.request(labelFailed)
		return nil, original
	}
	return c.do(ctx, req, body)
}

// refresh renews the session once per refresh token however many callers ask.
// The shared call is detached from any one caller's cancellation.
func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	ch := c.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return nil, c.renewSession(context.WithoutCancel(ctx), refreshToken)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renewSession calls the refresh endpoint and stores the new pair. On a failed
// refresh the session is cleared and the user is sent to the login page.
func (c *Client) renewSession(ctx context.Context, refreshToken string) error {
	current, ok := c.store.Get(ctx, tokens.RefreshTokenKey)
	if !ok {
		c.metrics.refresh(refreshSkipped)
		return apperrors.ErrNoRefreshToken
	}
	if current != refreshToken {
		// An earlier refresh with this token already completed.
		c.metrics.refresh(refreshSkipped)
		return nil
	}

	session, err := c.postRefresh(ctx, refreshToken)
	if err == nil {
		err = tokens.SaveSession(ctx, c.store, session)
	}
	if err != nil {
		c.metrics.refresh(refreshFailure)
		ev := c.logger.Error().Err(err)
		if clearErr := tokens.ClearSession(ctx, c.store); clearErr != nil {
			ev = ev.AnErr("clear_error", clearErr)
		}
		ev.Msg("token refresh failed, session cleared")
		c.redirector.RedirectToLogin(ctx, loginPath)
		return err
	}

	c.metrics.refresh(refreshSuccess)
	c.logger.Info().Msg("session refreshed")
	return nil
}

// postRefresh goes straight to the transport, bypassing the pipeline.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (tokens.Session, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return tokens.Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return tokens.Session{}, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set(HeaderContentType, contentTypeJSON)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.refreshHTTP.Do(req)
	if err != nil {
		return tokens.Session{}, fmt.Errorf("refreshing session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokens.Session{}, fmt.Errorf("reading refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokens.Session{}, apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh returned %d", resp.StatusCode)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return tokens.Session{}, fmt.Errorf("decoding refresh response: %w", err)
	}
	return tokens.SessionFromToken(&tok)
}
