package crmapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

// Login exchanges credentials for a token pair and caches the profile.
func (c *Client) Login(ctx context.Context, in LoginInput) (entity.UserProfile, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return entity.UserProfile{}, fmt.Errorf("encode login: %w", err)
	}
	status, body, err := c.send(ctx, http.MethodPost, "/auth/login", raw, "")
	if err != nil {
		return entity.UserProfile{}, err
	}
	if status == http.StatusUnauthorized {
		return entity.UserProfile{}, ErrUnauthenticated
	}
	if status < 200 || status >= 300 {
		return entity.UserProfile{}, &APIError{StatusCode: status, Body: string(body)}
	}

	var out loginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return entity.UserProfile{}, fmt.Errorf("decode login: %w", err)
	}
	if out.AccessToken == "" {
		return entity.UserProfile{}, errors.New("login response carried no access token")
	}
	if err := c.Session.SetTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return entity.UserProfile{}, err
	}

	var user entity.UserProfile
	if out.User != nil {
		user = *out.User
		if err := c.Session.SetUser(ctx, user); err != nil {
			return user, err
		}
	}
	c.Logger.Info("signed in", zap.String("user_id", user.ID))
	return user, nil
}

// Logout drops the local session. The backend keeps no server-side state
// worth revoking.
func (c *Client) Logout(ctx context.Context) error {
	return c.Session.Clear(ctx)
}

// renew returns a fresh access token. Concurrent callers that saw the same
// stale token share one refresh call.
func (c *Client) renew(ctx context.Context, stale string) (string, error) {
	if current := c.Session.AccessToken(); current != "" && current != stale {
		return current, nil
	}

	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		if current := c.Session.AccessToken(); current != "" && current != stale {
			return current, nil
		}
		return c.refreshTokens(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshTokens(ctx context.Context) (string, error) {
	refresh := c.Session.RefreshToken()
	if refresh == "" {
		c.signOut(ctx)
		return "", ErrUnauthenticated
	}

	raw, _ := json.Marshal(refreshRequest{RefreshToken: refresh})
	status, body, err := c.send(ctx, http.MethodPost, "/auth/refresh", raw, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		c.Logger.Warn("token refresh rejected", zap.Int("status", status))
		c.signOut(ctx)
		return "", ErrUnauthenticated
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		c.Logger.Warn("token refresh response unusable", zap.Error(err))
		c.signOut(ctx)
		return "", ErrUnauthenticated
	}
	if err := c.Session.SetTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return "", err
	}
	c.Logger.Debug("access token refreshed")
	return out.AccessToken, nil
}

func (c *Client) signOut(ctx context.Context) {
	if err := c.Session.Clear(ctx); err != nil {
		c.Logger.Warn("failed to clear session", zap.Error(err))
	}
}
