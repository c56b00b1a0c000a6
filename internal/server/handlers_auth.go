package server

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/xaviouche76/twitch-proxy-render/internal/errors"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

const (
	sessionName          = "twitch_proxy_session"
	sessionKeyOAuthState = "oauth_state"
)

// handleAuthTwitch starts the user-delegated authorization-code flow: store a
// random state in the cookie session and redirect to the platform's authorize URL.
func (s *Server) handleAuthTwitch(c echo.Context) error {
	state := uuid.NewString()

	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.AuthError("failed to persist authorization state", err)
	}

	return c.Redirect(302, s.userAuth.AuthorizeURL(state))
}

// handleOAuthCallback completes the flow: verify state, exchange the code for
// a user token, fetch the authenticated user's profile, and upsert it into the
// directory.
func (s *Server) handleOAuthCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return apperrors.InputError(`missing required query parameter "code"`)
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.InputError("invalid session")
	}
	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return apperrors.InputError("missing OAuth state")
	}
	if c.QueryParam("state") != expectedState {
		return apperrors.InputError("OAuth state mismatch")
	}
	delete(session.Values, sessionKeyOAuthState)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.AuthError("failed to clear authorization state", err)
	}

	profile, err := s.userAuth.ExchangeCode(c.Request().Context(), code)
	if err != nil {
		var tokenErr *twitch.TokenError
		if errors.As(err, &tokenErr) {
			return apperrors.AuthError("code exchange failed", err)
		}
		return apperrors.UpstreamError("user profile fetch failed", err)
	}

	streamer, err := s.streamers.Upsert(c.Request().Context(), profile.ID,
		optional(profile.DisplayName), optional(profile.Description), optional(profile.ProfileImageURL))
	if err != nil {
		return apperrors.PersistenceError("failed to register authenticated user", err).
			WithContext("twitch_id", profile.ID)
	}

	return c.JSON(200, streamer)
}

// optional maps an empty upstream field to NULL in the directory.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
