package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/xaviouche76/twitch-proxy-render/internal/errors"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

// handleLookup builds the shared handler behind every read route: parse the
// identifier parameter, fetch through the token broker and fanout, relay the
// upstream payload verbatim. split controls whether the parameter is a
// comma-separated batch of identifiers or a single one.
func (s *Server) handleLookup(verb twitch.Verb, param string, split bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.QueryParam(param)
		if raw == "" {
			// Short-circuits before the token broker is consulted.
			return apperrors.InputError(fmt.Sprintf("missing required query parameter %q", param)).
				WithContext("verb", string(verb))
		}

		ids := []string{raw}
		if split {
			ids = strings.Split(raw, ",")
		}

		payload, err := s.helix.Fetch(c.Request().Context(), verb, ids)
		if err != nil {
			return classifyLookupError(err).
				WithContext("verb", string(verb)).
				WithContext("identifiers", strings.Join(ids, ","))
		}

		return c.JSONBlob(200, payload)
	}
}

func classifyLookupError(err error) *apperrors.Error {
	var tokenErr *twitch.TokenError
	if errors.As(err, &tokenErr) {
		return apperrors.AuthError("token acquisition failed", err)
	}

	var apiErr *twitch.APIError
	if errors.As(err, &apiErr) {
		return apperrors.UpstreamError("upstream request failed", err)
	}

	return apperrors.UpstreamError("upstream request failed", err)
}
