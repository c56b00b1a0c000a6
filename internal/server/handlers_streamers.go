package server

import (
	"github.com/labstack/echo/v4"
	apperrors "github.com/xaviouche76/twitch-proxy-render/internal/errors"
	"github.com/xaviouche76/twitch-proxy-render/internal/models"
)

// registerStreamerRequest is the write-path body. Only twitch_id is mandatory;
// the optional fields are full-overwrite (an omitted field clears the stored
// value, there is no merge).
type registerStreamerRequest struct {
	TwitchID        string  `json:"twitch_id"`
	DisplayName     *string `json:"display_name"`
	Description     *string `json:"description"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (s *Server) handleRegisterStreamer(c echo.Context) error {
	var req registerStreamerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InputError("invalid request body")
	}

	if req.TwitchID == "" {
		return apperrors.InputError("twitch_id is required")
	}

	streamer, err := s.streamers.Upsert(c.Request().Context(), req.TwitchID, req.DisplayName, req.Description, req.ProfileImageURL)
	if err != nil {
		return apperrors.PersistenceError("failed to register streamer", err).
			WithContext("twitch_id", req.TwitchID)
	}

	return c.JSON(200, streamer)
}

func (s *Server) handleListStreamers(c echo.Context) error {
	streamers, err := s.streamers.List(c.Request().Context())
	if err != nil {
		return apperrors.PersistenceError("failed to list streamers", err)
	}

	if streamers == nil {
		streamers = []models.Streamer{}
	}

	return c.JSON(200, streamers)
}

func (s *Server) handleInitDB(c echo.Context) error {
	if err := s.provisionSchema(c.Request().Context()); err != nil {
		return apperrors.PersistenceError("failed to provision schema", err)
	}

	return c.JSON(200, map[string]string{"status": "initialized"})
}
