package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Upstream lookup routes: one generic handler parameterized by verb
	s.echo.GET("/live", s.handleLookup(twitch.VerbLive, "users", true))
	s.echo.GET("/users", s.handleLookup(twitch.VerbUsers, "users", true))
	s.echo.GET("/clips", s.handleLookup(twitch.VerbClips, "user_id", false))
	s.echo.GET("/videos", s.handleLookup(twitch.VerbVideos, "user_id", false))
	s.echo.GET("/vods", s.handleLookup(twitch.VerbVideos, "user_id", false))
	s.echo.GET("/followers", s.handleLookup(twitch.VerbFollowers, "to_id", false))

	// Creator directory
	s.echo.POST("/register-streamer", s.handleRegisterStreamer)
	s.echo.GET("/streamers", s.handleListStreamers)
	s.echo.GET("/init-db", s.handleInitDB)

	// User-delegated OAuth flow
	s.echo.GET("/auth-twitch", s.handleAuthTwitch)
	s.echo.GET("/callback", s.handleOAuthCallback)
}
