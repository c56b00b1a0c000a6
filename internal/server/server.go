package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/xaviouche76/twitch-proxy-render/internal/config"
	apperrors "github.com/xaviouche76/twitch-proxy-render/internal/errors"
	"github.com/xaviouche76/twitch-proxy-render/internal/models"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

const sessionMaxAgeMinutes = 10

// helixFetcher issues batched lookups against the resource API.
type helixFetcher interface {
	Fetch(ctx context.Context, verb twitch.Verb, ids []string) ([]byte, error)
}

// userAuthenticator handles the user-delegated authorization-code flow.
type userAuthenticator interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*twitch.UserProfile, error)
}

// streamerDirectory is the persistence sink for creator metadata.
type streamerDirectory interface {
	Upsert(ctx context.Context, twitchID string, displayName, description, profileImageURL *string) (*models.Streamer, error)
	List(ctx context.Context) ([]models.Streamer, error)
	HealthCheck(ctx context.Context) error
}

type Server struct {
	echo            *echo.Echo
	config          *config.Config
	helix           helixFetcher
	userAuth        userAuthenticator
	streamers       streamerDirectory
	provisionSchema func(ctx context.Context) error
	sessionStore    *sessions.CookieStore
	startTime       time.Time
}

func NewServer(cfg *config.Config, helix helixFetcher, userAuth userAuthenticator, streamers streamerDirectory, provisionSchema func(ctx context.Context) error) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apperrors.Middleware())

	// Session store carries only the short-lived OAuth state.
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   60 * sessionMaxAgeMinutes,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:            e,
		config:          cfg,
		helix:           helix,
		userAuth:        userAuth,
		streamers:       streamers,
		provisionSchema: provisionSchema,
		sessionStore:    sessionStore,
		startTime:       time.Now(),
	}

	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
