package server

import (
	"context"
	"testing"
	"time"

	"github.com/xaviouche76/twitch-proxy-render/internal/config"
	"github.com/xaviouche76/twitch-proxy-render/internal/models"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

type mockHelix struct {
	fetchFn func(ctx context.Context, verb twitch.Verb, ids []string) ([]byte, error)
	calls   int
}

func (m *mockHelix) Fetch(ctx context.Context, verb twitch.Verb, ids []string) ([]byte, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, verb, ids)
	}
	return []byte(`{"data":[]}`), nil
}

type mockUserAuth struct {
	authorizeURLFn func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*twitch.UserProfile, error)
}

func (m *mockUserAuth) AuthorizeURL(state string) string {
	if m.authorizeURLFn != nil {
		return m.authorizeURLFn(state)
	}
	return "https://id.twitch.tv/oauth2/authorize?state=" + state
}

func (m *mockUserAuth) ExchangeCode(ctx context.Context, code string) (*twitch.UserProfile, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return &twitch.UserProfile{ID: "1", Login: "someone"}, nil
}

type mockDirectory struct {
	upsertFn func(ctx context.Context, twitchID string, displayName, description, profileImageURL *string) (*models.Streamer, error)
	listFn   func(ctx context.Context) ([]models.Streamer, error)
}

func (m *mockDirectory) Upsert(ctx context.Context, twitchID string, displayName, description, profileImageURL *string) (*models.Streamer, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, twitchID, displayName, description, profileImageURL)
	}
	return &models.Streamer{
		TwitchID:        twitchID,
		DisplayName:     displayName,
		Description:     description,
		ProfileImageURL: profileImageURL,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}, nil
}

func (m *mockDirectory) List(ctx context.Context) ([]models.Streamer, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockDirectory) HealthCheck(_ context.Context) error {
	return nil
}

func newTestServer(t *testing.T, helix helixFetcher, userAuth userAuthenticator, streamers streamerDirectory, provision func(ctx context.Context) error) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:             "test",
		Port:               "0",
		TwitchClientID:     "test_client",
		TwitchClientSecret: "test_secret",
		TwitchRedirectURI:  "http://localhost:8080/callback",
		SessionSecret:      "test_session_secret",
		UpstreamTimeout:    5 * time.Second,
	}

	if provision == nil {
		provision = func(_ context.Context) error { return nil }
	}

	return NewServer(cfg, helix, userAuth, streamers, provision)
}

func strPtr(s string) *string {
	return &s
}
