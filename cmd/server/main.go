package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/xaviouche76/twitch-proxy-render/internal/config"
	"github.com/xaviouche76/twitch-proxy-render/internal/database"
	"github.com/xaviouche76/twitch-proxy-render/internal/logging"
	"github.com/xaviouche76/twitch-proxy-render/internal/server"
	"github.com/xaviouche76/twitch-proxy-render/internal/twitch"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.ProvisionSchema(ctx, pool); err != nil {
		slog.Error("Failed to provision schema", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	appTokens := twitch.NewAppTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.UpstreamTimeout, clock)
	helixClient := twitch.NewHelixClient(cfg.TwitchClientID, appTokens, cfg.UpstreamTimeout)
	userAuth := twitch.NewUserTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchRedirectURI, cfg.UpstreamTimeout)

	streamerRepo := database.NewStreamerRepo(pool)

	provision := func(ctx context.Context) error {
		return database.ProvisionSchema(ctx, pool)
	}

	srv := server.NewServer(cfg, helixClient, userAuth, streamerRepo, provision)

	done := runGracefulShutdown(srv)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
