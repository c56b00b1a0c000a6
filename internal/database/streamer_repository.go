package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xaviouche76/twitch-proxy-render/internal/metrics"
	"github.com/xaviouche76/twitch-proxy-render/internal/models"
)

// ErrStreamerNotFound is returned when no directory row exists for a twitch_id.
var ErrStreamerNotFound = errors.New("streamer not found")

type StreamerRepo struct {
	pool *pgxpool.Pool
}

func NewStreamerRepo(pool *pgxpool.Pool) *StreamerRepo {
	return &StreamerRepo{pool: pool}
}

// Upsert inserts or overwrites the directory row for a twitch_id. On conflict
// display_name, description, and profile_image_url are replaced wholesale: an
// omitted (nil) field overwrites a previously stored value with NULL. There is
// no partial-field-preserving merge. created_at is never modified after the
// first insert.
func (r *StreamerRepo) Upsert(ctx context.Context, twitchID string, displayName, description, profileImageURL *string) (*models.Streamer, error) {
	var s models.Streamer

	err := r.pool.QueryRow(ctx, `
		INSERT INTO streamers (twitch_id, display_name, description, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (twitch_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = NOW()
		RETURNING twitch_id, display_name, description, profile_image_url, created_at, updated_at
	`, twitchID, displayName, description, profileImageURL).Scan(
		&s.TwitchID, &s.DisplayName, &s.Description, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt,
	)

	if err != nil {
		metrics.StreamerUpsertsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to upsert streamer: %w", err)
	}

	metrics.StreamerUpsertsTotal.WithLabelValues("ok").Inc()
	return &s, nil
}

// GetByTwitchID returns a single directory row.
func (r *StreamerRepo) GetByTwitchID(ctx context.Context, twitchID string) (*models.Streamer, error) {
	var s models.Streamer

	err := r.pool.QueryRow(ctx, `
		SELECT twitch_id, display_name, description, profile_image_url, created_at, updated_at
		FROM streamers
		WHERE twitch_id = $1
	`, twitchID).Scan(
		&s.TwitchID, &s.DisplayName, &s.Description, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStreamerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streamer: %w", err)
	}

	return &s, nil
}

// List returns the whole directory ordered by registration time, oldest first.
// The roster is a fixed small set of creators; no pagination.
func (r *StreamerRepo) List(ctx context.Context) ([]models.Streamer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT twitch_id, display_name, description, profile_image_url, created_at, updated_at
		FROM streamers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamers: %w", err)
	}
	defer rows.Close()

	var streamers []models.Streamer
	for rows.Next() {
		var s models.Streamer
		if err := rows.Scan(&s.TwitchID, &s.DisplayName, &s.Description, &s.ProfileImageURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan streamer: %w", err)
		}
		streamers = append(streamers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read streamers: %w", err)
	}

	return streamers, nil
}

// HealthCheck pings the underlying pool.
func (r *StreamerRepo) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
