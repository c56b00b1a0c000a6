package models

import (
	"time"
)

// Streamer is a row of the creator directory, keyed by the Twitch-assigned ID.
// Description and ProfileImageURL are nullable; an upsert that omits them
// overwrites any previously stored value with NULL.
type Streamer struct {
	TwitchID        string    `db:"twitch_id" json:"twitch_id"`
	DisplayName     *string   `db:"display_name" json:"display_name"`
	Description     *string   `db:"description" json:"description"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profile_image_url"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
