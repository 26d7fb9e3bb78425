package model

import "time"

// Streaming platforms the monitor polls, in priority order.
const (
	PlatformTwitch  = "twitch"
	PlatformYouTube = "youtube"
	PlatformKick    = "kick"
)

// Stream is one live broadcast session. Created when a streamer goes live with
// a valid RP stream, closed exactly once when they go offline or the stream
// stops qualifying.
type Stream struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	StreamerID       string     `gorm:"type:uuid;not null;index" json:"streamer_id"`
	Platform         string     `gorm:"not null" json:"platform"`
	PlatformStreamID string     `gorm:"not null" json:"platform_stream_id"`
	Title            string     `json:"title"`
	Game             string     `json:"game"`
	GameID           string     `json:"game_id,omitempty"`
	ViewerCount      int        `gorm:"default:0" json:"viewer_count"`
	StartedAt        time.Time  `gorm:"not null" json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	DurationSeconds  int        `json:"duration_seconds"`
	ThumbnailURL     string     `json:"thumbnail_url,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	IsValidRP        bool       `gorm:"column:is_valid_rp;default:true" json:"is_valid_rp"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Stream) TableName() string { return "streams" }

// LiveStreamInfo is what a platform adapter reports for a handle that is
// currently broadcasting.
type LiveStreamInfo struct {
	Platform     string    `json:"platform"`
	StreamID     string    `json:"stream_id"`
	StreamerName string    `json:"streamer_name"`
	Title        string    `json:"title"`
	Game         string    `json:"game"`
	GameID       string    `json:"game_id,omitempty"`
	ViewerCount  int       `json:"viewer_count"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	Language     string    `json:"language,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}
