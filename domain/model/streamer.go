package model

import "time"

// Streamer is a tracked broadcaster. Liveness fields (IsLive, CurrentStreamID,
// ViewerCount) are written only by the stream monitor.
type Streamer struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName      string     `gorm:"not null" json:"display_name"`
	TwitchUsername   *string    `gorm:"uniqueIndex" json:"twitch_username,omitempty"`
	YouTubeChannelID *string    `gorm:"column:youtube_channel_id;uniqueIndex" json:"youtube_channel_id,omitempty"`
	KickUsername     *string    `gorm:"uniqueIndex" json:"kick_username,omitempty"`
	ProfileImageURL  string     `json:"profile_image_url,omitempty"`
	Bio              string     `gorm:"type:text" json:"bio,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	IsLive           bool       `gorm:"default:false" json:"is_live"`
	CurrentStreamID  *string    `gorm:"type:uuid" json:"current_stream_id,omitempty"`
	ViewerCount      int        `gorm:"default:0" json:"viewer_count"`
	TotalClips       int        `gorm:"default:0" json:"total_clips"`
	BestViralScore   int        `gorm:"default:0" json:"best_viral_score"`
	LastStreamAt     *time.Time `json:"last_stream_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Streamer) TableName() string { return "streamers" }

// Handle returns the streamer's handle for the given platform, empty when the
// platform is not linked.
func (s *Streamer) Handle(platform string) string {
	var h *string
	switch platform {
	case PlatformTwitch:
		h = s.TwitchUsername
	case PlatformYouTube:
		h = s.YouTubeChannelID
	case PlatformKick:
		h = s.KickUsername
	}
	if h == nil {
		return ""
	}
	return *h
}
