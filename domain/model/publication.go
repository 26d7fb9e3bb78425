package model

import (
	"time"

	"github.com/lib/pq"
)

// Social platforms a clip can be published to.
const (
	PublishTikTok        = "tiktok"
	PublishInstagram     = "instagram"
	PublishYouTubeShorts = "youtube_shorts"
	PublishDiscord       = "discord"
)

// Publication statuses.
const (
	PublicationPending   = "pending"
	PublicationPublished = "published"
	PublicationFailed    = "failed"
)

// Publication is one platform-specific publish attempt-group for a clip.
// Exactly one row exists per (clip, platform) pair; sibling platforms are
// fully independent.
type Publication struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	ClipID         string         `gorm:"type:uuid;not null;index:idx_publications_clip_platform,unique" json:"clip_id"`
	Platform       string         `gorm:"not null;index:idx_publications_clip_platform,unique" json:"platform"`
	PlatformPostID string         `json:"platform_post_id,omitempty"`
	PlatformURL    string         `json:"platform_url,omitempty"`
	Caption        string         `gorm:"type:text" json:"caption,omitempty"`
	Hashtags       pq.StringArray `gorm:"type:text[]" json:"hashtags,omitempty"`
	Status         string         `gorm:"type:varchar(32);default:pending" json:"status"`
	ErrorMessage   *string        `json:"error_message,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Publication) TableName() string { return "publications" }

// PublishResult is what a platform publish capability returns on success.
type PublishResult struct {
	PostID string `json:"post_id"`
	URL    string `json:"url"`
}
