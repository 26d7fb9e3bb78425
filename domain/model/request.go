package model

// ReqRegisterStreamer is the payload for adding a streamer to the monitor.
type ReqRegisterStreamer struct {
	DisplayName      string `json:"display_name" binding:"required"`
	TwitchUsername   string `json:"twitch_username"`
	YouTubeChannelID string `json:"youtube_channel_id"`
	KickUsername     string `json:"kick_username"`
	ProfileImageURL  string `json:"profile_image_url"`
	Bio              string `json:"bio"`
}
