package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

// DiscordNotifier posts stream and clip events as Discord webhook embeds.
// All sends are best-effort: failures are logged, never returned.
type DiscordNotifier struct {
	notificationsURL string
	clipsURL         string
	httpClient       *http.Client
}

func NewDiscordNotifier(notificationsURL, clipsURL string) repository.INotifier {
	return &DiscordNotifier{
		notificationsURL: notificationsURL,
		clipsURL:         clipsURL,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Image       *discordEmbedMedia  `json:"image,omitempty"`
	Thumbnail   *discordEmbedMedia  `json:"thumbnail,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedMedia struct {
	URL string `json:"url"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

func (n *DiscordNotifier) NotifyStreamStart(ctx context.Context, streamer *model.Streamer, info *model.LiveStreamInfo) {
	embed := discordEmbed{
		Title:       fmt.Sprintf("🔴 %s está en vivo!", streamer.DisplayName),
		Description: info.Title,
		Color:       0x00FF00,
		Fields: []discordEmbedField{
			{Name: "🎮 Juego", Value: orNA(info.Game), Inline: true},
			{Name: "👥 Espectadores", Value: fmt.Sprintf("%d", info.ViewerCount), Inline: true},
			{Name: "🌐 Plataforma", Value: info.Platform, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordEmbedFooter{Text: "El Patio RP Pro"},
	}
	if info.ThumbnailURL != "" {
		embed.Image = &discordEmbedMedia{URL: info.ThumbnailURL}
	}
	if streamer.ProfileImageURL != "" {
		embed.Thumbnail = &discordEmbedMedia{URL: streamer.ProfileImageURL}
	}
	n.send(ctx, n.notificationsURL, embed)
}

func (n *DiscordNotifier) NotifyStreamEnd(ctx context.Context, streamer *model.Streamer, stream *model.Stream) {
	minutes := stream.DurationSeconds / 60
	if minutes == 0 && stream.EndedAt != nil {
		minutes = int(stream.EndedAt.Sub(stream.StartedAt).Minutes())
	}
	embed := discordEmbed{
		Title:       fmt.Sprintf("⚫ %s terminó el stream", streamer.DisplayName),
		Description: fmt.Sprintf("Stream de %d minutos", minutes),
		Color:       0x808080,
		Fields: []discordEmbedField{
			{Name: "🎮 Juego", Value: orNA(stream.Game), Inline: true},
			{Name: "👥 Pico de Espectadores", Value: fmt.Sprintf("%d", stream.ViewerCount), Inline: true},
			{Name: "⏱️ Duración", Value: fmt.Sprintf("%d minutos", minutes), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordEmbedFooter{Text: "El Patio RP Pro"},
	}
	n.send(ctx, n.notificationsURL, embed)
}

func (n *DiscordNotifier) NotifyNewClip(ctx context.Context, clip *model.Clip, streamer *model.Streamer) {
	color := 0xFF0000
	if clip.ViralScore >= 80 {
		color = 0x00FF00
	} else if clip.ViralScore >= 50 {
		color = 0xFFA500
	}
	embed := discordEmbed{
		Title:       fmt.Sprintf("🎬 Nuevo Clip: %s", clip.Title),
		Description: clip.Description,
		Color:       color,
		Fields: []discordEmbedField{
			{Name: "👤 Streamer", Value: streamer.DisplayName, Inline: true},
			{Name: "📊 Viral Score", Value: fmt.Sprintf("%d/100", clip.ViralScore), Inline: true},
			{Name: "⏱️ Duración", Value: fmt.Sprintf("%ds", clip.Duration), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordEmbedFooter{Text: "Clip ID: " + clip.ID},
	}
	if clip.ThumbnailURL != "" {
		embed.Image = &discordEmbedMedia{URL: clip.ThumbnailURL}
	}
	n.send(ctx, n.clipsURL, embed)
}

func (n *DiscordNotifier) send(ctx context.Context, webhookURL string, embed discordEmbed) {
	if webhookURL == "" {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"embeds": []discordEmbed{embed}})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to encode Discord embed")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to build Discord request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Discord notification failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.GetLogger().WithField("status", resp.StatusCode).Warn("Discord webhook rejected notification")
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
