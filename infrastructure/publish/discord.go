package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

// DiscordPublisher posts the horizontal clip to the community channel through
// a webhook, attaching the video file.
type DiscordPublisher struct {
	webhookURL string
	httpClient *http.Client
}

func NewDiscordPublisher(webhookURL string) repository.IPublisher {
	return &DiscordPublisher{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *DiscordPublisher) Platform() string { return model.PublishDiscord }

func (p *DiscordPublisher) Publish(ctx context.Context, clip *model.Clip, caption string, hashtags []string) (*model.PublishResult, error) {
	if p.webhookURL == "" {
		return nil, fmt.Errorf("discord webhook not configured")
	}
	if clip.HorizontalFilePath == "" {
		return nil, fmt.Errorf("clip %s has no horizontal variant", clip.ID)
	}

	file, err := os.Open(clip.HorizontalFilePath)
	if err != nil {
		return nil, fmt.Errorf("open clip file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("content", caption); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("files[0]", filepath.Base(clip.HorizontalFilePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	// wait=true makes Discord return the created message.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL+"?wait=true", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, string(body))
	}

	var msg struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, err
	}
	return &model.PublishResult{
		PostID: msg.ID,
		URL:    fmt.Sprintf("https://discord.com/channels/@me/%s/%s", msg.ChannelID, msg.ID),
	}, nil
}
