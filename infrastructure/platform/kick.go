package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

const kickChannelURL = "https://kick.com/api/v2/channels/%s"

// KickPlatform is the Kick public channel API liveness adapter.
type KickPlatform struct {
	httpClient *http.Client
}

func NewKickPlatform() repository.ILivePlatform {
	return &KickPlatform{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (p *KickPlatform) Name() string { return model.PlatformKick }

type kickChannel struct {
	ID   int64 `json:"id"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Livestream *struct {
		ID           int64    `json:"id"`
		SessionTitle string   `json:"session_title"`
		CreatedAt    string   `json:"created_at"`
		ViewerCount  int      `json:"viewer_count"`
		Language     string   `json:"language"`
		Tags         []string `json:"tags"`
		Categories   []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
		Thumbnail *struct {
			URL string `json:"url"`
		} `json:"thumbnail"`
	} `json:"livestream"`
}

func (p *KickPlatform) GetLiveStatus(ctx context.Context, handle string) (*model.LiveStreamInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(kickChannelURL, handle), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kick channel endpoint returned %d", resp.StatusCode)
	}

	var ch kickChannel
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, err
	}
	if ch.Livestream == nil {
		return nil, nil
	}

	ls := ch.Livestream
	info := &model.LiveStreamInfo{
		Platform:     model.PlatformKick,
		StreamID:     strconv.FormatInt(ls.ID, 10),
		StreamerName: ch.User.Username,
		Title:        ls.SessionTitle,
		Game:         "Unknown",
		ViewerCount:  ls.ViewerCount,
		Language:     ls.Language,
		Tags:         ls.Tags,
	}
	if len(ls.Categories) > 0 {
		info.Game = ls.Categories[0].Name
		info.GameID = strconv.FormatInt(ls.Categories[0].ID, 10)
	}
	if ls.Thumbnail != nil {
		info.ThumbnailURL = ls.Thumbnail.URL
	}
	if t, err := time.Parse(time.RFC3339, ls.CreatedAt); err == nil {
		info.StartedAt = t
	}
	if info.Language == "" {
		info.Language = "unknown"
	}
	return info, nil
}
