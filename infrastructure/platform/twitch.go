package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"github.com/google/go-querystring/query"
)

const (
	twitchTokenURL   = "https://id.twitch.tv/oauth2/token"
	twitchStreamsURL = "https://api.twitch.tv/helix/streams"
)

// TwitchPlatform is the Twitch Helix liveness adapter. It maintains an
// app-access token via the client-credentials flow and refreshes it before
// expiry.
type TwitchPlatform struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewTwitchPlatform(clientID, clientSecret string) repository.ILivePlatform {
	return &TwitchPlatform{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *TwitchPlatform) Name() string { return model.PlatformTwitch }

type twitchStreamsQuery struct {
	UserLogin string `url:"user_login"`
	First     int    `url:"first"`
}

type twitchStream struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	UserName     string   `json:"user_name"`
	GameID       string   `json:"game_id"`
	GameName     string   `json:"game_name"`
	Title        string   `json:"title"`
	ViewerCount  int      `json:"viewer_count"`
	StartedAt    string   `json:"started_at"`
	Language     string   `json:"language"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
}

func (p *TwitchPlatform) GetLiveStatus(ctx context.Context, handle string) (*model.LiveStreamInfo, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("twitch token: %w", err)
	}

	params, err := query.Values(twitchStreamsQuery{UserLogin: handle, First: 1})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, twitchStreamsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", p.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitch streams returned %d", resp.StatusCode)
	}

	var body struct {
		Data []twitchStream `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}

	s := body.Data[0]
	startedAt, _ := time.Parse(time.RFC3339, s.StartedAt)
	thumb := strings.NewReplacer("{width}", "1920", "{height}", "1080").Replace(s.ThumbnailURL)
	return &model.LiveStreamInfo{
		Platform:     model.PlatformTwitch,
		StreamID:     s.ID,
		StreamerName: s.UserName,
		Title:        s.Title,
		Game:         s.GameName,
		GameID:       s.GameID,
		ViewerCount:  s.ViewerCount,
		ThumbnailURL: thumb,
		StartedAt:    startedAt,
		Language:     s.Language,
		Tags:         s.Tags,
	}, nil
}

func (p *TwitchPlatform) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitchTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("twitch token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	p.accessToken = body.AccessToken
	// Refresh one minute early.
	p.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return p.accessToken, nil
}
