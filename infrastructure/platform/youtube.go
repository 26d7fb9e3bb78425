package platform

import (
	"context"
	"fmt"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubePlatform is the YouTube Data API liveness adapter (API-key mode).
// The handle it polls is a channel id.
type YouTubePlatform struct {
	service *youtube.Service
}

func NewYouTubePlatform(ctx context.Context, apiKey string) (repository.ILivePlatform, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubePlatform{service: svc}, nil
}

func (p *YouTubePlatform) Name() string { return model.PlatformYouTube }

func (p *YouTubePlatform) GetLiveStatus(ctx context.Context, channelID string) (*model.LiveStreamInfo, error) {
	search, err := p.service.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		EventType("live").
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube live search: %w", err)
	}
	if len(search.Items) == 0 {
		return nil, nil
	}

	videoID := search.Items[0].Id.VideoId
	details, err := p.service.Videos.List([]string{"snippet", "liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube video details: %w", err)
	}
	if len(details.Items) == 0 {
		return nil, nil
	}

	video := details.Items[0]
	info := &model.LiveStreamInfo{
		Platform:     model.PlatformYouTube,
		StreamID:     video.Id,
		StreamerName: video.Snippet.ChannelTitle,
		Title:        video.Snippet.Title,
		Game:         "Gaming",
		Language:     video.Snippet.DefaultLanguage,
		Tags:         video.Snippet.Tags,
	}
	if video.Snippet.CategoryId != "" {
		info.Game = video.Snippet.CategoryId
	}
	if video.Snippet.Thumbnails != nil {
		if video.Snippet.Thumbnails.Maxres != nil {
			info.ThumbnailURL = video.Snippet.Thumbnails.Maxres.Url
		} else if video.Snippet.Thumbnails.High != nil {
			info.ThumbnailURL = video.Snippet.Thumbnails.High.Url
		}
	}
	if video.LiveStreamingDetails != nil {
		info.ViewerCount = int(video.LiveStreamingDetails.ConcurrentViewers)
		if t, err := time.Parse(time.RFC3339, video.LiveStreamingDetails.ActualStartTime); err == nil {
			info.StartedAt = t
		}
	}
	if info.Language == "" {
		info.Language = "unknown"
	}
	return info, nil
}
