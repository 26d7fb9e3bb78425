package publish

import (
	"context"
	"fmt"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

// The short-form platform publishers are placeholders until the TikTok
// Content Posting API, Instagram Graph API and YouTube upload integrations
// land. They record the intent and return synthetic references so the rest of
// the dispatch flow is exercised end to end.

type TikTokPublisher struct{}

func NewTikTokPublisher() repository.IPublisher { return &TikTokPublisher{} }

func (p *TikTokPublisher) Platform() string { return model.PublishTikTok }

func (p *TikTokPublisher) Publish(ctx context.Context, clip *model.Clip, caption string, hashtags []string) (*model.PublishResult, error) {
	if clip.VerticalFilePath == "" {
		return nil, fmt.Errorf("clip %s has no vertical variant", clip.ID)
	}
	logger.GetLogger().WithField("clip_id", clip.ID).Info("Publishing to TikTok")
	return &model.PublishResult{
		PostID: fmt.Sprintf("tiktok_%d", time.Now().UnixMilli()),
		URL:    "https://tiktok.com/@elpatiorp/video/" + clip.ID,
	}, nil
}

type InstagramPublisher struct{}

func NewInstagramPublisher() repository.IPublisher { return &InstagramPublisher{} }

func (p *InstagramPublisher) Platform() string { return model.PublishInstagram }

func (p *InstagramPublisher) Publish(ctx context.Context, clip *model.Clip, caption string, hashtags []string) (*model.PublishResult, error) {
	if clip.VerticalFilePath == "" {
		return nil, fmt.Errorf("clip %s has no vertical variant", clip.ID)
	}
	logger.GetLogger().WithField("clip_id", clip.ID).Info("Publishing to Instagram")
	return &model.PublishResult{
		PostID: fmt.Sprintf("ig_%d", time.Now().UnixMilli()),
		URL:    "https://instagram.com/p/" + clip.ID,
	}, nil
}

type YouTubeShortsPublisher struct{}

func NewYouTubeShortsPublisher() repository.IPublisher { return &YouTubeShortsPublisher{} }

func (p *YouTubeShortsPublisher) Platform() string { return model.PublishYouTubeShorts }

func (p *YouTubeShortsPublisher) Publish(ctx context.Context, clip *model.Clip, caption string, hashtags []string) (*model.PublishResult, error) {
	if clip.VerticalFilePath == "" {
		return nil, fmt.Errorf("clip %s has no vertical variant", clip.ID)
	}
	logger.GetLogger().WithField("clip_id", clip.ID).Info("Publishing to YouTube Shorts")
	return &model.PublishResult{
		PostID: fmt.Sprintf("yt_%d", time.Now().UnixMilli()),
		URL:    "https://youtube.com/shorts/" + clip.ID,
	}, nil
}
