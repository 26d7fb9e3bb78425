package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

const StagePublish = "clip:publish"

var publishOpts = model.JobOptions{Attempts: 3, BackoffBase: 5 * time.Second}

var baseHashtags = []string{"ElPatioRP", "GTARP", "GTAVRoleplay", "Roleplay", "GTA5", "Gaming"}

var platformHashtags = map[string][]string{
	model.PublishTikTok:        {"TikTokGaming", "FYP"},
	model.PublishInstagram:     {"InstaGaming", "Reels"},
	model.PublishYouTubeShorts: {"Shorts", "YouTubeShorts"},
}

type publishPayload struct {
	PublicationID string `json:"publication_id"`
	ClipID        string `json:"clip_id"`
	Platform      string `json:"platform"`
}

// PublicationDispatcher gates ready clips on their viral score and fans the
// approved ones out to every eligible social platform as independent queue
// jobs. One platform failing never touches its siblings.
type PublicationDispatcher struct {
	clipRepo     repository.IClip
	pubRepo      repository.IPublication
	streamerRepo repository.IStreamer
	queue        repository.IQueue
	publishers   map[string]repository.IPublisher
	broadcaster  repository.IBroadcaster

	autoPublishThreshold int
	reviewThreshold      int
}

func NewPublicationDispatcher(
	clipRepo repository.IClip,
	pubRepo repository.IPublication,
	streamerRepo repository.IStreamer,
	queue repository.IQueue,
	publishers []repository.IPublisher,
	broadcaster repository.IBroadcaster,
	autoPublishThreshold, reviewThreshold int,
) *PublicationDispatcher {
	byPlatform := make(map[string]repository.IPublisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}
	return &PublicationDispatcher{
		clipRepo:             clipRepo,
		pubRepo:              pubRepo,
		streamerRepo:         streamerRepo,
		queue:                queue,
		publishers:           byPlatform,
		broadcaster:          broadcaster,
		autoPublishThreshold: autoPublishThreshold,
		reviewThreshold:      reviewThreshold,
	}
}

// Register wires the publish worker onto the queue. Must be called before the
// queue starts running.
func (d *PublicationDispatcher) Register() {
	d.queue.RegisterWorker(StagePublish, 3, d.handlePublish)
	d.queue.OnFailed(StagePublish, d.onPublishFailed)
}

// RequestPublish routes a ready clip by its viral score: high scores publish
// automatically, middling ones wait for a human, the rest are rejected.
func (d *PublicationDispatcher) RequestPublish(ctx context.Context, clip *model.Clip) error {
	switch {
	case clip.ViralScore >= d.autoPublishThreshold:
		ok, err := d.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusReady, model.ClipStatusApproved)
		if err != nil {
			return err
		}
		if !ok {
			logger.GetLogger().WithField("clip", clip.ID).Warn("Clip already routed, skipping auto-publish")
			return nil
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"clip":  clip.ID,
			"score": clip.ViralScore,
		}).Info("Clip auto-approved for publishing")
		return d.dispatch(ctx, clip)

	case clip.ViralScore >= d.reviewThreshold:
		if _, err := d.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusReady, model.ClipStatusPendingApproval); err != nil {
			return err
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"clip":  clip.ID,
			"score": clip.ViralScore,
		}).Info("Clip queued for manual review")
		if d.broadcaster != nil {
			d.broadcaster.Broadcast("clips", "clip_pending_approval", clip)
		}
		return nil

	default:
		if _, err := d.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusReady, model.ClipStatusRejected); err != nil {
			return err
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"clip":  clip.ID,
			"score": clip.ViralScore,
		}).Info("Clip rejected by score gate")
		return nil
	}
}

// Approve moves a clip out of manual review and dispatches it.
func (d *PublicationDispatcher) Approve(ctx context.Context, clipID string) error {
	ok, err := d.clipRepo.UpdateStatusIf(ctx, clipID, model.ClipStatusPendingApproval, model.ClipStatusApproved)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("clip %s is not pending approval", clipID)
	}
	clip, err := d.clipRepo.GetByID(ctx, clipID)
	if err != nil {
		return err
	}
	return d.dispatch(ctx, clip)
}

// Reject discards a clip that was waiting for manual review.
func (d *PublicationDispatcher) Reject(ctx context.Context, clipID string) error {
	ok, err := d.clipRepo.UpdateStatusIf(ctx, clipID, model.ClipStatusPendingApproval, model.ClipStatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("clip %s is not pending approval", clipID)
	}
	logger.GetLogger().WithField("clip", clipID).Info("Clip rejected by reviewer")
	return nil
}

// dispatch creates one pending publication per eligible platform and enqueues
// an independent publish job for each.
func (d *PublicationDispatcher) dispatch(ctx context.Context, clip *model.Clip) error {
	platforms := eligiblePlatforms(clip)
	if len(platforms) == 0 {
		logger.GetLogger().WithField("clip", clip.ID).Warn("No publishable variants, nothing to dispatch")
		return nil
	}

	streamerName := ""
	if streamer, err := d.streamerRepo.GetByID(ctx, clip.StreamerID); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"clip":  clip.ID,
			"error": err,
		}).Warn("Failed to load streamer for caption")
	} else {
		streamerName = streamer.DisplayName
	}

	for _, platform := range platforms {
		if _, registered := d.publishers[platform]; !registered {
			continue
		}
		caption, hashtags := buildCaption(clip, streamerName, platform)
		pub := &model.Publication{
			ID:       uuid.NewString(),
			ClipID:   clip.ID,
			Platform: platform,
			Caption:  caption,
			Hashtags: hashtags,
			Status:   model.PublicationPending,
		}
		if err := d.pubRepo.Create(ctx, pub); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"clip":     clip.ID,
				"platform": platform,
				"error":    err,
			}).Error("Failed to create publication record")
			continue
		}
		payload := publishPayload{PublicationID: pub.ID, ClipID: clip.ID, Platform: platform}
		if _, err := d.queue.Enqueue(ctx, StagePublish, payload, publishOpts); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"publication": pub.ID,
				"error":       err,
			}).Error("Failed to enqueue publish job")
		}
	}
	return nil
}

func (d *PublicationDispatcher) handlePublish(ctx context.Context, job *model.Job) error {
	var payload publishPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode publish payload: %w", err)
	}
	pub, err := d.pubRepo.GetByID(ctx, payload.PublicationID)
	if err != nil {
		return fmt.Errorf("load publication: %w", err)
	}
	if pub.Status == model.PublicationPublished {
		return nil
	}
	clip, err := d.clipRepo.GetByID(ctx, payload.ClipID)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}
	publisher, registered := d.publishers[payload.Platform]
	if !registered {
		return fmt.Errorf("no publisher registered for %q", payload.Platform)
	}

	result, err := publisher.Publish(ctx, clip, pub.Caption, pub.Hashtags)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", payload.Platform, err)
	}
	if err := d.pubRepo.MarkPublished(ctx, pub.ID, result.PostID, result.URL); err != nil {
		return fmt.Errorf("mark publication published: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"clip":     clip.ID,
		"platform": payload.Platform,
		"url":      result.URL,
	}).Info("Clip published")

	// First platform to land moves the clip to published.
	if ok, err := d.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusApproved, model.ClipStatusPublished); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to advance clip to published")
	} else if ok && d.broadcaster != nil {
		d.broadcaster.Broadcast("clips", "clip_published", clip)
	}
	return nil
}

func (d *PublicationDispatcher) onPublishFailed(job *model.Job, err error) {
	var payload publishPayload
	if jsonErr := json.Unmarshal(job.Payload, &payload); jsonErr != nil {
		logger.GetLogger().WithField("error", jsonErr).Error("Failed publish job carried an undecodable payload")
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if markErr := d.pubRepo.MarkFailed(context.Background(), payload.PublicationID, msg); markErr != nil {
		logger.GetLogger().WithField("error", markErr).Error("Failed to mark publication failed")
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"publication": payload.PublicationID,
		"platform":    payload.Platform,
		"error":       err,
	}).Error("Publish job exhausted retries")
}

// eligiblePlatforms maps available clip variants to target platforms. The
// vertical cut feeds the short-form networks, the horizontal cut feeds
// Discord.
func eligiblePlatforms(clip *model.Clip) []string {
	var platforms []string
	if clip.VerticalFilePath != "" {
		platforms = append(platforms, model.PublishTikTok, model.PublishInstagram, model.PublishYouTubeShorts)
	}
	if clip.HorizontalFilePath != "" {
		platforms = append(platforms, model.PublishDiscord)
	}
	return platforms
}

func buildCaption(clip *model.Clip, streamerName, platform string) (string, []string) {
	var b strings.Builder
	b.WriteString(clip.Title + "\n\n")
	if clip.Description != "" {
		b.WriteString(clip.Description + "\n\n")
	}
	b.WriteString("📺 " + streamerName)

	hashtags := append([]string{}, baseHashtags...)
	hashtags = append(hashtags, platformHashtags[platform]...)

	tags := make([]string, len(hashtags))
	for i, h := range hashtags {
		tags[i] = "#" + h
	}
	b.WriteString("\n\n" + strings.Join(tags, " "))
	return b.String(), hashtags
}
