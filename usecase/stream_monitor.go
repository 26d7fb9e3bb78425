package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

// StreamMonitor polls every active streamer on a fixed interval and keeps the
// streamer/stream state in sync with what the platforms report. Platforms are
// queried in priority order and the first live result wins. Clips, notifier
// and broadcaster are optional collaborators; the monitor runs without them.
type StreamMonitor struct {
	streamerRepo repository.IStreamer
	streamRepo   repository.IStream
	platforms    []repository.ILivePlatform
	validator    *RPValidator
	clips        repository.IClipRequestor
	notifier     repository.INotifier
	broadcaster  repository.IBroadcaster

	interval    time.Duration
	clipTrigger model.TriggerKind
	ticking     atomic.Bool
}

func NewStreamMonitor(
	streamerRepo repository.IStreamer,
	streamRepo repository.IStream,
	platforms []repository.ILivePlatform,
	validator *RPValidator,
	clips repository.IClipRequestor,
	notifier repository.INotifier,
	broadcaster repository.IBroadcaster,
	interval time.Duration,
	clipTrigger model.TriggerKind,
) *StreamMonitor {
	return &StreamMonitor{
		streamerRepo: streamerRepo,
		streamRepo:   streamRepo,
		platforms:    platforms,
		validator:    validator,
		clips:        clips,
		notifier:     notifier,
		broadcaster:  broadcaster,
		interval:     interval,
		clipTrigger:  clipTrigger,
	}
}

// Run polls until the context is cancelled. An immediate tick precedes the
// ticker so a fresh deploy does not wait a full interval.
func (m *StreamMonitor) Run(ctx context.Context) error {
	logger.GetLogger().WithField("interval", m.interval.String()).Info("Stream monitor started")
	m.Tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("Stream monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick checks every active streamer once. A tick still in flight when the
// next one fires makes the new tick a no-op instead of piling up.
func (m *StreamMonitor) Tick(ctx context.Context) {
	if !m.ticking.CompareAndSwap(false, true) {
		logger.GetLogger().Warn("Previous monitor tick still running, skipping")
		return
	}
	defer m.ticking.Store(false)

	streamers, err := m.streamerRepo.ListActive(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to list active streamers")
		return
	}
	for _, streamer := range streamers {
		if err := m.checkStreamer(ctx, streamer); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"streamer": streamer.DisplayName,
				"error":    err,
			}).Error("Streamer check failed")
		}
	}
}

func (m *StreamMonitor) checkStreamer(ctx context.Context, streamer *model.Streamer) error {
	info := m.findLive(ctx, streamer)
	if info == nil {
		return m.handleOffline(ctx, streamer)
	}
	return m.handleLive(ctx, streamer, info)
}

// findLive queries the platforms in priority order and stops at the first one
// reporting the streamer live. Adapter errors are logged and treated as
// offline on that platform so one flaky API cannot blind the others.
func (m *StreamMonitor) findLive(ctx context.Context, streamer *model.Streamer) *model.LiveStreamInfo {
	for _, platform := range m.platforms {
		handle := streamer.Handle(platform.Name())
		if handle == "" {
			continue
		}
		info, err := platform.GetLiveStatus(ctx, handle)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"platform": platform.Name(),
				"streamer": streamer.DisplayName,
				"error":    err,
			}).Warn("Live status lookup failed")
			continue
		}
		if info != nil {
			return info
		}
	}
	return nil
}

func (m *StreamMonitor) handleLive(ctx context.Context, streamer *model.Streamer, info *model.LiveStreamInfo) error {
	if streamer.IsLive && streamer.CurrentStreamID != nil {
		return m.updateLiveStream(ctx, streamer, info)
	}
	return m.startStream(ctx, streamer, info)
}

func (m *StreamMonitor) startStream(ctx context.Context, streamer *model.Streamer, info *model.LiveStreamInfo) error {
	if !m.validator.ValidateRPStream(info) {
		logger.GetLogger().WithFields(map[string]interface{}{
			"streamer": streamer.DisplayName,
			"platform": info.Platform,
		}).Info("Live stream did not qualify, not tracking")
		return nil
	}

	stream := &model.Stream{
		ID:               uuid.NewString(),
		StreamerID:       streamer.ID,
		Platform:         info.Platform,
		PlatformStreamID: info.StreamID,
		Title:            info.Title,
		Game:             info.Game,
		GameID:           info.GameID,
		ViewerCount:      info.ViewerCount,
		StartedAt:        info.StartedAt,
		ThumbnailURL:     info.ThumbnailURL,
		IsActive:         true,
		IsValidRP:        true,
	}
	if err := m.streamRepo.Create(ctx, stream); err != nil {
		return err
	}
	if err := m.streamerRepo.SetLiveState(ctx, streamer.ID, true, &stream.ID, info.ViewerCount); err != nil {
		return err
	}
	streamer.IsLive = true
	streamer.CurrentStreamID = &stream.ID

	logger.GetLogger().WithFields(map[string]interface{}{
		"streamer": streamer.DisplayName,
		"platform": info.Platform,
		"title":    info.Title,
	}).Info("Stream started")

	if m.notifier != nil {
		m.notifier.NotifyStreamStart(ctx, streamer, info)
	}
	if m.broadcaster != nil {
		m.broadcaster.Broadcast("streams", "stream_started", stream)
	}
	if m.clips != nil && m.clipTrigger == model.TriggerStreamStart {
		if err := m.clips.QueueClipGeneration(ctx, stream, model.TriggerStreamStart); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to queue stream-start clip")
		}
	}
	return nil
}

func (m *StreamMonitor) updateLiveStream(ctx context.Context, streamer *model.Streamer, info *model.LiveStreamInfo) error {
	stream, err := m.streamRepo.GetByID(ctx, *streamer.CurrentStreamID)
	if err != nil {
		return err
	}

	if m.validator.IsGameChangeInvalid(stream.Game, info.Game) || !m.validator.ValidateRPStream(info) {
		logger.GetLogger().WithFields(map[string]interface{}{
			"streamer": streamer.DisplayName,
			"game":     info.Game,
		}).Warn("Stream no longer qualifies, ending tracking")
		stream.IsValidRP = false
		if err := m.streamRepo.Update(ctx, stream); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to flag stream as invalid")
		}
		return m.endStream(ctx, streamer, stream)
	}

	stream.Title = info.Title
	stream.Game = info.Game
	stream.ViewerCount = info.ViewerCount
	if err := m.streamRepo.Update(ctx, stream); err != nil {
		return err
	}
	if err := m.streamerRepo.SetLiveState(ctx, streamer.ID, true, &stream.ID, info.ViewerCount); err != nil {
		return err
	}
	if m.broadcaster != nil {
		m.broadcaster.Broadcast("streams", "stream_updated", stream)
	}
	return nil
}

func (m *StreamMonitor) handleOffline(ctx context.Context, streamer *model.Streamer) error {
	if !streamer.IsLive || streamer.CurrentStreamID == nil {
		return nil
	}
	stream, err := m.streamRepo.GetByID(ctx, *streamer.CurrentStreamID)
	if err != nil {
		return err
	}
	return m.endStream(ctx, streamer, stream)
}

func (m *StreamMonitor) endStream(ctx context.Context, streamer *model.Streamer, stream *model.Stream) error {
	if err := m.streamRepo.End(ctx, stream.ID); err != nil {
		return err
	}
	if err := m.streamerRepo.SetLiveState(ctx, streamer.ID, false, nil, 0); err != nil {
		return err
	}
	streamer.IsLive = false
	streamer.CurrentStreamID = nil

	logger.GetLogger().WithFields(map[string]interface{}{
		"streamer": streamer.DisplayName,
		"stream":   stream.ID,
	}).Info("Stream ended")

	if m.notifier != nil {
		m.notifier.NotifyStreamEnd(ctx, streamer, stream)
	}
	if m.broadcaster != nil {
		m.broadcaster.Broadcast("streams", "stream_ended", stream)
	}
	return nil
}
