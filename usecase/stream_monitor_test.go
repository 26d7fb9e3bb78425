package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

type fakeClipRequestor struct {
	triggers []model.TriggerKind
	streams  []string
}

func (f *fakeClipRequestor) QueueClipGeneration(_ context.Context, stream *model.Stream, trigger model.TriggerKind) error {
	f.triggers = append(f.triggers, trigger)
	f.streams = append(f.streams, stream.ID)
	return nil
}

func ptr(s string) *string { return &s }

func liveInfo(platform string) *model.LiveStreamInfo {
	return &model.LiveStreamInfo{
		Platform:     platform,
		StreamID:     platform + "-12345",
		StreamerName: "tester",
		Title:        "El Patio RP en vivo",
		Game:         "Grand Theft Auto V",
		ViewerCount:  250,
		StartedAt:    time.Now().Add(-time.Minute),
	}
}

func monitorStreamer() *model.Streamer {
	return &model.Streamer{
		ID:               "streamer-1",
		DisplayName:      "Tester",
		TwitchUsername:   ptr("tester_tw"),
		YouTubeChannelID: ptr("UCtester"),
		KickUsername:     ptr("tester_kick"),
		IsActive:         true,
	}
}

func newMonitor(
	streamerRepo *fakeStreamerRepo,
	streamRepo *fakeStreamRepo,
	platforms []repository.ILivePlatform,
	clips repository.IClipRequestor,
	notifier repository.INotifier,
	broadcaster repository.IBroadcaster,
) *StreamMonitor {
	return NewStreamMonitor(
		streamerRepo, streamRepo, platforms, defaultValidator(),
		clips, notifier, broadcaster,
		time.Minute, model.TriggerStreamStart,
	)
}

func TestTickStartsStreamOnFirstLivePlatform(t *testing.T) {
	streamer := monitorStreamer()
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo()
	twitch := &fakePlatform{name: model.PlatformTwitch, info: liveInfo(model.PlatformTwitch)}
	youtube := &fakePlatform{name: model.PlatformYouTube, info: liveInfo(model.PlatformYouTube)}
	kick := &fakePlatform{name: model.PlatformKick}
	clips := &fakeClipRequestor{}
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch, youtube, kick}, clips, notifier, broadcaster)
	m.Tick(context.Background())

	// Twitch answered live, so the lower-priority platforms were never asked.
	assert.Equal(t, 1, twitch.calls)
	assert.Zero(t, youtube.calls)
	assert.Zero(t, kick.calls)

	assert.True(t, streamer.IsLive)
	require.NotNil(t, streamer.CurrentStreamID)
	stream, err := streamRepo.GetByID(context.Background(), *streamer.CurrentStreamID)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformTwitch, stream.Platform)
	assert.Equal(t, 250, stream.ViewerCount)

	assert.Equal(t, 1, notifier.starts)
	assert.True(t, broadcaster.has("streams", "stream_started"))
	require.Len(t, clips.triggers, 1)
	assert.Equal(t, model.TriggerStreamStart, clips.triggers[0])
}

func TestTickFallsThroughWhenHigherPriorityPlatformErrors(t *testing.T) {
	streamer := monitorStreamer()
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo()
	twitch := &fakePlatform{name: model.PlatformTwitch, err: context.DeadlineExceeded}
	kick := &fakePlatform{name: model.PlatformKick, info: liveInfo(model.PlatformKick)}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch, kick}, nil, nil, nil)
	m.Tick(context.Background())

	assert.Equal(t, 1, twitch.calls)
	assert.Equal(t, 1, kick.calls)
	assert.True(t, streamer.IsLive)
	require.NotNil(t, streamer.CurrentStreamID)
	stream, err := streamRepo.GetByID(context.Background(), *streamer.CurrentStreamID)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformKick, stream.Platform)
}

func TestTickIgnoresNonQualifyingStream(t *testing.T) {
	streamer := monitorStreamer()
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo()
	info := liveInfo(model.PlatformTwitch)
	info.Game = "Just Chatting"
	twitch := &fakePlatform{name: model.PlatformTwitch, info: info}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch}, nil, nil, nil)
	m.Tick(context.Background())

	assert.False(t, streamer.IsLive)
	assert.Nil(t, streamer.CurrentStreamID)
	active, err := streamRepo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestTickUpdatesRunningStream(t *testing.T) {
	streamer := monitorStreamer()
	stream := &model.Stream{
		ID:         "stream-1",
		StreamerID: streamer.ID,
		Platform:   model.PlatformTwitch,
		Title:      "El Patio RP en vivo",
		Game:       "Grand Theft Auto V",
		StartedAt:  time.Now().Add(-time.Hour),
		IsActive:   true,
	}
	streamer.IsLive = true
	streamer.CurrentStreamID = &stream.ID
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo(stream)

	info := liveInfo(model.PlatformTwitch)
	info.Title = "El Patio RP día 2"
	info.ViewerCount = 900
	twitch := &fakePlatform{name: model.PlatformTwitch, info: info}
	broadcaster := &fakeBroadcaster{}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch}, nil, nil, broadcaster)
	m.Tick(context.Background())

	assert.Equal(t, "El Patio RP día 2", stream.Title)
	assert.Equal(t, 900, stream.ViewerCount)
	assert.Equal(t, 900, streamer.ViewerCount)
	assert.True(t, broadcaster.has("streams", "stream_updated"))
}

func TestTickEndsStreamOnInvalidGameChange(t *testing.T) {
	streamer := monitorStreamer()
	stream := &model.Stream{
		ID:         "stream-1",
		StreamerID: streamer.ID,
		Platform:   model.PlatformTwitch,
		Game:       "Grand Theft Auto V",
		StartedAt:  time.Now().Add(-time.Hour),
		IsActive:   true,
		IsValidRP:  true,
	}
	streamer.IsLive = true
	streamer.CurrentStreamID = &stream.ID
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo(stream)

	info := liveInfo(model.PlatformTwitch)
	info.Game = "Fortnite"
	twitch := &fakePlatform{name: model.PlatformTwitch, info: info}
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch}, nil, notifier, broadcaster)
	m.Tick(context.Background())

	assert.False(t, streamer.IsLive)
	assert.Nil(t, streamer.CurrentStreamID)
	assert.NotNil(t, stream.EndedAt)
	assert.False(t, stream.IsValidRP)
	assert.Equal(t, 1, notifier.ends)
	assert.True(t, broadcaster.has("streams", "stream_ended"))
}

func TestTickEndsStreamWhenOffline(t *testing.T) {
	streamer := monitorStreamer()
	stream := &model.Stream{
		ID:         "stream-1",
		StreamerID: streamer.ID,
		Platform:   model.PlatformTwitch,
		Game:       "Grand Theft Auto V",
		StartedAt:  time.Now().Add(-2 * time.Hour),
		IsActive:   true,
	}
	streamer.IsLive = true
	streamer.CurrentStreamID = &stream.ID
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo(stream)

	twitch := &fakePlatform{name: model.PlatformTwitch}
	youtube := &fakePlatform{name: model.PlatformYouTube}
	kick := &fakePlatform{name: model.PlatformKick}
	notifier := &fakeNotifier{}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch, youtube, kick}, nil, notifier, nil)
	m.Tick(context.Background())

	// All platforms were consulted before declaring the streamer offline.
	assert.Equal(t, 1, twitch.calls)
	assert.Equal(t, 1, youtube.calls)
	assert.Equal(t, 1, kick.calls)

	assert.False(t, streamer.IsLive)
	assert.NotNil(t, stream.EndedAt)
	assert.GreaterOrEqual(t, stream.DurationSeconds, 7100)
	assert.Equal(t, 1, notifier.ends)
}

func TestTickSkipsWhenPreviousStillRunning(t *testing.T) {
	streamer := monitorStreamer()
	streamerRepo := newFakeStreamerRepo(streamer)
	streamRepo := newFakeStreamRepo()
	twitch := &fakePlatform{name: model.PlatformTwitch, info: liveInfo(model.PlatformTwitch)}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch}, nil, nil, nil)
	m.ticking.Store(true)
	m.Tick(context.Background())

	assert.Zero(t, twitch.calls)
	assert.False(t, streamer.IsLive)

	m.ticking.Store(false)
	m.Tick(context.Background())
	assert.Equal(t, 1, twitch.calls)
	assert.True(t, streamer.IsLive)
}

func TestTickIsolatesPerStreamerFailures(t *testing.T) {
	broken := &model.Streamer{ID: "broken", DisplayName: "Broken", IsActive: true, IsLive: true, CurrentStreamID: ptr("missing-stream")}
	healthy := monitorStreamer()
	streamerRepo := newFakeStreamerRepo(broken, healthy)
	streamRepo := newFakeStreamRepo()
	twitch := &fakePlatform{name: model.PlatformTwitch, info: liveInfo(model.PlatformTwitch)}

	m := newMonitor(streamerRepo, streamRepo, []repository.ILivePlatform{twitch}, nil, nil, nil)
	m.Tick(context.Background())

	// The broken streamer's missing stream record does not keep the healthy
	// one from being tracked.
	assert.True(t, healthy.IsLive)
}
