package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

type fakePublishRequestor struct {
	clips []*model.Clip
}

func (f *fakePublishRequestor) RequestPublish(_ context.Context, clip *model.Clip) error {
	f.clips = append(f.clips, clip)
	return nil
}

type pipelineEnv struct {
	streamer    *model.Streamer
	stream      *model.Stream
	clipRepo    *fakeClipRepo
	queue       *syncQueue
	broadcaster *fakeBroadcaster
	notifier    *fakeNotifier
	publisher   *fakePublishRequestor
	transform   *fakeTransform
	pipeline    *ClipPipeline
}

func newPipelineEnv(t *testing.T, capture *fakeCapture, transform *fakeTransform, transcriber repository.ITranscription, analyzer repository.IAnalyzer) *pipelineEnv {
	t.Helper()
	streamer := monitorStreamer()
	stream := &model.Stream{
		ID:         "stream-1",
		StreamerID: streamer.ID,
		Platform:   model.PlatformTwitch,
		Game:       "Grand Theft Auto V",
		StartedAt:  time.Now().Add(-time.Hour),
		IsActive:   true,
	}
	env := &pipelineEnv{
		streamer:    streamer,
		stream:      stream,
		clipRepo:    newFakeClipRepo(),
		queue:       newSyncQueue(),
		broadcaster: &fakeBroadcaster{},
		notifier:    &fakeNotifier{},
		publisher:   &fakePublishRequestor{},
		transform:   transform,
	}
	env.pipeline = NewClipPipeline(
		env.clipRepo,
		newFakeStreamRepo(stream),
		newFakeStreamerRepo(streamer),
		env.queue,
		capture,
		transform,
		transcriber,
		analyzer,
		NewViralScorer(),
		env.publisher,
		env.notifier,
		env.broadcaster,
		30*time.Second,
		t.TempDir(),
		"es",
	)
	env.pipeline.Register()
	return env
}

func TestPipelineRunsAllStages(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &model.ClipAnalysis{
		SuggestedTitle: "Tiroteo en el banco",
		Actions:        []string{"tiroteo"},
		AudioPeaks:     []float64{0.8},
		HasDialog:      true,
	}}
	transcriber := &fakeTranscriber{transcription: &model.Transcription{
		Transcript: "eso fue increible",
		Utterances: []model.Utterance{{StartSec: 1.0, EndSec: 2.5, Text: "eso fue increible"}},
	}}
	env := newPipelineEnv(t, &fakeCapture{path: "/tmp/raw.mp4"}, &fakeTransform{}, transcriber, analyzer)

	err := env.pipeline.QueueClipGeneration(context.Background(), env.stream, model.TriggerStreamStart)
	require.NoError(t, err)

	clips, _, err := env.clipRepo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	clip := clips[0]

	assert.Equal(t, model.ClipStatusReady, clip.Status)
	assert.Equal(t, "Tiroteo en el banco", clip.Title)
	assert.Equal(t, "/tmp/raw.mp4", clip.FilePath)
	assert.NotEmpty(t, clip.SubtitlesPath)
	assert.Equal(t, "/tmp/raw.mp4.subtitles.effects.branding", clip.EditedFilePath)
	assert.Equal(t, clip.EditedFilePath, clip.HorizontalFilePath)
	assert.Equal(t, clip.EditedFilePath+".reframe_9:16", clip.VerticalFilePath)
	assert.Equal(t, clip.EditedFilePath+".reframe_1:1", clip.SquareFilePath)
	assert.Equal(t, clip.EditedFilePath+".hook", clip.HookFilePath)

	// action 0.3*25 + audio 0.6*20 + duration 1.0*15 + dialog 0.4*15 +
	// timing 0.5*10 + title keyword 0.05*15 = 46.25
	assert.Equal(t, 46, clip.ViralScore)
	assert.Equal(t, "average", clip.Metadata["score_category"])
	assert.Equal(t, "reject", clip.Metadata["score_recommendation"])
	assert.Equal(t, "eso fue increible", clip.Metadata["transcript"])

	assert.Equal(t, 1, env.streamer.TotalClips)
	assert.Equal(t, 46, env.streamer.BestViralScore)
	assert.Equal(t, 1, env.notifier.clips)
	assert.True(t, env.broadcaster.has("clips", "clip_created"))
	assert.True(t, env.broadcaster.has("clips", "clip_edited"))
	assert.True(t, env.broadcaster.has("clips", "clip_ready"))

	require.Len(t, env.publisher.clips, 1)
	assert.Equal(t, clip.ID, env.publisher.clips[0].ID)
}

func TestPipelineEditStepsDegradeWithoutFreezing(t *testing.T) {
	transform := &fakeTransform{failKinds: map[repository.EditKind]bool{
		repository.EditSubtitles: true,
		repository.EditEffects:   true,
		repository.EditBranding:  true,
	}}
	transcriber := &fakeTranscriber{transcription: &model.Transcription{
		Transcript: "hola",
		Utterances: []model.Utterance{{StartSec: 0, EndSec: 1, Text: "hola"}},
	}}
	env := newPipelineEnv(t, &fakeCapture{path: "/tmp/raw.mp4"}, transform, transcriber, nil)

	require.NoError(t, env.pipeline.QueueClipGeneration(context.Background(), env.stream, model.TriggerCommand))

	clips, _, err := env.clipRepo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	clip := clips[0]

	// Every edit failed, so the raw capture flows through unchanged.
	assert.Equal(t, model.ClipStatusReady, clip.Status)
	assert.Equal(t, "/tmp/raw.mp4", clip.EditedFilePath)
	assert.Equal(t, "/tmp/raw.mp4.reframe_9:16", clip.VerticalFilePath)
}

func TestPipelineWorksWithoutOptionalCapabilities(t *testing.T) {
	env := newPipelineEnv(t, &fakeCapture{path: "/tmp/raw.mp4"}, &fakeTransform{}, nil, nil)

	require.NoError(t, env.pipeline.QueueClipGeneration(context.Background(), env.stream, model.TriggerStreamStart))

	clips, _, err := env.clipRepo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	clip := clips[0]

	assert.Equal(t, model.ClipStatusReady, clip.Status)
	assert.Equal(t, "Clip de Tester", clip.Title)
	assert.Empty(t, clip.SubtitlesPath)
	// neutral 0.5 sub-scores without analysis plus perfect duration
	assert.Equal(t, 50, clip.ViralScore)
}

func TestPipelineRetriesAndFreezesOnCaptureFailure(t *testing.T) {
	env := newPipelineEnv(t, &fakeCapture{err: os.ErrDeadlineExceeded}, &fakeTransform{}, nil, nil)

	require.NoError(t, env.pipeline.QueueClipGeneration(context.Background(), env.stream, model.TriggerStreamStart))

	clips, _, err := env.clipRepo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, clips)
	assert.Zero(t, env.queue.count(StageEdit))
}

func TestWriteSubtitlesFormat(t *testing.T) {
	p := &ClipPipeline{storagePath: t.TempDir()}
	path, err := p.writeSubtitles("clip-1", []model.Utterance{
		{StartSec: 1.0, EndSec: 2.5, Text: "hola"},
		{StartSec: 3661.25, EndSec: 3662.0, Text: "adiós"},
	})
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "1\n00:00:01,000 --> 00:00:02,500\nhola\n\n" +
		"2\n01:01:01,250 --> 01:01:02,000\nadiós\n\n"
	assert.Equal(t, expected, string(body))
}

func TestSRTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00,000", srtTimestamp(0))
	assert.Equal(t, "00:00:01,500", srtTimestamp(1.5))
	assert.Equal(t, "01:01:01,250", srtTimestamp(3661.25))
	assert.Equal(t, "00:00:00,000", srtTimestamp(-5))
}
