package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

// Pipeline stages.
const (
	StageGenerate = "clip:generate"
	StageEdit     = "clip:edit"
	StageConvert  = "clip:convert"
)

var (
	generateOpts = model.JobOptions{Attempts: 3, BackoffBase: 2 * time.Second}
	editOpts     = model.JobOptions{Attempts: 3, BackoffBase: 2 * time.Second}
	convertOpts  = model.JobOptions{Attempts: 3, BackoffBase: 2 * time.Second}
)

type generatePayload struct {
	StreamID   string            `json:"stream_id"`
	StreamerID string            `json:"streamer_id"`
	Trigger    model.TriggerKind `json:"trigger"`
}

type clipPayload struct {
	ClipID string `json:"clip_id"`
}

// ClipPipeline runs the generate -> edit -> convert stages over the durable
// queue. Each stage finishes by enqueueing the next; a stage that exhausts
// its retries freezes the clip where it stands. Transcription, analysis,
// publishing, notifier and broadcaster are optional collaborators.
type ClipPipeline struct {
	clipRepo     repository.IClip
	streamRepo   repository.IStream
	streamerRepo repository.IStreamer
	queue        repository.IQueue
	capture      repository.IMediaCapture
	transform    repository.IMediaTransform
	transcriber  repository.ITranscription
	analyzer     repository.IAnalyzer
	scorer       *ViralScorer
	publisher    repository.IPublishRequestor
	notifier     repository.INotifier
	broadcaster  repository.IBroadcaster

	clipDuration time.Duration
	storagePath  string
	language     string
}

func NewClipPipeline(
	clipRepo repository.IClip,
	streamRepo repository.IStream,
	streamerRepo repository.IStreamer,
	queue repository.IQueue,
	capture repository.IMediaCapture,
	transform repository.IMediaTransform,
	transcriber repository.ITranscription,
	analyzer repository.IAnalyzer,
	scorer *ViralScorer,
	publisher repository.IPublishRequestor,
	notifier repository.INotifier,
	broadcaster repository.IBroadcaster,
	clipDuration time.Duration,
	storagePath string,
	language string,
) *ClipPipeline {
	return &ClipPipeline{
		clipRepo:     clipRepo,
		streamRepo:   streamRepo,
		streamerRepo: streamerRepo,
		queue:        queue,
		capture:      capture,
		transform:    transform,
		transcriber:  transcriber,
		analyzer:     analyzer,
		scorer:       scorer,
		publisher:    publisher,
		notifier:     notifier,
		broadcaster:  broadcaster,
		clipDuration: clipDuration,
		storagePath:  storagePath,
		language:     language,
	}
}

// Register wires the stage handlers onto the queue. Must be called before the
// queue starts running.
func (p *ClipPipeline) Register() {
	p.queue.RegisterWorker(StageGenerate, 5, p.handleGenerate)
	p.queue.RegisterWorker(StageEdit, 3, p.handleEdit)
	p.queue.RegisterWorker(StageConvert, 2, p.handleConvert)

	p.queue.OnFailed(StageGenerate, p.onStageFailed)
	p.queue.OnFailed(StageEdit, p.onStageFailed)
	p.queue.OnFailed(StageConvert, p.onStageFailed)
}

// QueueClipGeneration enqueues a clip-generation job for a tracked stream.
func (p *ClipPipeline) QueueClipGeneration(ctx context.Context, stream *model.Stream, trigger model.TriggerKind) error {
	payload := generatePayload{
		StreamID:   stream.ID,
		StreamerID: stream.StreamerID,
		Trigger:    trigger,
	}
	jobID, err := p.queue.Enqueue(ctx, StageGenerate, payload, generateOpts)
	if err != nil {
		return fmt.Errorf("enqueue clip generation: %w", err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"job":     jobID,
		"stream":  stream.ID,
		"trigger": trigger,
	}).Info("Clip generation queued")
	return nil
}

func (p *ClipPipeline) handleGenerate(ctx context.Context, job *model.Job) error {
	var payload generatePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode generate payload: %w", err)
	}

	stream, err := p.streamRepo.GetByID(ctx, payload.StreamID)
	if err != nil {
		return fmt.Errorf("load stream: %w", err)
	}
	streamer, err := p.streamerRepo.GetByID(ctx, payload.StreamerID)
	if err != nil {
		return fmt.Errorf("load streamer: %w", err)
	}

	sourceURL := liveSourceURL(stream.Platform, streamer.Handle(stream.Platform))
	if sourceURL == "" {
		return fmt.Errorf("no source url for platform %q", stream.Platform)
	}
	filePath, err := p.capture.Capture(ctx, sourceURL, p.clipDuration)
	if err != nil {
		return fmt.Errorf("capture clip: %w", err)
	}

	analysis := p.analyze(ctx, filePath)

	clip := &model.Clip{
		ID:         uuid.NewString(),
		StreamerID: streamer.ID,
		StreamID:   stream.ID,
		Duration:   int(p.clipDuration.Seconds()),
		FilePath:   filePath,
		Status:     model.ClipStatusProcessing,
		Trigger:    payload.Trigger,
		Metadata:   model.JSONMap{},
	}
	clip.Title, clip.Description = clipTitleAndDescription(streamer, analysis)
	if analysis != nil {
		clip.Metadata["analysis"] = analysis
	}

	clip.ViralScore = p.scorer.Score(analysis, clip.Duration, payload.Trigger, nil)
	clip.Metadata["score_category"] = ScoreCategory(clip.ViralScore)
	clip.Metadata["score_recommendation"] = ScoreRecommendation(clip.ViralScore)

	if err := p.clipRepo.Create(ctx, clip); err != nil {
		return fmt.Errorf("persist clip: %w", err)
	}
	if err := p.streamerRepo.RecordClip(ctx, streamer.ID, clip.ViralScore); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to update streamer clip counters")
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"clip":  clip.ID,
		"score": clip.ViralScore,
	}).Info("Clip generated")
	if p.broadcaster != nil {
		p.broadcaster.Broadcast("clips", "clip_created", clip)
	}
	if p.notifier != nil {
		p.notifier.NotifyNewClip(ctx, clip, streamer)
	}

	if _, err := p.queue.Enqueue(ctx, StageEdit, clipPayload{ClipID: clip.ID}, editOpts); err != nil {
		return fmt.Errorf("enqueue edit stage: %w", err)
	}
	return nil
}

// handleEdit transcribes the clip's audio, burns subtitles and applies
// effects, branding and the hook cut. Every visual step is best-effort: a
// failed step logs and the chain continues from the last good artifact, so a
// missing font or logo never freezes the clip.
func (p *ClipPipeline) handleEdit(ctx context.Context, job *model.Job) error {
	var payload clipPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode edit payload: %w", err)
	}
	clip, err := p.clipRepo.GetByID(ctx, payload.ClipID)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}
	if clip.Metadata == nil {
		clip.Metadata = model.JSONMap{}
	}

	if transcription := p.transcribe(ctx, clip.FilePath); transcription != nil {
		clip.Metadata["transcript"] = transcription.Transcript
		if srtPath, err := p.writeSubtitles(clip.ID, transcription.Utterances); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Subtitle file generation failed")
		} else {
			clip.SubtitlesPath = srtPath
		}
	}

	current := clip.FilePath
	if clip.SubtitlesPath != "" {
		current = p.editStep(ctx, clip.ID, current, repository.EditSubtitles, repository.EditParams{SubtitlesPath: clip.SubtitlesPath})
	}
	current = p.editStep(ctx, clip.ID, current, repository.EditEffects, repository.EditParams{})
	current = p.editStep(ctx, clip.ID, current, repository.EditBranding, repository.EditParams{})
	clip.EditedFilePath = current

	if out, err := p.transform.ApplyEdit(ctx, current, repository.EditHook, repository.EditParams{HookDuration: 3 * time.Second}); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"clip": clip.ID, "error": err}).Warn("Hook cut failed")
	} else {
		clip.HookFilePath = out
	}

	if err := p.clipRepo.Update(ctx, clip); err != nil {
		return fmt.Errorf("persist edited clip: %w", err)
	}
	if ok, err := p.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusProcessing, model.ClipStatusEdited); err != nil {
		return fmt.Errorf("advance clip status: %w", err)
	} else if !ok {
		logger.GetLogger().WithField("clip", clip.ID).Warn("Clip status changed concurrently, skipping edit transition")
		return nil
	}
	clip.Status = model.ClipStatusEdited

	logger.GetLogger().WithField("clip", clip.ID).Info("Clip edited")
	if p.broadcaster != nil {
		p.broadcaster.Broadcast("clips", "clip_edited", clip)
	}

	if _, err := p.queue.Enqueue(ctx, StageConvert, payload, convertOpts); err != nil {
		return fmt.Errorf("enqueue convert stage: %w", err)
	}
	return nil
}

func (p *ClipPipeline) editStep(ctx context.Context, clipID, in string, kind repository.EditKind, params repository.EditParams) string {
	out, err := p.transform.ApplyEdit(ctx, in, kind, params)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"clip":  clipID,
			"step":  string(kind),
			"error": err,
		}).Warn("Edit step degraded, keeping previous artifact")
		return in
	}
	return out
}

func (p *ClipPipeline) handleConvert(ctx context.Context, job *model.Job) error {
	var payload clipPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode convert payload: %w", err)
	}
	clip, err := p.clipRepo.GetByID(ctx, payload.ClipID)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}

	source := clip.EditedFilePath
	if source == "" {
		source = clip.FilePath
	}
	clip.HorizontalFilePath = source

	if out, err := p.transform.ApplyEdit(ctx, source, repository.EditReframe, repository.EditParams{AspectRatio: "9:16"}); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"clip": clip.ID, "error": err}).Warn("Vertical conversion failed")
	} else {
		clip.VerticalFilePath = out
	}
	if out, err := p.transform.ApplyEdit(ctx, source, repository.EditReframe, repository.EditParams{AspectRatio: "1:1"}); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"clip": clip.ID, "error": err}).Warn("Square conversion failed")
	} else {
		clip.SquareFilePath = out
	}

	if err := p.clipRepo.Update(ctx, clip); err != nil {
		return fmt.Errorf("persist converted clip: %w", err)
	}
	if ok, err := p.clipRepo.UpdateStatusIf(ctx, clip.ID, model.ClipStatusEdited, model.ClipStatusReady); err != nil {
		return fmt.Errorf("advance clip status: %w", err)
	} else if !ok {
		logger.GetLogger().WithField("clip", clip.ID).Warn("Clip status changed concurrently, skipping ready transition")
		return nil
	}
	clip.Status = model.ClipStatusReady

	logger.GetLogger().WithField("clip", clip.ID).Info("Clip ready")
	if p.broadcaster != nil {
		p.broadcaster.Broadcast("clips", "clip_ready", clip)
	}

	if p.publisher != nil {
		if err := p.publisher.RequestPublish(ctx, clip); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"clip":  clip.ID,
				"error": err,
			}).Error("Publish request failed")
		}
	}
	return nil
}

func (p *ClipPipeline) onStageFailed(job *model.Job, err error) {
	fields := map[string]interface{}{
		"job":      job.ID,
		"stage":    job.Stage,
		"attempts": job.Attempts,
		"error":    err,
	}
	var payload clipPayload
	if jsonErr := json.Unmarshal(job.Payload, &payload); jsonErr == nil && payload.ClipID != "" {
		fields["clip"] = payload.ClipID
	}
	logger.GetLogger().WithFields(fields).Error("Pipeline stage exhausted retries, clip frozen at current status")
	if p.broadcaster != nil {
		p.broadcaster.Broadcast("clips", "clip_failed", fields)
	}
}

func (p *ClipPipeline) analyze(ctx context.Context, filePath string) *model.ClipAnalysis {
	if p.analyzer == nil {
		return nil
	}
	analysis, err := p.analyzer.Analyze(ctx, filePath)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Clip analysis failed")
		return nil
	}
	return analysis
}

func (p *ClipPipeline) transcribe(ctx context.Context, filePath string) *model.Transcription {
	if p.transcriber == nil {
		return nil
	}
	transcription, err := p.transcriber.Transcribe(ctx, filePath, p.language)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Transcription failed")
		return nil
	}
	return transcription
}

// writeSubtitles renders utterances as an SRT file next to the clip artifacts.
func (p *ClipPipeline) writeSubtitles(clipID string, utterances []model.Utterance) (string, error) {
	if len(utterances) == 0 {
		return "", fmt.Errorf("no utterances to render")
	}
	var b strings.Builder
	for i, u := range utterances {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(u.StartSec), srtTimestamp(u.EndSec), u.Text)
	}
	path := filepath.Join(p.storagePath, clipID+".srt")
	if err := os.MkdirAll(p.storagePath, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	millis := int((seconds - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, (total%3600)/60, total%60, millis)
}

func clipTitleAndDescription(streamer *model.Streamer, analysis *model.ClipAnalysis) (string, string) {
	title := fmt.Sprintf("Clip de %s", streamer.DisplayName)
	description := ""
	if analysis != nil {
		if analysis.SuggestedTitle != "" {
			title = analysis.SuggestedTitle
		}
		description = analysis.Description
	}
	return title, description
}

func liveSourceURL(platform, handle string) string {
	if handle == "" {
		return ""
	}
	switch platform {
	case model.PlatformTwitch:
		return "https://www.twitch.tv/" + handle
	case model.PlatformYouTube:
		return "https://www.youtube.com/channel/" + handle + "/live"
	case model.PlatformKick:
		return "https://kick.com/" + handle
	}
	return ""
}
