package repository

import (
	"context"
	"time"

	"streamclips/domain/model"
)

// EditKind selects which transform IMediaTransform applies.
type EditKind string

const (
	EditSubtitles EditKind = "subtitles"
	EditEffects   EditKind = "effects"
	EditBranding  EditKind = "branding"
	EditReframe   EditKind = "reframe"
	EditHook      EditKind = "hook"
)

// EditParams carries per-kind parameters for a transform.
type EditParams struct {
	SubtitlesPath string
	AspectRatio   string
	HookDuration  time.Duration
}

// IMediaCapture records a fixed-duration window from a live source and returns
// the resulting artifact path.
type IMediaCapture interface {
	Capture(ctx context.Context, sourceURL string, duration time.Duration) (string, error)
}

// IMediaTransform applies one visual/audio edit or format conversion and
// returns the new artifact path.
type IMediaTransform interface {
	ApplyEdit(ctx context.Context, artifactPath string, kind EditKind, params EditParams) (string, error)
}

// ITranscription converts a clip's speech to time-aligned text. Optional
// capability: callers hold a nil ITranscription when unconfigured.
type ITranscription interface {
	Transcribe(ctx context.Context, artifactPath, language string) (*model.Transcription, error)
}

// IAnalyzer extracts content signals (actions, audio peaks, dialog) from a
// captured artifact. Optional capability.
type IAnalyzer interface {
	Analyze(ctx context.Context, artifactPath string) (*model.ClipAnalysis, error)
}
