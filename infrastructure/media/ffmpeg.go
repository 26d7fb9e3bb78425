package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"

	"github.com/google/uuid"
)

// FFmpeg shells out to the ffmpeg binary for capture and all visual edits.
// It implements both IMediaCapture and IMediaTransform.
type FFmpeg struct {
	binary     string
	storageDir string
}

func NewFFmpeg(storageDir string) (*FFmpeg, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FFmpeg{binary: "ffmpeg", storageDir: storageDir}, nil
}

func (f *FFmpeg) Capture(ctx context.Context, sourceURL string, duration time.Duration) (string, error) {
	out := filepath.Join(f.storageDir, fmt.Sprintf("clip_%d_%s.mp4", time.Now().UnixMilli(), uuid.NewString()[:8]))
	args := []string{
		"-y",
		"-i", sourceURL,
		"-t", strconv.Itoa(int(duration.Seconds())),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "medium",
		"-crf", "23",
		"-movflags", "+faststart",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) ApplyEdit(ctx context.Context, artifactPath string, kind repository.EditKind, params repository.EditParams) (string, error) {
	switch kind {
	case repository.EditSubtitles:
		return f.burnSubtitles(ctx, artifactPath, params.SubtitlesPath)
	case repository.EditEffects:
		return f.applyEffects(ctx, artifactPath)
	case repository.EditBranding:
		return f.applyBranding(ctx, artifactPath)
	case repository.EditReframe:
		return f.reframe(ctx, artifactPath, params.AspectRatio)
	case repository.EditHook:
		return f.cutHook(ctx, artifactPath, params.HookDuration)
	default:
		return "", fmt.Errorf("unknown edit kind %q", kind)
	}
}

func (f *FFmpeg) burnSubtitles(ctx context.Context, videoPath, subtitlesPath string) (string, error) {
	if subtitlesPath == "" {
		return "", fmt.Errorf("no subtitles file")
	}
	out := derivePath(videoPath, "_subtitled")
	style := "FontName=Arial Black,FontSize=24,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,Outline=2,Shadow=1,MarginV=20"
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", subtitlesPath, style),
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("burn subtitles: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) applyEffects(ctx context.Context, videoPath string) (string, error) {
	out := derivePath(videoPath, "_effects")
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", "scale=1920:1080,zoompan=z=1.05:d=1:s=1920x1080",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("apply effects: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) applyBranding(ctx context.Context, videoPath string) (string, error) {
	logo := os.Getenv("CLIP_BRANDING_LOGO")
	if logo == "" {
		// No logo configured; branding is a no-op rather than a failure.
		return videoPath, nil
	}
	out := derivePath(videoPath, "_branded")
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", logo,
		"-filter_complex", "overlay=W-w-24:24",
		"-c:a", "copy",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("apply branding: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) reframe(ctx context.Context, videoPath, aspectRatio string) (string, error) {
	var dimensions string
	switch aspectRatio {
	case "9:16":
		dimensions = "1080:1920"
	case "1:1":
		dimensions = "1080:1080"
	default:
		dimensions = "1920:1080"
	}
	out := derivePath(videoPath, "_"+strings.ReplaceAll(aspectRatio, ":", "x"))
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("scale=%s:force_original_aspect_ratio=increase,crop=%s", dimensions, dimensions),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("reframe %s: %w", aspectRatio, err)
	}
	return out, nil
}

func (f *FFmpeg) cutHook(ctx context.Context, videoPath string, duration time.Duration) (string, error) {
	if duration <= 0 {
		duration = 3 * time.Second
	}
	out := derivePath(videoPath, "_hook")
	args := []string{
		"-y",
		"-ss", "0",
		"-i", videoPath,
		"-t", strconv.Itoa(int(duration.Seconds())),
		"-c", "copy",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("cut hook: %w", err)
	}
	return out, nil
}

// ExtractAudio converts the video's audio track to 16kHz mono WAV for
// transcription.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	out := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"
	args := []string{
		"-y",
		"-i", videoPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		out,
	}
	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		tail := string(output)
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		logger.GetLogger().WithField("args", strings.Join(args, " ")).WithField("output", tail).Debug("ffmpeg failed")
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func derivePath(videoPath, suffix string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + suffix + ext
}

var (
	_ repository.IMediaCapture   = (*FFmpeg)(nil)
	_ repository.IMediaTransform = (*FFmpeg)(nil)
)
