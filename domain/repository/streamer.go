package repository

import (
	"context"

	"streamclips/domain/model"
)

// IStreamer defines persistence for tracked streamers.
type IStreamer interface {
	Create(ctx context.Context, streamer *model.Streamer) error
	GetByID(ctx context.Context, id string) (*model.Streamer, error)
	ListActive(ctx context.Context) ([]*model.Streamer, error)
	List(ctx context.Context) ([]*model.Streamer, error)
	Update(ctx context.Context, streamer *model.Streamer) error
	// SetLiveState writes the monitor-owned liveness fields in one update.
	SetLiveState(ctx context.Context, id string, isLive bool, currentStreamID *string, viewerCount int) error
	// RecordClip bumps total_clips and raises best_viral_score when exceeded.
	RecordClip(ctx context.Context, id string, viralScore int) error
}
