package persistence

import (
	"context"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreamerRepository implements streamer persistence on PostgreSQL.
type StreamerRepository struct {
	db *gorm.DB
}

func NewStreamerRepository(db *gorm.DB) repository.IStreamer {
	return &StreamerRepository{db: db}
}

func (r *StreamerRepository) Create(ctx context.Context, streamer *model.Streamer) error {
	if streamer.ID == "" {
		streamer.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(streamer).Error
}

func (r *StreamerRepository) GetByID(ctx context.Context, id string) (*model.Streamer, error) {
	var s model.Streamer
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StreamerRepository) ListActive(ctx context.Context) ([]*model.Streamer, error) {
	var list []*model.Streamer
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("display_name ASC").Find(&list).Error
	return list, err
}

func (r *StreamerRepository) List(ctx context.Context) ([]*model.Streamer, error) {
	var list []*model.Streamer
	err := r.db.WithContext(ctx).Order("display_name ASC").Find(&list).Error
	return list, err
}

func (r *StreamerRepository) Update(ctx context.Context, streamer *model.Streamer) error {
	return r.db.WithContext(ctx).Save(streamer).Error
}

func (r *StreamerRepository) SetLiveState(ctx context.Context, id string, isLive bool, currentStreamID *string, viewerCount int) error {
	updates := map[string]interface{}{
		"is_live":           isLive,
		"current_stream_id": currentStreamID,
		"viewer_count":      viewerCount,
	}
	if isLive {
		updates["last_stream_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Model(&model.Streamer{}).Where("id = ?", id).Updates(updates).Error
}

func (r *StreamerRepository) RecordClip(ctx context.Context, id string, viralScore int) error {
	return r.db.WithContext(ctx).Model(&model.Streamer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_clips":      gorm.Expr("total_clips + 1"),
		"best_viral_score": gorm.Expr("GREATEST(best_viral_score, ?)", viralScore),
	}).Error
}
