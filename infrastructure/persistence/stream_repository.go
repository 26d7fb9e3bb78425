package persistence

import (
	"context"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreamRepository implements stream persistence on PostgreSQL.
type StreamRepository struct {
	db *gorm.DB
}

func NewStreamRepository(db *gorm.DB) repository.IStream {
	return &StreamRepository{db: db}
}

func (r *StreamRepository) Create(ctx context.Context, stream *model.Stream) error {
	if stream.ID == "" {
		stream.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(stream).Error
}

func (r *StreamRepository) GetByID(ctx context.Context, id string) (*model.Stream, error) {
	var s model.Stream
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StreamRepository) Update(ctx context.Context, stream *model.Stream) error {
	return r.db.WithContext(ctx).Save(stream).Error
}

// End closes the stream. The ended_at IS NULL guard keeps it idempotent:
// ended_at is set exactly once even if two ticks race.
func (r *StreamRepository) End(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Stream{}).
		Where("id = ? AND ended_at IS NULL", id).
		Updates(map[string]interface{}{
			"ended_at":         now,
			"is_active":        false,
			"duration_seconds": gorm.Expr("EXTRACT(EPOCH FROM (? - started_at))::int", now),
		}).Error
}

func (r *StreamRepository) ListActive(ctx context.Context) ([]*model.Stream, error) {
	var list []*model.Stream
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("viewer_count DESC").Find(&list).Error
	return list, err
}
