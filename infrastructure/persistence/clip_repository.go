package persistence

import (
	"context"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClipRepository implements clip persistence on PostgreSQL.
type ClipRepository struct {
	db *gorm.DB
}

func NewClipRepository(db *gorm.DB) repository.IClip {
	return &ClipRepository{db: db}
}

func (r *ClipRepository) Create(ctx context.Context, clip *model.Clip) error {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if clip.Metadata == nil {
		clip.Metadata = model.JSONMap{}
	}
	return r.db.WithContext(ctx).Create(clip).Error
}

func (r *ClipRepository) GetByID(ctx context.Context, id string) (*model.Clip, error) {
	var c model.Clip
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClipRepository) Update(ctx context.Context, clip *model.Clip) error {
	return r.db.WithContext(ctx).Save(clip).Error
}

// UpdateStatusIf performs the compare-and-swap status write stage workers rely
// on: the row only moves when it is still at the expected status.
func (r *ClipRepository) UpdateStatusIf(ctx context.Context, id string, from, to model.ClipStatus) (bool, error) {
	if !from.CanAdvanceTo(to) {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Clip{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *ClipRepository) List(ctx context.Context, status model.ClipStatus, limit, offset int) ([]*model.Clip, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Clip{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.Clip
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
