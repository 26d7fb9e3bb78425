package persistence

import (
	"context"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublicationRepository implements publish-record persistence on PostgreSQL.
type PublicationRepository struct {
	db *gorm.DB
}

func NewPublicationRepository(db *gorm.DB) repository.IPublication {
	return &PublicationRepository{db: db}
}

func (r *PublicationRepository) Create(ctx context.Context, pub *model.Publication) error {
	if pub.ID == "" {
		pub.ID = uuid.NewString()
	}
	if pub.Status == "" {
		pub.Status = model.PublicationPending
	}
	return r.db.WithContext(ctx).Create(pub).Error
}

func (r *PublicationRepository) GetByID(ctx context.Context, id string) (*model.Publication, error) {
	var p model.Publication
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PublicationRepository) ListByClip(ctx context.Context, clipID string) ([]*model.Publication, error) {
	var list []*model.Publication
	err := r.db.WithContext(ctx).Where("clip_id = ?", clipID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *PublicationRepository) MarkPublished(ctx context.Context, id, postID, url string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Publication{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":           model.PublicationPublished,
		"platform_post_id": postID,
		"platform_url":     url,
		"published_at":     now,
		"error_message":    nil,
	}).Error
}

func (r *PublicationRepository) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.db.WithContext(ctx).Model(&model.Publication{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.PublicationFailed,
		"error_message": errMsg,
	}).Error
}
