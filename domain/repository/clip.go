package repository

import (
	"context"

	"streamclips/domain/model"
)

// IClip defines persistence for clips.
type IClip interface {
	Create(ctx context.Context, clip *model.Clip) error
	GetByID(ctx context.Context, id string) (*model.Clip, error)
	Update(ctx context.Context, clip *model.Clip) error
	// UpdateStatusIf advances the clip status only when the stored status still
	// equals from. Returns false when another writer got there first.
	UpdateStatusIf(ctx context.Context, id string, from, to model.ClipStatus) (bool, error)
	List(ctx context.Context, status model.ClipStatus, limit, offset int) ([]*model.Clip, int64, error)
}

// IPublication defines persistence for per-platform publish records.
type IPublication interface {
	Create(ctx context.Context, pub *model.Publication) error
	GetByID(ctx context.Context, id string) (*model.Publication, error)
	ListByClip(ctx context.Context, clipID string) ([]*model.Publication, error)
	MarkPublished(ctx context.Context, id, postID, url string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
}
