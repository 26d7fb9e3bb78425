package repository

import (
	"context"

	"streamclips/domain/model"
)

// IStream defines persistence for live broadcast sessions.
type IStream interface {
	Create(ctx context.Context, stream *model.Stream) error
	GetByID(ctx context.Context, id string) (*model.Stream, error)
	Update(ctx context.Context, stream *model.Stream) error
	// End closes the stream exactly once, setting ended_at and duration.
	End(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*model.Stream, error)
}
