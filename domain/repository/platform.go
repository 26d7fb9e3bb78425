package repository

import (
	"context"

	"streamclips/domain/model"
)

// ILivePlatform is one streaming platform's liveness adapter. GetLiveStatus
// returns nil info (and nil error) when the handle is not broadcasting.
type ILivePlatform interface {
	Name() string
	GetLiveStatus(ctx context.Context, handle string) (*model.LiveStreamInfo, error)
}
