package usecase

import (
	"context"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

type IClipUsecase interface {
	List(ctx context.Context, status model.ClipStatus, limit, offset int) ([]*model.Clip, int64, error)
	Get(ctx context.Context, id string) (*model.Clip, []*model.Publication, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

type ClipUsecase struct {
	clipRepo   repository.IClip
	pubRepo    repository.IPublication
	dispatcher *PublicationDispatcher
}

func NewClipUsecase(clipRepo repository.IClip, pubRepo repository.IPublication, dispatcher *PublicationDispatcher) IClipUsecase {
	return &ClipUsecase{clipRepo: clipRepo, pubRepo: pubRepo, dispatcher: dispatcher}
}

func (u *ClipUsecase) List(ctx context.Context, status model.ClipStatus, limit, offset int) ([]*model.Clip, int64, error) {
	return u.clipRepo.List(ctx, status, limit, offset)
}

func (u *ClipUsecase) Get(ctx context.Context, id string) (*model.Clip, []*model.Publication, error) {
	clip, err := u.clipRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pubs, err := u.pubRepo.ListByClip(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return clip, pubs, nil
}

func (u *ClipUsecase) Approve(ctx context.Context, id string) error {
	return u.dispatcher.Approve(ctx, id)
}

func (u *ClipUsecase) Reject(ctx context.Context, id string) error {
	return u.dispatcher.Reject(ctx, id)
}
