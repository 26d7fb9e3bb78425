package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"
)

type IStreamerUsecase interface {
	Register(ctx context.Context, req model.ReqRegisterStreamer) (*model.Streamer, error)
	List(ctx context.Context) ([]*model.Streamer, error)
	ActiveStreams(ctx context.Context) ([]*model.Stream, error)
}

type StreamerUsecase struct {
	streamerRepo repository.IStreamer
	streamRepo   repository.IStream
}

func NewStreamerUsecase(streamerRepo repository.IStreamer, streamRepo repository.IStream) IStreamerUsecase {
	return &StreamerUsecase{streamerRepo: streamerRepo, streamRepo: streamRepo}
}

func (u *StreamerUsecase) Register(ctx context.Context, req model.ReqRegisterStreamer) (*model.Streamer, error) {
	if req.TwitchUsername == "" && req.YouTubeChannelID == "" && req.KickUsername == "" {
		return nil, fmt.Errorf("at least one platform handle is required")
	}
	streamer := &model.Streamer{
		ID:              uuid.NewString(),
		DisplayName:     req.DisplayName,
		ProfileImageURL: req.ProfileImageURL,
		Bio:             req.Bio,
		IsActive:        true,
	}
	if req.TwitchUsername != "" {
		streamer.TwitchUsername = &req.TwitchUsername
	}
	if req.YouTubeChannelID != "" {
		streamer.YouTubeChannelID = &req.YouTubeChannelID
	}
	if req.KickUsername != "" {
		streamer.KickUsername = &req.KickUsername
	}
	if err := u.streamerRepo.Create(ctx, streamer); err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("streamer", streamer.DisplayName).Info("Streamer registered")
	return streamer, nil
}

func (u *StreamerUsecase) List(ctx context.Context) ([]*model.Streamer, error) {
	return u.streamerRepo.List(ctx)
}

func (u *StreamerUsecase) ActiveStreams(ctx context.Context) ([]*model.Stream, error) {
	return u.streamRepo.ListActive(ctx)
}
