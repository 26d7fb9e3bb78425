package repository

import (
	"context"

	"streamclips/domain/model"
)

// IPublisher publishes a clip to one social platform.
type IPublisher interface {
	Platform() string
	Publish(ctx context.Context, clip *model.Clip, caption string, hashtags []string) (*model.PublishResult, error)
}

// IPublishRequestor is how the pipeline hands a ready clip to the publication
// side without depending on it directly.
type IPublishRequestor interface {
	RequestPublish(ctx context.Context, clip *model.Clip) error
}

// IClipRequestor is how the stream monitor asks for a clip to be generated.
type IClipRequestor interface {
	QueueClipGeneration(ctx context.Context, stream *model.Stream, trigger model.TriggerKind) error
}

// INotifier delivers human-facing notifications. Best-effort: implementations
// log failures instead of returning them to callers on the hot path.
type INotifier interface {
	NotifyStreamStart(ctx context.Context, streamer *model.Streamer, info *model.LiveStreamInfo)
	NotifyStreamEnd(ctx context.Context, streamer *model.Streamer, stream *model.Stream)
	NotifyNewClip(ctx context.Context, clip *model.Clip, streamer *model.Streamer)
}

// IBroadcaster fans real-time events out to connected clients.
type IBroadcaster interface {
	Broadcast(room, event string, payload interface{})
}
