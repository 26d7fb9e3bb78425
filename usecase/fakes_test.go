package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
)

type fakeStreamerRepo struct {
	mu        sync.Mutex
	streamers map[string]*model.Streamer
	clipCalls []int
}

func newFakeStreamerRepo(streamers ...*model.Streamer) *fakeStreamerRepo {
	r := &fakeStreamerRepo{streamers: map[string]*model.Streamer{}}
	for _, s := range streamers {
		r.streamers[s.ID] = s
	}
	return r
}

func (r *fakeStreamerRepo) Create(_ context.Context, s *model.Streamer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamers[s.ID] = s
	return nil
}

func (r *fakeStreamerRepo) GetByID(_ context.Context, id string) (*model.Streamer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streamers[id]
	if !ok {
		return nil, fmt.Errorf("streamer %s not found", id)
	}
	return s, nil
}

func (r *fakeStreamerRepo) ListActive(_ context.Context) ([]*model.Streamer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Streamer
	for _, s := range r.streamers {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStreamerRepo) List(ctx context.Context) ([]*model.Streamer, error) {
	return r.ListActive(ctx)
}

func (r *fakeStreamerRepo) Update(_ context.Context, s *model.Streamer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamers[s.ID] = s
	return nil
}

func (r *fakeStreamerRepo) SetLiveState(_ context.Context, id string, isLive bool, currentStreamID *string, viewerCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streamers[id]
	if !ok {
		return fmt.Errorf("streamer %s not found", id)
	}
	s.IsLive = isLive
	s.CurrentStreamID = currentStreamID
	s.ViewerCount = viewerCount
	return nil
}

func (r *fakeStreamerRepo) RecordClip(_ context.Context, id string, viralScore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streamers[id]
	if !ok {
		return fmt.Errorf("streamer %s not found", id)
	}
	s.TotalClips++
	if viralScore > s.BestViralScore {
		s.BestViralScore = viralScore
	}
	r.clipCalls = append(r.clipCalls, viralScore)
	return nil
}

type fakeStreamRepo struct {
	mu      sync.Mutex
	streams map[string]*model.Stream
}

func newFakeStreamRepo(streams ...*model.Stream) *fakeStreamRepo {
	r := &fakeStreamRepo{streams: map[string]*model.Stream{}}
	for _, s := range streams {
		r.streams[s.ID] = s
	}
	return r
}

func (r *fakeStreamRepo) Create(_ context.Context, s *model.Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[s.ID] = s
	return nil
}

func (r *fakeStreamRepo) GetByID(_ context.Context, id string) (*model.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[id]
	if !ok {
		return nil, fmt.Errorf("stream %s not found", id)
	}
	return s, nil
}

func (r *fakeStreamRepo) Update(_ context.Context, s *model.Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[s.ID] = s
	return nil
}

func (r *fakeStreamRepo) End(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[id]
	if !ok {
		return fmt.Errorf("stream %s not found", id)
	}
	if s.EndedAt == nil {
		now := time.Now()
		s.EndedAt = &now
		s.IsActive = false
		s.DurationSeconds = int(now.Sub(s.StartedAt).Seconds())
	}
	return nil
}

func (r *fakeStreamRepo) ListActive(_ context.Context) ([]*model.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Stream
	for _, s := range r.streams {
		if s.EndedAt == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeClipRepo struct {
	mu    sync.Mutex
	clips map[string]*model.Clip
}

func newFakeClipRepo(clips ...*model.Clip) *fakeClipRepo {
	r := &fakeClipRepo{clips: map[string]*model.Clip{}}
	for _, c := range clips {
		r.clips[c.ID] = c
	}
	return r
}

func (r *fakeClipRepo) Create(_ context.Context, c *model.Clip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips[c.ID] = c
	return nil
}

func (r *fakeClipRepo) GetByID(_ context.Context, id string) (*model.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[id]
	if !ok {
		return nil, fmt.Errorf("clip %s not found", id)
	}
	return c, nil
}

func (r *fakeClipRepo) Update(_ context.Context, c *model.Clip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips[c.ID] = c
	return nil
}

func (r *fakeClipRepo) UpdateStatusIf(_ context.Context, id string, from, to model.ClipStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[id]
	if !ok {
		return false, fmt.Errorf("clip %s not found", id)
	}
	if c.Status != from || !from.CanAdvanceTo(to) {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (r *fakeClipRepo) List(_ context.Context, status model.ClipStatus, limit, offset int) ([]*model.Clip, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Clip
	for _, c := range r.clips {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

type fakePublicationRepo struct {
	mu   sync.Mutex
	pubs map[string]*model.Publication
}

func newFakePublicationRepo() *fakePublicationRepo {
	return &fakePublicationRepo{pubs: map[string]*model.Publication{}}
}

func (r *fakePublicationRepo) Create(_ context.Context, p *model.Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pubs[p.ID] = p
	return nil
}

func (r *fakePublicationRepo) GetByID(_ context.Context, id string) (*model.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pubs[id]
	if !ok {
		return nil, fmt.Errorf("publication %s not found", id)
	}
	return p, nil
}

func (r *fakePublicationRepo) ListByClip(_ context.Context, clipID string) ([]*model.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Publication
	for _, p := range r.pubs {
		if p.ClipID == clipID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePublicationRepo) MarkPublished(_ context.Context, id, postID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pubs[id]
	if !ok {
		return fmt.Errorf("publication %s not found", id)
	}
	now := time.Now()
	p.Status = model.PublicationPublished
	p.PlatformPostID = postID
	p.PlatformURL = url
	p.PublishedAt = &now
	return nil
}

func (r *fakePublicationRepo) MarkFailed(_ context.Context, id, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pubs[id]
	if !ok {
		return fmt.Errorf("publication %s not found", id)
	}
	p.Status = model.PublicationFailed
	p.ErrorMessage = &errMsg
	return nil
}

// fakePlatform reports a canned live status and counts how often it was asked.
type fakePlatform struct {
	name  string
	info  *model.LiveStreamInfo
	err   error
	calls int
}

func (p *fakePlatform) Name() string { return p.name }

func (p *fakePlatform) GetLiveStatus(_ context.Context, _ string) (*model.LiveStreamInfo, error) {
	p.calls++
	return p.info, p.err
}

// syncQueue executes every enqueued job inline, honoring the attempt budget,
// so a whole pipeline run is observable from a single Enqueue call.
type syncQueue struct {
	handlers  map[string]repository.JobHandler
	completed map[string][]repository.JobCallback
	failed    map[string][]repository.JobCallback
	enqueued  []string
	seq       int
}

func newSyncQueue() *syncQueue {
	return &syncQueue{
		handlers:  map[string]repository.JobHandler{},
		completed: map[string][]repository.JobCallback{},
		failed:    map[string][]repository.JobCallback{},
	}
}

func (q *syncQueue) Enqueue(ctx context.Context, stage string, payload interface{}, opts model.JobOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	q.seq++
	job := &model.Job{
		ID:          fmt.Sprintf("job-%d", q.seq),
		Stage:       stage,
		Payload:     body,
		MaxAttempts: opts.Attempts,
		BackoffBase: opts.BackoffBase,
		CreatedAt:   time.Now(),
	}
	q.enqueued = append(q.enqueued, stage)

	handler, ok := q.handlers[stage]
	if !ok {
		return job.ID, nil
	}
	var lastErr error
	for job.Attempts = 1; job.Attempts <= job.MaxAttempts; job.Attempts++ {
		if lastErr = handler(ctx, job); lastErr == nil {
			for _, cb := range q.completed[stage] {
				cb(job, nil)
			}
			return job.ID, nil
		}
	}
	job.Attempts = job.MaxAttempts
	job.LastError = lastErr.Error()
	for _, cb := range q.failed[stage] {
		cb(job, lastErr)
	}
	return job.ID, nil
}

func (q *syncQueue) RegisterWorker(stage string, _ int, handler repository.JobHandler) {
	q.handlers[stage] = handler
}

func (q *syncQueue) OnCompleted(stage string, cb repository.JobCallback) {
	q.completed[stage] = append(q.completed[stage], cb)
}

func (q *syncQueue) OnFailed(stage string, cb repository.JobCallback) {
	q.failed[stage] = append(q.failed[stage], cb)
}

func (q *syncQueue) Run(_ context.Context) error { return nil }

func (q *syncQueue) count(stage string) int {
	n := 0
	for _, s := range q.enqueued {
		if s == stage {
			n++
		}
	}
	return n
}

type fakeCapture struct {
	path string
	err  error
}

func (c *fakeCapture) Capture(_ context.Context, _ string, _ time.Duration) (string, error) {
	return c.path, c.err
}

// fakeTransform returns deterministic derived paths and can fail selected
// edit kinds.
type fakeTransform struct {
	failKinds map[repository.EditKind]bool
	applied   []repository.EditKind
}

func (t *fakeTransform) ApplyEdit(_ context.Context, artifactPath string, kind repository.EditKind, params repository.EditParams) (string, error) {
	t.applied = append(t.applied, kind)
	if t.failKinds[kind] {
		return "", fmt.Errorf("%s failed", kind)
	}
	suffix := string(kind)
	if kind == repository.EditReframe {
		suffix = suffix + "_" + params.AspectRatio
	}
	return artifactPath + "." + suffix, nil
}

type fakeAnalyzer struct {
	analysis *model.ClipAnalysis
	err      error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, _ string) (*model.ClipAnalysis, error) {
	return a.analysis, a.err
}

type fakeTranscriber struct {
	transcription *model.Transcription
	err           error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, _, _ string) (*model.Transcription, error) {
	return t.transcription, t.err
}

type fakePublisher struct {
	platform string
	err      error
	calls    int
}

func (p *fakePublisher) Platform() string { return p.platform }

func (p *fakePublisher) Publish(_ context.Context, clip *model.Clip, _ string, _ []string) (*model.PublishResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &model.PublishResult{
		PostID: p.platform + "-post",
		URL:    "https://" + p.platform + ".example/" + clip.ID,
	}, nil
}

type broadcastEvent struct {
	room  string
	event string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *fakeBroadcaster) Broadcast(room, event string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{room: room, event: event})
}

func (b *fakeBroadcaster) has(room, event string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.room == room && e.event == event {
			return true
		}
	}
	return false
}

type fakeNotifier struct {
	mu     sync.Mutex
	starts int
	ends   int
	clips  int
}

func (n *fakeNotifier) NotifyStreamStart(_ context.Context, _ *model.Streamer, _ *model.LiveStreamInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.starts++
}

func (n *fakeNotifier) NotifyStreamEnd(_ context.Context, _ *model.Streamer, _ *model.Stream) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ends++
}

func (n *fakeNotifier) NotifyNewClip(_ context.Context, _ *model.Clip, _ *model.Streamer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clips++
}
