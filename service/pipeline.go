package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicebank/config"
	"voicebank/constant"
	"voicebank/dto"
	"voicebank/entities"
	"voicebank/errs"
	"voicebank/pkg/media"
	"voicebank/pkg/normalize"
	"voicebank/pkg/rabbitmq"
	"voicebank/pkg/storage"
	"voicebank/repository"
)

// UploadRequest is one token-gated submission entering the pipeline.
type UploadRequest struct {
	Token      uuid.UUID
	Name       string
	CategoryID int16
	AgeID      *int16
	GenderID   *int16
	Location   *string
	Occupation *string
	Email      *string

	// Audio is the raw submitted byte stream.
	Audio io.Reader
}

// UploadResult is returned after the metadata transaction commits.
type UploadResult struct {
	ID            uuid.UUID
	ParentID      uuid.UUID
	URL           string
	MimeType      string
	Tokens        []uuid.UUID
	ManagementKey uuid.UUID
}

// Pipeline runs the ingestion flow: validate token, probe, transcode to
// the canonical encoding, upload, then commit token consumption and the
// recording row as one transaction. Cancellation or failure at any stage
// before the final transaction consumes nothing.
type Pipeline struct {
	repo      repository.RecordingRepository
	tokens    *TokenManager
	cache     *LookupCache
	tool      media.Tool
	store     storage.Uploader
	publisher rabbitmq.Publisher

	canonical          media.Format
	recordingsPrefix   string
	maxBytes           int64
	tokensPerRecording int

	// workers bounds concurrent transcode subprocesses; requests wait up
	// to queueWait for a slot before being rejected.
	workers   chan struct{}
	queueWait time.Duration
}

func NewPipeline(
	repo repository.RecordingRepository,
	tokens *TokenManager,
	cache *LookupCache,
	tool media.Tool,
	store storage.Uploader,
	publisher rabbitmq.Publisher,
	cfg *config.Config,
) *Pipeline {
	workers := cfg.Server.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		repo:               repo,
		tokens:             tokens,
		cache:              cache,
		tool:               tool,
		store:              store,
		publisher:          publisher,
		canonical:          media.Format{Container: cfg.Media.CanonicalContainer, Codec: cfg.Media.CanonicalCodec},
		recordingsPrefix:   cfg.Upload.RecordingsPrefix,
		maxBytes:           cfg.Upload.MaxBytes,
		tokensPerRecording: cfg.Upload.TokensPerRecording,
		workers:            make(chan struct{}, workers),
		queueWait:          cfg.Server.QueueWait,
	}
}

func (p *Pipeline) Process(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	log := zerolog.Ctx(ctx)

	name := normalize.Name(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrInvalidInput)
	}

	// Fail fast on an unusable token before any expensive work. The
	// consuming check happens again, atomically, in the final transaction.
	token, err := p.tokens.Peek(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if !token.Usable(time.Now()) {
		return nil, fmt.Errorf("%w: %s", errs.ErrTokenNotYetValid, token.ID)
	}

	spool, size, err := p.spool(req.Audio)
	if err != nil {
		return nil, err
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	detected, canonicalMime, err := p.identify(ctx, spool)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	key := storage.ObjectKey(p.recordingsPrefix, id, canonicalMime.Extension)

	url, err := p.normalizeAndUpload(ctx, spool, size, detected, key, canonicalMime.Essence)
	if err != nil {
		return nil, err
	}

	created, err := p.repo.CreateRecording(ctx, &entities.NewRecording{
		ID:          id,
		TokenID:     req.Token,
		Name:        name,
		CategoryID:  req.CategoryID,
		AgeID:       req.AgeID,
		GenderID:    req.GenderID,
		Location:    normalize.Optional(req.Location),
		Occupation:  normalize.Optional(req.Occupation),
		URL:         url,
		MimeTypeID:  canonicalMime.ID,
		Email:       req.Email,
		ChildTokens: p.tokensPerRecording,
	})
	if err != nil {
		// The uploaded object is now an orphan. Accepted gap: no referencing
		// row exists, garbage collection happens out of band.
		log.Warn().Str("key", key).Err(err).Msg("metadata commit failed, uploaded object orphaned")
		return nil, err
	}

	p.publish(ctx, constant.RoutingKeyRecordingCreated, dto.ModerationEvent{
		RecordingID: created.ID,
		ParentID:    &created.ParentID,
		Action:      constant.ModerationActionCreated,
		OccurredAt:  created.CreatedAt,
	})

	log.Info().
		Str("id", created.ID.String()).
		Str("parent_id", created.ParentID.String()).
		Str("format", detected.String()).
		Msg("recording created")

	return &UploadResult{
		ID:            created.ID,
		ParentID:      created.ParentID,
		URL:           url,
		MimeType:      canonicalMime.Essence,
		Tokens:        created.Tokens,
		ManagementKey: created.ManagementKey,
	}, nil
}

// spool copies the submission to a temp file so it can be read twice (once
// by the probe, once by the transcoder) while enforcing the size limit.
func (p *Pipeline) spool(r io.Reader) (*os.File, int64, error) {
	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return nil, 0, err
	}

	n, err := io.Copy(tmp, io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("%w: reading submission: %v", errs.ErrInvalidInput, err)
	}
	if n > p.maxBytes {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("%w: submission exceeds %d bytes", errs.ErrInvalidInput, p.maxBytes)
	}

	return tmp, n, nil
}

// identify probes the spooled audio and resolves it against the enabled
// format mappings. No side effects: a rejection here leaves no trace.
func (p *Pipeline) identify(ctx context.Context, spool *os.File) (media.Format, *entities.MimeType, error) {
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return media.Format{}, nil, err
	}

	candidates, err := p.tool.Probe(ctx, spool)
	if err != nil {
		return media.Format{}, nil, err
	}
	if len(candidates) == 0 {
		return media.Format{}, nil, fmt.Errorf("%w: unrecognized audio", errs.ErrInvalidInput)
	}

	snap, err := p.cache.Snapshot(ctx)
	if err != nil {
		return media.Format{}, nil, err
	}

	var detected media.Format
	found := false
	for _, candidate := range candidates {
		if _, ok := snap.FindMimeType(candidate); ok {
			detected = candidate
			found = true
			break
		}
	}
	if !found {
		return media.Format{}, nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedFormat, candidates[0])
	}

	canonicalMime, ok := snap.FindMimeType(p.canonical)
	if !ok {
		return media.Format{}, nil, fmt.Errorf("canonical format %s has no enabled mime type mapping", p.canonical)
	}

	return detected, canonicalMime, nil
}

// normalizeAndUpload streams the audio into the object store, transcoding
// on the way unless it is already canonical. The transcode subprocess
// count is bounded by the worker limit.
func (p *Pipeline) normalizeAndUpload(ctx context.Context, spool *os.File, size int64, detected media.Format, key, contentType string) (string, error) {
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if detected.Equal(p.canonical) {
		// Already canonical: store byte-identical, no subprocess.
		return p.store.Upload(ctx, key, spool, size, contentType)
	}

	if err := p.acquireWorker(ctx); err != nil {
		return "", err
	}
	defer p.releaseWorker()

	out, err := p.tool.Transcode(ctx, spool, detected, p.canonical)
	if err != nil {
		return "", err
	}
	defer out.Close()

	// Output size is unknown until the encoder finishes; the uploader
	// streams it. Transcode failures surface through the reader and are
	// preserved across the storage wrapper via errors.Is.
	return p.store.Upload(ctx, key, out, -1, contentType)
}

func (p *Pipeline) acquireWorker(ctx context.Context) error {
	select {
	case p.workers <- struct{}{}:
		return nil
	default:
	}

	wait := time.NewTimer(p.queueWait)
	defer wait.Stop()

	select {
	case p.workers <- struct{}{}:
		return nil
	case <-wait.C:
		return errs.ErrCapacity
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) releaseWorker() {
	<-p.workers
}

func (p *Pipeline) publish(ctx context.Context, routingKey string, event dto.ModerationEvent) {
	// Best effort: moderation events never fail the request.
	if err := p.publisher.Publish(ctx, routingKey, event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish moderation event")
	}
}
