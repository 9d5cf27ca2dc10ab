package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicebank/constant"
	"voicebank/dto"
	"voicebank/entities"
	"voicebank/errs"
	"voicebank/pkg/rabbitmq"
	"voicebank/pkg/storage"
	"voicebank/repository"
)

// AdminService is the thin moderation layer: queries over the metadata
// store, soft deletion, and reference-data toggling.
type AdminService struct {
	repo      repository.RecordingRepository
	cache     *LookupCache
	store     storage.Uploader
	publisher rabbitmq.Publisher
}

func NewAdminService(repo repository.RecordingRepository, cache *LookupCache, store storage.Uploader, publisher rabbitmq.Publisher) *AdminService {
	return &AdminService{repo: repo, cache: cache, store: store, publisher: publisher}
}

// List returns recordings for audit; deleted rows are included only when
// asked for.
func (s *AdminService) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]entities.Recording, error) {
	return s.repo.List(ctx, includeDeleted, limit, offset)
}

func (s *AdminService) Get(ctx context.Context, id uuid.UUID) (*entities.RecordingDetail, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByManagementKey resolves a recording from its management token, for
// moderation email linkage.
func (s *AdminService) GetByManagementKey(ctx context.Context, key uuid.UUID) (*entities.RecordingDetail, error) {
	return s.repo.FindByManagementToken(ctx, key)
}

// Delete soft-deletes the metadata row and removes the stored object. The
// metadata update is idempotent; a second delete is a no-op success.
func (s *AdminService) Delete(ctx context.Context, id uuid.UUID) error {
	log := zerolog.Ctx(ctx)

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if detail.IsDeleted() {
		return nil
	}

	if detail.URL != nil {
		key, keyErr := s.store.KeyFromURL(*detail.URL)
		if keyErr != nil {
			log.Warn().Str("id", id.String()).Err(keyErr).Msg("cannot derive object key, leaving object in place")
		} else if err := s.store.Remove(ctx, key); err != nil {
			// A missing object is fine; anything else blocks the delete so
			// the bytes are not left public while the row claims deletion.
			var storageErr *errs.StorageError
			if !errors.As(err, &storageErr) || storageErr.Transient {
				return err
			}
			log.Warn().Str("key", key).Err(err).Msg("object removal rejected, continuing with soft delete")
		}
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, constant.RoutingKeyRecordingDeleted, dto.ModerationEvent{
		RecordingID: id,
		ParentID:    detail.ParentID,
		Action:      constant.ModerationActionDeleted,
		OccurredAt:  time.Now().UTC(),
	})

	log.Info().Str("id", id.String()).Msg("recording soft-deleted")
	return nil
}

// SetLookupEnabled toggles a reference row and bumps the lookup cache
// generation so readers pick up the change.
func (s *AdminService) SetLookupEnabled(ctx context.Context, table constant.LookupTable, id int16, enabled bool) error {
	if err := s.repo.SetLookupEnabled(ctx, table, id, enabled); err != nil {
		return err
	}
	s.cache.Invalidate()
	zerolog.Ctx(ctx).Info().
		Str("table", table.String()).
		Int16("id", id).
		Bool("enabled", enabled).
		Msg("lookup row toggled")
	return nil
}

func (s *AdminService) publishEvent(ctx context.Context, routingKey string, event dto.ModerationEvent) {
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish moderation event")
	}
}
