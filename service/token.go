package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicebank/entities"
	"voicebank/repository"
)

// TokenManager issues and inspects single-use upload tokens. Consumption
// itself happens inside the metadata store's creation transaction, never
// here.
type TokenManager struct {
	repo repository.RecordingRepository
}

func NewTokenManager(repo repository.RecordingRepository) *TokenManager {
	return &TokenManager{repo: repo}
}

// Issue creates a token bound to an existing, non-deleted parent
// recording.
func (m *TokenManager) Issue(ctx context.Context, parentID uuid.UUID) (*entities.RecordingToken, error) {
	token, err := m.repo.IssueToken(ctx, parentID)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("token", token.ID.String()).
		Str("parent_id", parentID.String()).
		Msg("issued upload token")
	return token, nil
}

// Peek returns the token without consuming it. Used for fail-fast
// validation before the expensive pipeline stages and by the admin token
// lookup.
func (m *TokenManager) Peek(ctx context.Context, tokenID uuid.UUID) (*entities.RecordingToken, error) {
	return m.repo.PeekToken(ctx, tokenID)
}
