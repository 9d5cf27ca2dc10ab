package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicebank/constant"
	"voicebank/entities"
	"voicebank/errs"
	"voicebank/pkg/media"
)

func errTokenNotFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", errs.ErrTokenNotFound, id)
}

func errNotFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", errs.ErrNotFound, id)
}

// fakeRepo is an in-memory stand-in for the metadata store. Only the
// behavior each test exercises is configured; everything else returns
// zero values.
type fakeRepo struct {
	mu sync.Mutex

	lookups     *entities.LookupTables
	lookupErr   error
	lookupCalls int

	tokens map[uuid.UUID]*entities.RecordingToken

	createErr error
	created   []entities.NewRecording

	details   map[uuid.UUID]*entities.RecordingDetail
	deleteErr error
	deleted   []uuid.UUID

	lookupToggleErr error
	toggled         []string

	calls []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tokens:  map[uuid.UUID]*entities.RecordingToken{},
		details: map[uuid.UUID]*entities.RecordingDetail{},
	}
}

func (f *fakeRepo) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }

func (f *fakeRepo) IssueToken(ctx context.Context, parentID uuid.UUID) (*entities.RecordingToken, error) {
	token := &entities.RecordingToken{ID: uuid.New(), ParentID: parentID}
	f.mu.Lock()
	f.tokens[token.ID] = token
	f.mu.Unlock()
	return token, nil
}

func (f *fakeRepo) PeekToken(ctx context.Context, tokenID uuid.UUID) (*entities.RecordingToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[tokenID]
	if !ok {
		return nil, errTokenNotFound(tokenID)
	}
	return token, nil
}

func (f *fakeRepo) CreateRecording(ctx context.Context, rec *entities.NewRecording) (*entities.CreatedRecording, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}

	token, ok := f.tokens[rec.TokenID]
	if !ok {
		return nil, errTokenNotFound(rec.TokenID)
	}
	delete(f.tokens, rec.TokenID)

	f.created = append(f.created, *rec)
	tokens := make([]uuid.UUID, rec.ChildTokens)
	for i := range tokens {
		tokens[i] = uuid.New()
	}
	return &entities.CreatedRecording{
		ID:            rec.ID,
		ParentID:      token.ParentID,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
		Tokens:        tokens,
		ManagementKey: uuid.New(),
	}, nil
}

func (f *fakeRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	f.record("soft-delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.RecordingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	detail, ok := f.details[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return detail, nil
}

func (f *fakeRepo) FindByManagementToken(ctx context.Context, key uuid.UUID) (*entities.RecordingDetail, error) {
	return nil, errNotFound(key)
}

func (f *fakeRepo) Children(ctx context.Context, parentID uuid.UUID) ([]entities.ChildRecording, error) {
	return nil, nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeRepo) SampleRandom(ctx context.Context, n int) ([]entities.PartialRecording, error) {
	return nil, nil
}

func (f *fakeRepo) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]entities.Recording, error) {
	return nil, nil
}

func (f *fakeRepo) LookupTables(ctx context.Context) (*entities.LookupTables, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.lookups, nil
}

func (f *fakeRepo) SetLookupEnabled(ctx context.Context, table constant.LookupTable, id int16, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupToggleErr != nil {
		return f.lookupToggleErr
	}
	f.toggled = append(f.toggled, table.String())
	return nil
}

// fakeTool returns canned probe results and marks transcodes by prefixing
// the payload.
type fakeTool struct {
	formats  []media.Format
	probeErr error

	mu             sync.Mutex
	transcodeCalls int
}

func (t *fakeTool) Probe(ctx context.Context, r io.Reader) ([]media.Format, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	if t.probeErr != nil {
		return nil, t.probeErr
	}
	return t.formats, nil
}

func (t *fakeTool) Transcode(ctx context.Context, r io.Reader, src, dst media.Format) (io.ReadCloser, error) {
	if src.Equal(dst) {
		return io.NopCloser(r), nil
	}
	t.mu.Lock()
	t.transcodeCalls++
	t.mu.Unlock()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("transcoded:" + string(data))), nil
}

func (t *fakeTool) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transcodeCalls
}

// fakeStore records uploads and removals in memory.
type fakeStore struct {
	mu        sync.Mutex
	uploads   map[string]string
	removed   []string
	uploadErr error
	removeErr error
	repo      *fakeRepo
}

func newFakeStore(repo *fakeRepo) *fakeStore {
	return &fakeStore{uploads: map[string]string{}, repo: repo}
}

func (s *fakeStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.repo != nil {
		s.repo.record("upload")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads[key] = string(data)
	return "https://cdn.test/" + key, nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, key)
	return nil
}

func (s *fakeStore) KeyFromURL(rawURL string) (string, error) {
	return strings.TrimPrefix(rawURL, "https://cdn.test/"), nil
}
