package service

import (
	"context"
	"sync/atomic"

	"voicebank/entities"
	"voicebank/pkg/media"
	"voicebank/repository"
)

// LookupCache is the process-wide read-mostly view of the reference tables.
// It holds an immutable versioned snapshot; the only mutation path is the
// admin enable/disable flow bumping the generation counter, after which
// readers lazily reload. Readers may serve stale data until the next
// refresh but never a partially updated state.
type LookupCache struct {
	repo repository.RecordingRepository
	gen  atomic.Uint64
	snap atomic.Pointer[LookupSnapshot]
}

// LookupSnapshot is one immutable, internally consistent read of the
// reference tables.
type LookupSnapshot struct {
	Generation uint64
	Categories []entities.Label
	Ages       []entities.Label
	Genders    []entities.Label
	MimeTypes  []entities.MimeType
}

func NewLookupCache(repo repository.RecordingRepository) *LookupCache {
	return &LookupCache{repo: repo}
}

// Generation returns the current invalidation generation.
func (c *LookupCache) Generation() uint64 {
	return c.gen.Load()
}

// Invalidate bumps the generation so the next reader reloads. Called only
// by the admin mutation path.
func (c *LookupCache) Invalidate() {
	c.gen.Add(1)
}

// Snapshot returns the current snapshot, reloading from the repository when
// the cached one predates the latest invalidation.
func (c *LookupCache) Snapshot(ctx context.Context) (*LookupSnapshot, error) {
	gen := c.gen.Load()
	if snap := c.snap.Load(); snap != nil && snap.Generation == gen {
		return snap, nil
	}

	tables, err := c.repo.LookupTables(ctx)
	if err != nil {
		return nil, err
	}

	snap := &LookupSnapshot{
		Generation: gen,
		Categories: tables.Categories,
		Ages:       tables.Ages,
		Genders:    tables.Genders,
		MimeTypes:  tables.MimeTypes,
	}
	c.snap.Store(snap)
	return snap, nil
}

// FindMimeType resolves a probed format against the enabled mappings.
// Disabled rows stay valid as historical references on existing recordings
// but are not accepted for new uploads.
func (s *LookupSnapshot) FindMimeType(f media.Format) (*entities.MimeType, bool) {
	for i := range s.MimeTypes {
		mt := &s.MimeTypes[i]
		if mt.Enabled && mt.Container == f.Container && mt.Codec == f.Codec {
			return mt, true
		}
	}
	return nil, false
}

// FormatEssences lists the mime essences of the enabled formats, for the
// public formats listing.
func (s *LookupSnapshot) FormatEssences() []string {
	essences := make([]string, 0, len(s.MimeTypes))
	for _, mt := range s.MimeTypes {
		if mt.Enabled {
			essences = append(essences, mt.Essence)
		}
	}
	return essences
}

func enabledOnly(labels []entities.Label) []entities.Label {
	out := make([]entities.Label, 0, len(labels))
	for _, l := range labels {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}

// EnabledCategories, EnabledAges and EnabledGenders feed the public
// listings; disabled rows are excluded from future selection.
func (s *LookupSnapshot) EnabledCategories() []entities.Label { return enabledOnly(s.Categories) }
func (s *LookupSnapshot) EnabledAges() []entities.Label       { return enabledOnly(s.Ages) }
func (s *LookupSnapshot) EnabledGenders() []entities.Label    { return enabledOnly(s.Genders) }
