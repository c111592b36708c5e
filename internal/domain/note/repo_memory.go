package note

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type RepoMemory struct {
	mu       sync.RWMutex
	records  map[string]*Record
	versions map[string][]*Version // keyed by tenantID + "/" + noteID
}

func NewRepoMemory() *RepoMemory {
	return &RepoMemory{
		records:  make(map[string]*Record),
		versions: make(map[string][]*Version),
	}
}

func key(tenantID string, id uuid.UUID) string {
	return tenantID + "/" + id.String()
}

func (r *RepoMemory) Create(_ context.Context, rec *Record, first *Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(rec.TenantID, rec.ID)
	if _, exists := r.records[k]; exists {
		return domainerr.New(domainerr.CodeConflict)
	}
	r.records[k] = rec.Clone()
	r.versions[k] = []*Version{first.Clone()}
	return nil
}

func (r *RepoMemory) Save(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(rec.TenantID, rec.ID)
	if _, exists := r.records[k]; !exists {
		return domainerr.New(domainerr.CodeNotFound)
	}
	r.records[k] = rec.Clone()
	return nil
}

func (r *RepoMemory) AppendVersion(_ context.Context, v *Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(v.TenantID, v.NoteID)
	if _, exists := r.records[k]; !exists {
		return domainerr.New(domainerr.CodeNotFound)
	}
	for _, existing := range r.versions[k] {
		if existing.Seq == v.Seq {
			return domainerr.New(domainerr.CodeConflict)
		}
	}
	r.versions[k] = append(r.versions[k], v.Clone())
	return nil
}

func (r *RepoMemory) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[key(tenantID, id)]
	if !exists {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	return rec.Clone(), nil
}

func (r *RepoMemory) FindVersion(_ context.Context, tenantID string, noteID uuid.UUID, seq int) (*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.versions[key(tenantID, noteID)] {
		if v.Seq == seq {
			return v.Clone(), nil
		}
	}
	return nil, domainerr.New(domainerr.CodeNotFound)
}

func (r *RepoMemory) ListVersions(_ context.Context, tenantID string, noteID uuid.UUID) ([]*Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := key(tenantID, noteID)
	if _, exists := r.records[k]; !exists {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	out := make([]*Version, 0, len(r.versions[k]))
	for _, v := range r.versions[k] {
		out = append(out, v.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *RepoMemory) ListByEncounter(_ context.Context, tenantID string, encounterID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Record
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.EncounterID == encounterID {
			matched = append(matched, rec.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *RepoMemory) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(tenantID, id)
	if _, exists := r.records[k]; !exists {
		return domainerr.New(domainerr.CodeNotFound)
	}
	delete(r.records, k)
	delete(r.versions, k)
	return nil
}

func (r *RepoMemory) DeleteVersion(_ context.Context, tenantID string, noteID uuid.UUID, seq int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(tenantID, noteID)
	for i, v := range r.versions[k] {
		if v.Seq == seq {
			r.versions[k] = append(r.versions[k][:i], r.versions[k][i+1:]...)
			return nil
		}
	}
	return domainerr.New(domainerr.CodeNotFound)
}
