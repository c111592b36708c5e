package practitioner

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type RepoMemory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewRepoMemory() *RepoMemory {
	return &RepoMemory{records: make(map[string]*Record)}
}

func key(tenantID string, id uuid.UUID) string {
	return tenantID + "/" + id.String()
}

func (r *RepoMemory) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(rec.TenantID, rec.ID)
	if _, exists := r.records[k]; exists {
		return domainerr.New(domainerr.CodeConflict)
	}
	r.records[k] = rec.Clone()
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

func (r *RepoMemory) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[key(tenantID, id)]
	if !exists {
		return nil, domainerr.New(domainerr.CodeNotFound)
	}
	return rec.Clone(), nil
}

func (r *RepoMemory) List(_ context.Context, tenantID string, limit, offset int) ([]*Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Record
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
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
	return nil
}
