package audit

import (
	"context"
	"fmt"
	"sync"
)

// MemorySink keeps the trail in memory for the default deployment profile
// and for tests. It also backs the read-only audit trail API on that
// profile.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, ev Event) error {
	if !ev.Valid() {
		return fmt.Errorf("audit: refusing to emit invalid event %q", ev.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// ListByTenant returns the tenant's events newest-first.
func (s *MemorySink) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Event
	for _, ev := range s.events {
		if ev.TenantID == tenantID {
			matched = append(matched, ev)
		}
	}
	// newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

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
