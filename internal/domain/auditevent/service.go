package auditevent

import "context"

type Service struct {
	trail Trail
}

func NewService(trail Trail) *Service {
	return &Service{trail: trail}
}

func (s *Service) List(ctx context.Context, tenantID string, limit, offset int) ([]View, int, error) {
	events, total, err := s.trail.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, len(events))
	for i, ev := range events {
		views[i] = NewView(ev)
	}
	return views, total, nil
}
