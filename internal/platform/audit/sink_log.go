package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogSink mirrors audit events to structured log output. It can serve as the
// sole sink on the memory profile or alongside the postgres sink.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev Event) error {
	if !ev.Valid() {
		return fmt.Errorf("audit: refusing to emit invalid event %q", ev.Kind)
	}
	evt := s.logger.Info().
		Str("type", "audit").
		Str("event", string(ev.Kind)).
		Str("tenant_id", ev.TenantID).
		Str("clinician_id", ev.ClinicianID).
		Str("correlation_id", ev.CorrelationID).
		Str("entity_type", ev.EntityType).
		Str("entity_id", ev.EntityID).
		Time("occurred_at", ev.OccurredAt)
	for k, v := range ev.Attrs {
		evt = evt.Str("attr_"+k, v)
	}
	evt.Msg("audit_event")
	return nil
}
