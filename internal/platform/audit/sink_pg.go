package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

// PGSink appends events to the audit_event table. When the write path runs
// inside a transaction, the insert joins it, so a rollback of the record
// also removes the trail and an Emit failure rolls back the record.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGSink) Emit(ctx context.Context, ev Event) error {
	if !ev.Valid() {
		return fmt.Errorf("audit: refusing to emit invalid event %q", ev.Kind)
	}
	attrs, err := json.Marshal(ev.Attrs)
	if err != nil {
		return fmt.Errorf("audit: encode attrs: %w", err)
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO audit_event (
			id, kind, tenant_id, clinician_id, correlation_id,
			entity_type, entity_id, occurred_at, attrs
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		uuid.New(), string(ev.Kind), ev.TenantID, ev.ClinicianID, ev.CorrelationID,
		ev.EntityType, ev.EntityID, ev.OccurredAt, attrs,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}
