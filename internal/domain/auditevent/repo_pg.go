package auditevent

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

// TrailPG reads the audit_event table the PGSink writes.
type TrailPG struct {
	pool *pgxpool.Pool
}

func NewTrailPG(pool *pgxpool.Pool) *TrailPG {
	return &TrailPG{pool: pool}
}

func (t *TrailPG) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]audit.Event, int, error) {
	var total int
	if err := t.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_event WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, domainerr.Persistence(err)
	}

	rows, err := t.pool.Query(ctx, `
		SELECT kind, tenant_id, clinician_id, correlation_id, entity_type, entity_id, occurred_at, attrs
		FROM audit_event
		WHERE tenant_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, domainerr.Persistence(err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var ev audit.Event
		var kind string
		var attrs []byte
		if err := rows.Scan(&kind, &ev.TenantID, &ev.ClinicianID, &ev.CorrelationID,
			&ev.EntityType, &ev.EntityID, &ev.OccurredAt, &attrs); err != nil {
			return nil, 0, domainerr.Persistence(err)
		}
		ev.Kind = audit.Kind(kind)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &ev.Attrs); err != nil {
				return nil, 0, domainerr.Persistence(err)
			}
		}
		events = append(events, ev)
	}
	return events, total, nil
}
