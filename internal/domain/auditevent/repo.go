package auditevent

import (
	"context"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

// Trail reads the audit log back out, newest-first, tenant-scoped.
// audit.MemorySink satisfies it directly; the postgres profile uses TrailPG.
type Trail interface {
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]audit.Event, int, error)
}
