package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records. Every operation is tenant-scoped:
// an id that exists under another tenant behaves exactly like an id that
// does not exist at all.
type Repository interface {
	// Create inserts a new record. A record with the same id, or the same
	// MRN within the tenant, yields CONFLICT.
	Create(ctx context.Context, rec *Record) error
	// Save overwrites an existing record in place; NOT_FOUND if absent.
	Save(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Record, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error)
	// Delete removes a record. Used by the write path to undo a create
	// whose audit emission failed.
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}
