package encounter

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists encounters, tenant-scoped.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Save(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Record, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Record, int, error)
	ListByPatient(ctx context.Context, tenantID string, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}
