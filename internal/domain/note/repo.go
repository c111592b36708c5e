package note

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists notes and their version history, tenant-scoped.
type Repository interface {
	// Create inserts the note record and its first version together.
	Create(ctx context.Context, rec *Record, first *Version) error
	Save(ctx context.Context, rec *Record) error
	AppendVersion(ctx context.Context, v *Version) error
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*Record, error)
	FindVersion(ctx context.Context, tenantID string, noteID uuid.UUID, seq int) (*Version, error)
	ListVersions(ctx context.Context, tenantID string, noteID uuid.UUID) ([]*Version, error)
	ListByEncounter(ctx context.Context, tenantID string, encounterID uuid.UUID, limit, offset int) ([]*Record, int, error)
	// Delete and DeleteVersion exist to undo writes whose audit emission
	// failed; nothing else may call them.
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	DeleteVersion(ctx context.Context, tenantID string, noteID uuid.UUID, seq int) error
}
