package note

import (
	"time"

	"github.com/google/uuid"
)

// Note statuses. Finalized is terminal: content is immutable from then on.
const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"
)

// Record maps to the clinical_note table. Content lives in the append-only
// clinical_note_version table; CurrentVersion points at the latest entry.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	TenantID       string     `db:"tenant_id" json:"tenant_id"`
	EncounterID    uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	AuthorID       string     `db:"author_id" json:"author_id"`
	Status         string     `db:"status" json:"status"`
	CurrentVersion int        `db:"current_version" json:"current_version"`
	FinalizedAt    *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	FinalizedBy    string     `db:"finalized_by" json:"finalized_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	LastModifiedBy string     `db:"last_modified_by" json:"last_modified_by"`
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.FinalizedAt != nil {
		t := *r.FinalizedAt
		cp.FinalizedAt = &t
	}
	return &cp
}

// Version is one immutable content snapshot. Versions are only ever
// appended, never rewritten or removed, except to undo a write whose audit
// emission failed.
type Version struct {
	ID         uuid.UUID `db:"id" json:"id"`
	NoteID     uuid.UUID `db:"note_id" json:"note_id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	Seq        int       `db:"seq" json:"seq"`
	Content    string    `db:"content" json:"content"`
	AuthoredBy string    `db:"authored_by" json:"authored_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
