package practitioner

import (
	"time"

	"github.com/google/uuid"
)

// RoleClinician is the only role that may author clinical writes.
const RoleClinician = "clinician"

// Record maps to the practitioner table.
type Record struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	GivenName      string    `db:"given_name" json:"given_name"`
	FamilyName     string    `db:"family_name" json:"family_name"`
	Role           string    `db:"role" json:"role"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
