package patient

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the patient table. It is the write model: every mutation
// goes through the service, which stamps LastModifiedBy from the caller's
// verified authority.
type Record struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	MRN            string    `db:"mrn" json:"mrn"`
	GivenName      string    `db:"given_name" json:"given_name"`
	FamilyName     string    `db:"family_name" json:"family_name"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
}

// Clone returns an independent copy so repositories never hand out aliased
// state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
