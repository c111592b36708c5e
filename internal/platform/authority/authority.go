package authority

import (
	"fmt"
	"time"
)

// Context asserts that a specific clinician, in a specific tenant, authorized
// one operation at one instant. It is built once per request by the boundary
// middleware and never persisted, serialized, or reused.
//
// The verified marker is unexported: code outside this package cannot
// fabricate a Context that passes Valid, even with every public field set.
type Context struct {
	ClinicianID   string
	TenantID      string
	AuthorizedAt  time.Time
	CorrelationID string

	verified bool
}

// New is the sole trusted constructor. It stamps AuthorizedAt with the
// current instant; callers cannot supply their own authorization time.
func New(clinicianID, tenantID, correlationID string) (Context, error) {
	if clinicianID == "" {
		return Context{}, fmt.Errorf("clinician id is required")
	}
	if tenantID == "" {
		return Context{}, fmt.Errorf("tenant id is required")
	}
	if correlationID == "" {
		return Context{}, fmt.Errorf("correlation id is required")
	}
	return Context{
		ClinicianID:   clinicianID,
		TenantID:      tenantID,
		AuthorizedAt:  time.Now().UTC(),
		CorrelationID: correlationID,
		verified:      true,
	}, nil
}

// Valid reports whether the context carries the trusted marker and all
// identity and temporal fields. Invalid input yields false, never an error;
// the deny decision belongs to the caller.
func (c Context) Valid() bool {
	return c.verified &&
		c.ClinicianID != "" &&
		c.TenantID != "" &&
		c.CorrelationID != "" &&
		!c.AuthorizedAt.IsZero()
}
