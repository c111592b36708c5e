package practitioner

import (
	"time"

	"github.com/google/uuid"
)

// View is the frozen read projection of a practitioner.
type View struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewView(r *Record) View {
	return View{
		ID:          r.ID,
		DisplayName: r.GivenName + " " + r.FamilyName,
		Role:        r.Role,
		Active:      r.Active,
		UpdatedAt:   r.UpdatedAt,
	}
}
