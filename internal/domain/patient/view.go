package patient

import (
	"time"

	"github.com/google/uuid"
)

// View is the read model: a frozen projection of a Record. It carries no
// authority and cannot be submitted back as a write.
type View struct {
	ID          uuid.UUID `json:"id"`
	MRN         string    `json:"mrn"`
	DisplayName string    `json:"display_name"`
	DateOfBirth string    `json:"date_of_birth"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewView projects a record into its read shape.
func NewView(r *Record) View {
	return View{
		ID:          r.ID,
		MRN:         r.MRN,
		DisplayName: r.GivenName + " " + r.FamilyName,
		DateOfBirth: r.DateOfBirth.Format("2006-01-02"),
		UpdatedAt:   r.UpdatedAt,
	}
}
