package encounter

import (
	"time"

	"github.com/google/uuid"
)

// View is the frozen read projection of an encounter.
type View struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewView(r *Record) View {
	return View{
		ID:             r.ID,
		PatientID:      r.PatientID,
		PractitionerID: r.PractitionerID,
		Status:         r.Status,
		Reason:         r.Reason,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
