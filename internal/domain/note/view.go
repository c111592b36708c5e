package note

import (
	"time"

	"github.com/google/uuid"
)

// View is the frozen read projection of a note plus its latest content.
type View struct {
	ID          uuid.UUID  `json:"id"`
	EncounterID uuid.UUID  `json:"encounter_id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	AuthorID    string     `json:"author_id"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	Content     string     `json:"content"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewView(r *Record, latest *Version) View {
	v := View{
		ID:          r.ID,
		EncounterID: r.EncounterID,
		PatientID:   r.PatientID,
		AuthorID:    r.AuthorID,
		Status:      r.Status,
		Version:     r.CurrentVersion,
		FinalizedAt: r.FinalizedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if latest != nil {
		v.Content = latest.Content
	}
	return v
}

// VersionView exposes one history entry.
type VersionView struct {
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	AuthoredBy string    `json:"authored_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewVersionView(v *Version) VersionView {
	return VersionView{
		Seq:        v.Seq,
		Content:    v.Content,
		AuthoredBy: v.AuthoredBy,
		CreatedAt:  v.CreatedAt,
	}
}
