package auditevent

import (
	"time"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

// View is the read projection of one trail entry. The trail is append-only
// and read-only from here: nothing in this package can write, edit, or
// delete events.
type View struct {
	Kind          string            `json:"kind"`
	ClinicianID   string            `json:"clinician_id"`
	CorrelationID string            `json:"correlation_id"`
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Attrs         map[string]string `json:"attrs,omitempty"`
}

func NewView(ev audit.Event) View {
	return View{
		Kind:          string(ev.Kind),
		ClinicianID:   ev.ClinicianID,
		CorrelationID: ev.CorrelationID,
		EntityType:    ev.EntityType,
		EntityID:      ev.EntityID,
		OccurredAt:    ev.OccurredAt,
		Attrs:         ev.Attrs,
	}
}
