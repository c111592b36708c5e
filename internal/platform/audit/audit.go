package audit

import (
	"context"
	"time"
)

// Kind identifies an audit event. The set is closed; sinks reject anything
// outside it.
type Kind string

const (
	PatientCreated          Kind = "PATIENT_CREATED"
	PatientUpdated          Kind = "PATIENT_UPDATED"
	PractitionerCreated     Kind = "PRACTITIONER_CREATED"
	PractitionerDeactivated Kind = "PRACTITIONER_DEACTIVATED"
	EncounterCreated        Kind = "ENCOUNTER_CREATED"
	EncounterStatusChanged  Kind = "ENCOUNTER_STATUS_CHANGED"
	NoteDraftStarted        Kind = "NOTE_DRAFT_STARTED"
	NoteDraftUpdated        Kind = "NOTE_DRAFT_UPDATED"
	NoteFinalized           Kind = "NOTE_FINALIZED"
)

var knownKinds = map[Kind]bool{
	PatientCreated:          true,
	PatientUpdated:          true,
	PractitionerCreated:     true,
	PractitionerDeactivated: true,
	EncounterCreated:        true,
	EncounterStatusChanged:  true,
	NoteDraftStarted:        true,
	NoteDraftUpdated:        true,
	NoteFinalized:           true,
}

// Event is what sinks record. It carries identifiers, timestamps, and
// correlation only — never names, MRNs, birth dates, or note content. Attrs
// is limited to non-clinical values (status codes, version numbers); the
// NewEvent constructor is the only way to build one, so nothing clinical can
// sneak in through a struct literal elsewhere in this module's write paths.
type Event struct {
	Kind          Kind
	TenantID      string
	ClinicianID   string
	CorrelationID string
	EntityType    string
	EntityID      string
	OccurredAt    time.Time
	Attrs         map[string]string
}

// NewEvent builds an audit event for a known kind. Unknown kinds yield a
// zero event that every sink rejects, keeping the event set closed.
func NewEvent(kind Kind, tenantID, clinicianID, correlationID, entityType, entityID string, attrs map[string]string) Event {
	if !knownKinds[kind] {
		return Event{}
	}
	return Event{
		Kind:          kind,
		TenantID:      tenantID,
		ClinicianID:   clinicianID,
		CorrelationID: correlationID,
		EntityType:    entityType,
		EntityID:      entityID,
		OccurredAt:    time.Now().UTC(),
		Attrs:         attrs,
	}
}

// Valid reports whether the event belongs to the closed set and names its
// tenant and actor.
func (e Event) Valid() bool {
	return knownKinds[e.Kind] && e.TenantID != "" && e.ClinicianID != ""
}

// Sink records audit events synchronously. A failed Emit must fail the
// originating write: the record is not durable without its trail.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// MultiSink fans out to several sinks; the first failure aborts.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, ev Event) error {
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
