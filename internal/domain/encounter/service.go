package encounter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/practitioner"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type Service struct {
	repo          Repository
	patients      patient.Repository
	practitioners practitioner.Repository
	sink          audit.Sink
	runner        db.Runner
}

func NewService(repo Repository, patients patient.Repository, practitioners practitioner.Repository, sink audit.Sink, runner db.Runner) *Service {
	return &Service{
		repo:          repo,
		patients:      patients,
		practitioners: practitioners,
		sink:          sink,
		runner:        runner,
	}
}

type CreateInput struct {
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Reason         string    `json:"reason"`
}

func guardAuthority(authz *authority.Context) error {
	if authz == nil {
		return domainerr.New(domainerr.CodeAuthorityMissing)
	}
	if !authz.Valid() {
		return domainerr.New(domainerr.CodeAuthorityInvalid)
	}
	return nil
}

// Create opens a planned encounter. Both references must resolve inside the
// caller's tenant; an id that lives in another tenant is treated the same as
// one that does not exist.
func (s *Service) Create(ctx context.Context, in CreateInput, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var details []string
	if in.PatientID == uuid.Nil {
		details = append(details, "patient_id: required")
	}
	if in.PractitionerID == uuid.Nil {
		details = append(details, "practitioner_id: required")
	}
	if len(details) > 0 {
		return nil, domainerr.Validation(details...)
	}

	// Reference lookups are tenant-scoped; an id from another tenant is
	// indistinguishable from one that does not exist, and either surfaces
	// as the repository's NOT_FOUND.
	if _, err := s.patients.FindByID(ctx, authz.TenantID, in.PatientID); err != nil {
		return nil, err
	}
	prac, err := s.practitioners.FindByID(ctx, authz.TenantID, in.PractitionerID)
	if err != nil {
		return nil, err
	}
	if !prac.Active {
		return nil, domainerr.Validation("practitioner_id: practitioner is not active")
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:             uuid.New(),
		TenantID:       authz.TenantID,
		PatientID:      in.PatientID,
		PractitionerID: in.PractitionerID,
		Status:         StatusPlanned,
		Reason:         in.Reason,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: authz.ClinicianID,
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.EncounterCreated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"encounter", rec.ID.String(), map[string]string{"status": rec.Status})
		if err := s.sink.Emit(ctx, ev); err != nil {
			_ = s.repo.Delete(ctx, rec.TenantID, rec.ID)
			return domainerr.Persistence(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ChangeStatus moves an encounter along the state machine. An unknown target
// is a validation failure; a known target that the machine does not permit
// from the current status is an invalid transition.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus string, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}
	if !KnownStatus(newStatus) {
		return nil, domainerr.Validation("status: unknown status")
	}

	var updated *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		prior, err := s.repo.FindByID(ctx, authz.TenantID, id)
		if err != nil {
			return err
		}
		if !CanTransition(prior.Status, newStatus) {
			return domainerr.New(domainerr.CodeInvalidTransition)
		}

		now := time.Now().UTC()
		rec := prior.Clone()
		rec.Status = newStatus
		rec.UpdatedAt = now
		rec.LastModifiedBy = authz.ClinicianID

		// Timestamps follow the transition, never the other way around.
		switch newStatus {
		case StatusInProgress:
			rec.StartedAt = &now
		case StatusCompleted, StatusCancelled:
			rec.EndedAt = &now
		}

		if err := s.repo.Save(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.EncounterStatusChanged,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"encounter", rec.ID.String(),
			map[string]string{"from": prior.Status, "to": newStatus})
		if err := s.sink.Emit(ctx, ev); err != nil {
			_ = s.repo.Save(ctx, prior)
			return domainerr.Persistence(err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, tenantID string, id uuid.UUID) (View, error) {
	rec, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return View{}, err
	}
	return NewView(rec), nil
}

func (s *Service) List(ctx context.Context, tenantID string, limit, offset int) ([]View, int, error) {
	recs, total, err := s.repo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toViews(recs), total, nil
}

func (s *Service) ListByPatient(ctx context.Context, tenantID string, patientID uuid.UUID, limit, offset int) ([]View, int, error) {
	recs, total, err := s.repo.ListByPatient(ctx, tenantID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toViews(recs), total, nil
}

func toViews(recs []*Record) []View {
	views := make([]View, len(recs))
	for i, rec := range recs {
		views[i] = NewView(rec)
	}
	return views
}
