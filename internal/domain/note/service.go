package note

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/encounter"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type Service struct {
	repo       Repository
	encounters encounter.Repository
	sink       audit.Sink
	runner     db.Runner
}

func NewService(repo Repository, encounters encounter.Repository, sink audit.Sink, runner db.Runner) *Service {
	return &Service{repo: repo, encounters: encounters, sink: sink, runner: runner}
}

type StartDraftInput struct {
	EncounterID uuid.UUID `json:"encounter_id"`
	Content     string    `json:"content"`
}

type UpdateDraftInput struct {
	Content string `json:"content"`
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

// StartDraft opens a new draft note against an encounter in the caller's
// tenant. The first content snapshot becomes version 1.
func (s *Service) StartDraft(ctx context.Context, in StartDraftInput, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var details []string
	if in.EncounterID == uuid.Nil {
		details = append(details, "encounter_id: required")
	}
	if strings.TrimSpace(in.Content) == "" {
		details = append(details, "content: required")
	}
	if len(details) > 0 {
		return nil, domainerr.Validation(details...)
	}

	// The encounter lookup is tenant-scoped; a cross-tenant id surfaces as
	// the repository's NOT_FOUND, never as a validation detail.
	enc, err := s.encounters.FindByID(ctx, authz.TenantID, in.EncounterID)
	if err != nil {
		return nil, err
	}
	if enc.Status == encounter.StatusCancelled {
		return nil, domainerr.Validation("encounter_id: encounter is cancelled")
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:             uuid.New(),
		TenantID:       authz.TenantID,
		EncounterID:    in.EncounterID,
		PatientID:      enc.PatientID,
		AuthorID:       authz.ClinicianID,
		Status:         StatusDraft,
		CurrentVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: authz.ClinicianID,
	}
	first := &Version{
		ID:         uuid.New(),
		NoteID:     rec.ID,
		TenantID:   authz.TenantID,
		Seq:        1,
		Content:    in.Content,
		AuthoredBy: authz.ClinicianID,
		CreatedAt:  now,
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec, first); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.NoteDraftStarted,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"clinical_note", rec.ID.String(), map[string]string{"version": "1"})
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

// UpdateDraft appends a new content version. A finalized note refuses
// further updates with a conflict; history already written never changes.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in UpdateDraftInput, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, domainerr.Validation("content: required")
	}

	var updated *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		prior, err := s.repo.FindByID(ctx, authz.TenantID, id)
		if err != nil {
			return err
		}
		if prior.Status == StatusFinalized {
			return domainerr.New(domainerr.CodeAlreadyFinalized)
		}

		now := time.Now().UTC()
		next := &Version{
			ID:         uuid.New(),
			NoteID:     prior.ID,
			TenantID:   authz.TenantID,
			Seq:        prior.CurrentVersion + 1,
			Content:    in.Content,
			AuthoredBy: authz.ClinicianID,
			CreatedAt:  now,
		}
		if err := s.repo.AppendVersion(ctx, next); err != nil {
			return err
		}

		rec := prior.Clone()
		rec.CurrentVersion = next.Seq
		rec.UpdatedAt = now
		rec.LastModifiedBy = authz.ClinicianID
		if err := s.repo.Save(ctx, rec); err != nil {
			_ = s.repo.DeleteVersion(ctx, authz.TenantID, prior.ID, next.Seq)
			return err
		}

		ev := audit.NewEvent(audit.NoteDraftUpdated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"clinical_note", rec.ID.String(),
			map[string]string{"version": strconv.Itoa(next.Seq)})
		if err := s.sink.Emit(ctx, ev); err != nil {
			_ = s.repo.Save(ctx, prior)
			_ = s.repo.DeleteVersion(ctx, authz.TenantID, prior.ID, next.Seq)
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

// Finalize freezes the note. It is not idempotent: a second finalize is a
// conflict and leaves FinalizedAt exactly as the first one set it.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var updated *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		prior, err := s.repo.FindByID(ctx, authz.TenantID, id)
		if err != nil {
			return err
		}
		if prior.Status == StatusFinalized {
			return domainerr.New(domainerr.CodeAlreadyFinalized)
		}

		now := time.Now().UTC()
		rec := prior.Clone()
		rec.Status = StatusFinalized
		rec.FinalizedAt = &now
		rec.FinalizedBy = authz.ClinicianID
		rec.UpdatedAt = now
		rec.LastModifiedBy = authz.ClinicianID

		if err := s.repo.Save(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.NoteFinalized,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"clinical_note", rec.ID.String(),
			map[string]string{"version": strconv.Itoa(rec.CurrentVersion)})
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
	latest, err := s.repo.FindVersion(ctx, tenantID, id, rec.CurrentVersion)
	if err != nil {
		return View{}, err
	}
	return NewView(rec, latest), nil
}

func (s *Service) History(ctx context.Context, tenantID string, id uuid.UUID) ([]VersionView, error) {
	versions, err := s.repo.ListVersions(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	views := make([]VersionView, len(versions))
	for i, v := range versions {
		views[i] = NewVersionView(v)
	}
	return views, nil
}

func (s *Service) ListByEncounter(ctx context.Context, tenantID string, encounterID uuid.UUID, limit, offset int) ([]View, int, error) {
	recs, total, err := s.repo.ListByEncounter(ctx, tenantID, encounterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]View, len(recs))
	for i, rec := range recs {
		latest, err := s.repo.FindVersion(ctx, tenantID, rec.ID, rec.CurrentVersion)
		if err != nil {
			return nil, 0, err
		}
		views[i] = NewView(rec, latest)
	}
	return views, total, nil
}
