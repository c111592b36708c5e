package practitioner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type Service struct {
	repo   Repository
	sink   audit.Sink
	runner db.Runner
}

func NewService(repo Repository, sink audit.Sink, runner db.Runner) *Service {
	return &Service{repo: repo, sink: sink, runner: runner}
}

type CreateInput struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Role       string `json:"role"`
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

func (s *Service) Create(ctx context.Context, in CreateInput, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var details []string
	if strings.TrimSpace(in.GivenName) == "" {
		details = append(details, "given_name: required")
	}
	if strings.TrimSpace(in.FamilyName) == "" {
		details = append(details, "family_name: required")
	}
	if in.Role != RoleClinician {
		details = append(details, "role: must be a recognized role")
	}
	if len(details) > 0 {
		return nil, domainerr.Validation(details...)
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:             uuid.New(),
		TenantID:       authz.TenantID,
		GivenName:      strings.TrimSpace(in.GivenName),
		FamilyName:     strings.TrimSpace(in.FamilyName),
		Role:           in.Role,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: authz.ClinicianID,
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.PractitionerCreated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"practitioner", rec.ID.String(), nil)
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

// Deactivate retires a practitioner. Deactivation is not idempotent: a
// second attempt is a conflict, so callers learn the record already changed
// under them.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var updated *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		prior, err := s.repo.FindByID(ctx, authz.TenantID, id)
		if err != nil {
			return err
		}
		if !prior.Active {
			return domainerr.New(domainerr.CodeConflict)
		}

		rec := prior.Clone()
		rec.Active = false
		rec.UpdatedAt = time.Now().UTC()
		rec.LastModifiedBy = authz.ClinicianID

		if err := s.repo.Save(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.PractitionerDeactivated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"practitioner", rec.ID.String(), nil)
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
	views := make([]View, len(recs))
	for i, rec := range recs {
		views[i] = NewView(rec)
	}
	return views, total, nil
}
