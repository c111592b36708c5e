package patient

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

// CreateInput carries caller-supplied demographics. Identity, tenant, and
// attribution never come from input; they come from the verified authority.
type CreateInput struct {
	MRN         string `json:"mrn"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	DateOfBirth string `json:"date_of_birth"`
}

type UpdateInput struct {
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	DateOfBirth string `json:"date_of_birth"`
}

// guardAuthority is the deny-by-default gate on every write. A nil context
// and an unverified context are distinct failures with distinct codes.
func guardAuthority(authz *authority.Context) error {
	if authz == nil {
		return domainerr.New(domainerr.CodeAuthorityMissing)
	}
	if !authz.Valid() {
		return domainerr.New(domainerr.CodeAuthorityInvalid)
	}
	return nil
}

func parseDOB(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Service) Create(ctx context.Context, in CreateInput, authz *authority.Context) (*Record, error) {
	if err := guardAuthority(authz); err != nil {
		return nil, err
	}

	var details []string
	if strings.TrimSpace(in.MRN) == "" {
		details = append(details, "mrn: required")
	}
	if strings.TrimSpace(in.GivenName) == "" {
		details = append(details, "given_name: required")
	}
	if strings.TrimSpace(in.FamilyName) == "" {
		details = append(details, "family_name: required")
	}
	dob, ok := parseDOB(in.DateOfBirth)
	if !ok {
		details = append(details, "date_of_birth: must be a valid YYYY-MM-DD date")
	} else if dob.After(time.Now().UTC()) {
		details = append(details, "date_of_birth: must not be in the future")
	}
	if len(details) > 0 {
		return nil, domainerr.Validation(details...)
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:             uuid.New(),
		TenantID:       authz.TenantID,
		MRN:            strings.TrimSpace(in.MRN),
		GivenName:      strings.TrimSpace(in.GivenName),
		FamilyName:     strings.TrimSpace(in.FamilyName),
		DateOfBirth:    dob,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: authz.ClinicianID,
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.PatientCreated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"patient", rec.ID.String(), nil)
		if err := s.sink.Emit(ctx, ev); err != nil {
			// The write is not durable without its trail: undo it.
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

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, authz *authority.Context) (*Record, error) {
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
	dob, ok := parseDOB(in.DateOfBirth)
	if !ok {
		details = append(details, "date_of_birth: must be a valid YYYY-MM-DD date")
	} else if dob.After(time.Now().UTC()) {
		details = append(details, "date_of_birth: must not be in the future")
	}
	if len(details) > 0 {
		return nil, domainerr.Validation(details...)
	}

	var updated *Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		prior, err := s.repo.FindByID(ctx, authz.TenantID, id)
		if err != nil {
			return err
		}

		rec := prior.Clone()
		rec.GivenName = strings.TrimSpace(in.GivenName)
		rec.FamilyName = strings.TrimSpace(in.FamilyName)
		rec.DateOfBirth = dob
		rec.UpdatedAt = time.Now().UTC()
		rec.LastModifiedBy = authz.ClinicianID

		if err := s.repo.Save(ctx, rec); err != nil {
			return err
		}
		ev := audit.NewEvent(audit.PatientUpdated,
			authz.TenantID, authz.ClinicianID, authz.CorrelationID,
			"patient", rec.ID.String(), nil)
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

// Get serves the read model. Reads carry no authority; tenant scoping alone
// decides visibility, and a cross-tenant id is indistinguishable from a
// missing one.
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
