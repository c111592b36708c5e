package encounter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/practitioner"
	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

type failingSink struct{}

func (failingSink) Emit(context.Context, audit.Event) error {
	return errors.New("sink unavailable")
}

type fixture struct {
	svc            *Service
	repo           *RepoMemory
	sink           *audit.MemorySink
	patientID      uuid.UUID
	practitionerID uuid.UUID
}

func newFixture(t *testing.T, tenantID string) *fixture {
	t.Helper()

	patients := patient.NewRepoMemory()
	practitioners := practitioner.NewRepoMemory()
	repo := NewRepoMemory()
	sink := audit.NewMemorySink()

	now := time.Now().UTC()
	pat := &patient.Record{
		ID: uuid.New(), TenantID: tenantID, MRN: "MRN-001",
		GivenName: "Ada", FamilyName: "Lovelace",
		DateOfBirth: now.AddDate(-30, 0, 0),
		CreatedAt:   now, UpdatedAt: now, LastModifiedBy: "seed",
	}
	if err := patients.Create(context.Background(), pat); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	prac := &practitioner.Record{
		ID: uuid.New(), TenantID: tenantID,
		GivenName: "River", FamilyName: "Song",
		Role: practitioner.RoleClinician, Active: true,
		CreatedAt: now, UpdatedAt: now, LastModifiedBy: "seed",
	}
	if err := practitioners.Create(context.Background(), prac); err != nil {
		t.Fatalf("seed practitioner: %v", err)
	}

	return &fixture{
		svc:            NewService(repo, patients, practitioners, sink, db.PassthroughRunner{}),
		repo:           repo,
		sink:           sink,
		patientID:      pat.ID,
		practitionerID: prac.ID,
	}
}

func testAuthority(t *testing.T, tenantID string) *authority.Context {
	t.Helper()
	authz, err := authority.New("clin-1", tenantID, "corr-1")
	if err != nil {
		t.Fatalf("build authority: %v", err)
	}
	return &authz
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
		Reason:         "annual checkup",
	}, authz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusPlanned {
		t.Errorf("expected new encounter planned, got %s", rec.Status)
	}

	events, total, _ := f.sink.ListByTenant(context.Background(), "tenant-a", 10, 0)
	if total != 1 || events[0].Kind != audit.EncounterCreated {
		t.Fatalf("expected one ENCOUNTER_CREATED event, got %d", total)
	}
}

func TestService_Create_UnknownPatient(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      uuid.New(),
		PractitionerID: f.practitionerID,
	}, authz)
	if !domainerr.Is(err, domainerr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown patient, got %v", err)
	}
}

func TestService_Create_CrossTenantPatient(t *testing.T) {
	f := newFixture(t, "tenant-a")

	// Patient and practitioner live in tenant-a; the caller acts in tenant-b.
	other := newFixture(t, "tenant-b")
	authz := testAuthority(t, "tenant-b")

	_, err := other.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: other.practitionerID,
	}, authz)
	if !domainerr.Is(err, domainerr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for cross-tenant patient ref, got %v", err)
	}
}

func TestService_Create_InactivePractitioner(t *testing.T) {
	patients := patient.NewRepoMemory()
	practitioners := practitioner.NewRepoMemory()
	now := time.Now().UTC()

	pat := &patient.Record{
		ID: uuid.New(), TenantID: "tenant-a", MRN: "MRN-001",
		GivenName: "Ada", FamilyName: "Lovelace",
		DateOfBirth: now.AddDate(-30, 0, 0),
		CreatedAt:   now, UpdatedAt: now, LastModifiedBy: "seed",
	}
	_ = patients.Create(context.Background(), pat)

	prac := &practitioner.Record{
		ID: uuid.New(), TenantID: "tenant-a",
		GivenName: "River", FamilyName: "Song",
		Role: practitioner.RoleClinician, Active: false,
		CreatedAt: now, UpdatedAt: now, LastModifiedBy: "seed",
	}
	_ = practitioners.Create(context.Background(), prac)

	svc := NewService(NewRepoMemory(), patients, practitioners, audit.NewMemorySink(), db.PassthroughRunner{})
	authz := testAuthority(t, "tenant-a")

	_, err := svc.Create(context.Background(), CreateInput{
		PatientID:      pat.ID,
		PractitionerID: prac.ID,
	}, authz)
	if !domainerr.Is(err, domainerr.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for inactive practitioner, got %v", err)
	}
}

func TestService_ChangeStatus(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
	}, authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.ChangeStatus(context.Background(), rec.ID, StatusInProgress, authz)
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Errorf("expected in-progress, got %s", updated.Status)
	}
	if updated.StartedAt == nil {
		t.Error("expected StartedAt stamped on entering in-progress")
	}
	if updated.EndedAt != nil {
		t.Error("EndedAt must stay unset until a terminal status")
	}

	done, err := f.svc.ChangeStatus(context.Background(), rec.ID, StatusCompleted, authz)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.EndedAt == nil {
		t.Error("expected EndedAt stamped on completion")
	}

	events, _, _ := f.sink.ListByTenant(context.Background(), "tenant-a", 10, 0)
	if events[0].Kind != audit.EncounterStatusChanged {
		t.Errorf("expected ENCOUNTER_STATUS_CHANGED newest, got %s", events[0].Kind)
	}
	if events[0].Attrs["from"] != StatusInProgress || events[0].Attrs["to"] != StatusCompleted {
		t.Errorf("expected transition attrs, got %v", events[0].Attrs)
	}
}

func TestService_ChangeStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
	}, authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// planned → completed skips in-progress
	_, err = f.svc.ChangeStatus(context.Background(), rec.ID, StatusCompleted, authz)
	if !domainerr.Is(err, domainerr.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestService_ChangeStatus_TerminalIsFinal(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
	}, authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.ChangeStatus(context.Background(), rec.ID, StatusCancelled, authz); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err = f.svc.ChangeStatus(context.Background(), rec.ID, StatusInProgress, authz)
	if !domainerr.Is(err, domainerr.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION out of cancelled, got %v", err)
	}
}

func TestService_ChangeStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	_, err := f.svc.ChangeStatus(context.Background(), uuid.New(), "archived", authz)
	if !domainerr.Is(err, domainerr.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for unknown status, got %v", err)
	}
}

func TestService_ChangeStatus_AuditFailureRestoresPrior(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
	}, authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	broken := NewService(f.repo, patient.NewRepoMemory(), practitioner.NewRepoMemory(), failingSink{}, db.PassthroughRunner{})
	_, err = broken.ChangeStatus(context.Background(), rec.ID, StatusInProgress, authz)
	if !domainerr.Is(err, domainerr.CodePersistence) {
		t.Fatalf("expected PERSISTENCE_ERROR, got %v", err)
	}

	stored, err := f.repo.FindByID(context.Background(), "tenant-a", rec.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != StatusPlanned {
		t.Errorf("expected status restored to planned, got %s", stored.Status)
	}
}

func TestService_Get_CrossTenant(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	rec, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
	}, authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), "tenant-b", rec.ID); !domainerr.Is(err, domainerr.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for cross-tenant read, got %v", err)
	}
}

func TestService_ListByPatient(t *testing.T) {
	f := newFixture(t, "tenant-a")
	authz := testAuthority(t, "tenant-a")

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Create(context.Background(), CreateInput{
			PatientID:      f.patientID,
			PractitionerID: f.practitionerID,
		}, authz); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	views, total, err := f.svc.ListByPatient(context.Background(), "tenant-a", f.patientID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("expected 2 encounters, got total=%d len=%d", total, len(views))
	}

	_, total, err = f.svc.ListByPatient(context.Background(), "tenant-a", uuid.New(), 10, 0)
	if err != nil {
		t.Fatalf("list other patient: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0 encounters for other patient, got %d", total)
	}
}
