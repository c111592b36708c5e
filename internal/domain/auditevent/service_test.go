package auditevent

import (
	"context"
	"testing"

	"github.com/clinicore/clinicore/internal/platform/audit"
)

func TestService_List(t *testing.T) {
	sink := audit.NewMemorySink()
	ctx := context.Background()

	for _, tenant := range []string{"tenant-a", "tenant-a", "tenant-b"} {
		ev := audit.NewEvent(audit.PatientCreated, tenant, "clin-1", "corr-1", "patient", "p1", nil)
		if err := sink.Emit(ctx, ev); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	svc := NewService(sink)
	views, total, err := svc.List(ctx, "tenant-a", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("expected 2 events for tenant-a, got total=%d len=%d", total, len(views))
	}
	if views[0].Kind != string(audit.PatientCreated) {
		t.Errorf("expected PATIENT_CREATED, got %s", views[0].Kind)
	}
}

func TestService_List_Pagination(t *testing.T) {
	sink := audit.NewMemorySink()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := audit.NewEvent(audit.PatientUpdated, "tenant-a", "clin-1", "corr-1", "patient", "p1", nil)
		if err := sink.Emit(ctx, ev); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	svc := NewService(sink)
	views, total, err := svc.List(ctx, "tenant-a", 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(views) != 2 {
		t.Errorf("expected page of 2, got %d", len(views))
	}
}
