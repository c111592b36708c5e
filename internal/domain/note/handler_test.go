package note

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/authority"
)

func newTestServer(t *testing.T) (*echo.Echo, *fixture) {
	t.Helper()
	f := newFixture(t, "tenant-a")
	e := echo.New()
	api := e.Group("/api/v1", authority.DevIdentity(), authority.RequireTenant())
	NewHandler(f.svc).RegisterRoutes(api)
	return e, f
}

func writeHeaders(req *http.Request, tenantID string) {
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(authority.HeaderTenantID, tenantID)
	req.Header.Set(authority.HeaderClinicianID, "clin-1")
	req.Header.Set(authority.HeaderAuthorizedAt, time.Now().UTC().Format(time.RFC3339))
	req.Header.Set(authority.HeaderCorrelationID, "corr-1")
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// Walks the whole note lifecycle across the transport boundary: draft,
// update, finalize, then verifies tenant isolation and the terminal guard.
func TestHandler_NoteLifecycle(t *testing.T) {
	e, f := newTestServer(t)

	// Start a draft.
	body := `{"encounter_id":"` + f.encounterID.String() + `","content":"first pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body))
	writeHeaders(req, "tenant-a")
	rec := do(e, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start draft: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	noteID := created.Data.ID

	// Update the draft.
	req = httptest.NewRequest(http.MethodPut, "/api/v1/notes/"+noteID.String(),
		strings.NewReader(`{"content":"second pass"}`))
	writeHeaders(req, "tenant-a")
	rec = do(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update draft: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Finalize.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/notes/"+noteID.String()+"/finalize", nil)
	writeHeaders(req, "tenant-a")
	rec = do(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Another tenant cannot see the note at all.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+noteID.String(), nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-b")
	rec = do(e, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant read: expected 404, got %d", rec.Code)
	}

	// A second finalize conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/notes/"+noteID.String()+"/finalize", nil)
	writeHeaders(req, "tenant-a")
	rec = do(e, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second finalize: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Resource conflict") {
		t.Errorf("expected generic conflict message, got %s", rec.Body.String())
	}

	// Further edits are refused too.
	req = httptest.NewRequest(http.MethodPut, "/api/v1/notes/"+noteID.String(),
		strings.NewReader(`{"content":"too late"}`))
	writeHeaders(req, "tenant-a")
	rec = do(e, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("edit after finalize: expected 409, got %d", rec.Code)
	}

	// History is still intact for the owning tenant.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+noteID.String()+"/versions", nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-a")
	rec = do(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var history struct {
		Data []VersionView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Data) != 2 {
		t.Errorf("expected 2 versions in history, got %d", len(history.Data))
	}
}

func TestHandler_StartDraft_MissingTenant(t *testing.T) {
	e, f := newTestServer(t)

	body := `{"encounter_id":"` + f.encounterID.String() + `","content":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(e, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// The request must not have reached the service.
	if _, total, _ := f.sink.ListByTenant(req.Context(), "tenant-a", 10, 0); total != 0 {
		t.Errorf("expected no audit events, got %d", total)
	}
}

func TestHandler_StartDraft_MalformedAuthorizedAt(t *testing.T) {
	e, f := newTestServer(t)

	body := `{"encounter_id":"` + f.encounterID.String() + `","content":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(body))
	writeHeaders(req, "tenant-a")
	req.Header.Set(authority.HeaderAuthorizedAt, "yesterday-ish")
	rec := do(e, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for malformed timestamp, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Get_UnknownNote(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes/"+uuid.NewString(), nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-a")
	rec := do(e, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
