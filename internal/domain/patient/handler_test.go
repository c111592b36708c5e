package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/audit"
	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/db"
)

func newTestServer() (*echo.Echo, *Service) {
	svc := NewService(NewRepoMemory(), audit.NewMemorySink(), db.PassthroughRunner{})
	e := echo.New()
	api := e.Group("/api/v1", authority.DevIdentity(), authority.RequireTenant())
	NewHandler(svc).RegisterRoutes(api)
	return e, svc
}

func writeHeaders(req *http.Request, tenantID string) {
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(authority.HeaderTenantID, tenantID)
	req.Header.Set(authority.HeaderClinicianID, "clin-1")
	req.Header.Set(authority.HeaderAuthorizedAt, time.Now().UTC().Format(time.RFC3339))
	req.Header.Set(authority.HeaderCorrelationID, "corr-1")
}

func TestHandler_Create(t *testing.T) {
	e, _ := newTestServer()

	body := `{"mrn":"MRN-001","given_name":"Ada","family_name":"Lovelace","date_of_birth":"1990-03-14"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	writeHeaders(req, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
	if resp.Data.DisplayName != "Ada Lovelace" {
		t.Errorf("expected display name 'Ada Lovelace', got %q", resp.Data.DisplayName)
	}
}

func TestHandler_Create_MissingTenant(t *testing.T) {
	e, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Tenant context required") {
		t.Errorf("expected tenant-required message, got %s", rec.Body.String())
	}
}

func TestHandler_Create_MissingAuthority(t *testing.T) {
	e, _ := newTestServer()

	body := `{"mrn":"MRN-001","given_name":"Ada","family_name":"Lovelace","date_of_birth":"1990-03-14"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(authority.HeaderTenantID, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Authority context required") {
		t.Errorf("expected authority-required message, got %s", rec.Body.String())
	}
}

func TestHandler_Create_Validation(t *testing.T) {
	e, _ := newTestServer()

	body := `{"mrn":"","given_name":"","family_name":"","date_of_birth":"bad"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	writeHeaders(req, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "Validation failed" {
		t.Errorf("expected fixed validation message, got %q", resp.Error)
	}
	if len(resp.Details) == 0 {
		t.Error("expected validation details")
	}
}

func TestHandler_Get_CrossTenant(t *testing.T) {
	e, svc := newTestServer()

	authz, _ := authority.New("clin-1", "tenant-a", "corr-1")
	created, err := svc.Create(context.Background(), validInput(), &authz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+created.ID.String(), nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-b")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-tenant read, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Resource not found") {
		t.Errorf("expected generic not-found message, got %s", rec.Body.String())
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	e, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestHandler_List(t *testing.T) {
	e, svc := newTestServer()

	authz, _ := authority.New("clin-1", "tenant-a", "corr-1")
	if _, err := svc.Create(context.Background(), validInput(), &authz); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set(authority.HeaderTenantID, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Total != 1 {
		t.Errorf("expected total 1, got %d", resp.Data.Total)
	}
}
