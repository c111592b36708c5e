package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

func record(fn func(c echo.Context) error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		panic(err)
	}
	return rec
}

func TestOKEnvelope(t *testing.T) {
	rec := record(func(c echo.Context) error {
		return OK(c, map[string]string{"id": "p1"})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if !env.Success || env.Error != "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestErrorUsesFixedTable(t *testing.T) {
	rec := record(func(c echo.Context) error {
		return Error(c, domainerr.New(domainerr.CodeNotFound))
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var env Envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Success {
		t.Error("error envelope must not be success")
	}
	if env.Error != "Resource not found" {
		t.Errorf("unexpected message %q", env.Error)
	}
}

func TestValidationDetailsPassThrough(t *testing.T) {
	rec := record(func(c echo.Context) error {
		return Error(c, domainerr.Validation("mrn is required"))
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var env Envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	if len(env.Details) != 1 || env.Details[0] != "mrn is required" {
		t.Errorf("details not passed through: %+v", env.Details)
	}
}

func TestUnknownErrorIsOpaque500(t *testing.T) {
	rec := record(func(c echo.Context) error {
		return Error(c, errors.New("pgx: connection refused to 10.0.0.3"))
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Error("raw error text leaked to client")
	}
}
