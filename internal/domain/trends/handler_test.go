package trends

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dir, err := identity.NewDirectory([]identity.Profile{
		{ID: "p-001", Tenant: identity.Laboratorio, FullName: "Andrea Castillo", DocumentNumber: "V-12000001"},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(catalog.Default())
	s.Append("p-001", "ldl",
		Point{Date: "2025-09-12", Value: 118},
		Point{Date: "2025-12-10", Value: 131},
		Point{Date: "2026-01-13", Value: 144},
	)
	return NewHandler(s, dir)
}

func TestHandler_GetTrend(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?doc=v-12000001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("parameterId")
	c.SetParamValues("ldl")

	if err := h.GetTrend(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s Series
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if len(s.Points) != 3 || s.ReferenceText != "Deseable <100" {
		t.Errorf("unexpected series %+v", s)
	}
}

func TestHandler_GetTrend_NotFound(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?doc=V-12000001", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("parameterId")
	c.SetParamValues("tsh")

	err := h.GetTrend(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListParameters(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?doc=V-12000001", nil)
	rec := httptest.NewRecorder()
	if err := h.ListParameters(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Parameters []string `json:"parameters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Parameters) != 1 || body.Parameters[0] != "ldl" {
		t.Errorf("unexpected parameters %v", body.Parameters)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	err := h.ListParameters(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
