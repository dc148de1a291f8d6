package labresults

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
)

func TestHandler_ListReports(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?doc=V-12000001&limit=2", nil)
	rec := httptest.NewRecorder()
	if err := h.ListReports(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data []struct {
			OrderID  string `json:"order_id"`
			Status   string `json:"status"`
			Findings int    `json:"findings"`
		} `json:"data"`
		Total   int  `json:"total"`
		HasMore bool `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 3 || len(body.Data) != 2 || !body.HasMore {
		t.Fatalf("unexpected page: total=%d len=%d more=%v", body.Total, len(body.Data), body.HasMore)
	}
	if body.Data[1].OrderID != "ord-001" || body.Data[1].Status != "entregado" || body.Data[1].Findings != 1 {
		t.Errorf("unexpected summary %+v", body.Data[1])
	}
}

func TestHandler_ListReports_MissingDoc(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := h.ListReports(e.NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetReport(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?doc=V-15000002", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("orderId")
	c.SetParamValues("ord-003")
	if err := h.GetReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		OrderID  string       `json:"order_id"`
		Status   string       `json:"status"`
		Findings []ResultItem `json:"findings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.OrderID != "ord-003" || body.Status != "en_proceso" || len(body.Findings) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandler_GetReport_Foreign(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?doc=V-12000001", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("orderId")
	c.SetParamValues("ord-003")
	err := h.GetReport(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_CreateReport(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	body := `{"order_id":"ord-010","owner_id":"p-002","validated_by":"Dr. Samuel Vera",
		"exams":[{"panel_id":"inflamacion","status":"entregado","items":[{"parameter_id":"crp","value_numeric":6.4,"flag":"normal"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), "staff-01", auth.RoleStaff))
	rec := httptest.NewRecorder()
	if err := h.CreateReport(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var out struct {
		Findings []ResultItem `json:"findings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Findings) != 1 || out.Findings[0].Flag != "high" || out.Findings[0].ReferenceText != "<= 5 mg/L" {
		t.Errorf("expected crp flagged from catalog, got %+v", out.Findings)
	}
}
