package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinibook/clinibook/internal/platform/auth"
)

func asAdmin(ctx context.Context) context.Context {
	return auth.WithIdentity(ctx, "admin@clinic.test", auth.RoleAdmin, "")
}

func newTestHandler(t *testing.T) (*Handler, *fixture, *echo.Echo) {
	t.Helper()
	f := newFixture(t)
	return NewHandler(f.svc), f, echo.New()
}

func TestHandler_Login(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.createProfessional(t, "Dra. Rivas", "rivas@clinic.test", "")

	body := `{"email":"rivas@clinic.test","password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token        string       `json:"token"`
		Professional Professional `json:"professional"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.Professional.Email != "rivas@clinic.test" {
		t.Fatalf("professional = %+v", resp.Professional)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Fatal("response must not leak the password hash")
	}
}

func TestHandler_Login_BadPassword(t *testing.T) {
	h, f, e := newTestHandler(t)
	f.createProfessional(t, "Dra. Rivas", "rivas@clinic.test", "")

	body := `{"email":"rivas@clinic.test","password":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestHandler_CreateSpecialty(t *testing.T) {
	h, _, e := newTestHandler(t)

	body := `{"name":"Medicina General","duration_minutes":60,"price":25000}`
	req := httptest.NewRequest(http.MethodPost, "/specialties", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateSpecialty(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var spec Specialty
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec.Color != DefaultColor {
		t.Fatalf("color = %q, want default", spec.Color)
	}
}

func TestHandler_SaveSchedule(t *testing.T) {
	h, f, e := newTestHandler(t)
	pro := f.createProfessional(t, "Dra. Rivas", "rivas@clinic.test", "admin")

	body := `{"monday":{"enabled":true,"start":"09:00","end":"18:00","lunch_start":"13:00","lunch_end":"14:00"}}`
	req := httptest.NewRequest(http.MethodPut, "/professionals/"+pro.ID.String()+"/schedule", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pro.ID.String())
	c.SetRequest(req.WithContext(asAdmin(req.Context())))

	if err := h.SaveSchedule(c); err != nil {
		t.Fatalf("save schedule: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	week, err := f.svc.Schedule(req.Context(), pro.ID, nil)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	day := week.Day(time.Monday)
	if !day.Enabled || !day.HasLunch() {
		t.Fatalf("monday = %+v", day)
	}
}
