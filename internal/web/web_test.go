package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"labcal/internal/booking"
	"labcal/internal/config"
	"labcal/internal/registry"
	"labcal/internal/snapshot"
	"labcal/internal/store"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mem := store.NewMemory()
	reg := registry.New(mem, cfg.Professors, cfg.Subjects)
	repo := booking.NewRepository(mem, time.UTC)
	s := NewServer(cfg, booking.NewService(repo, reg, fixedClock{}), reg)
	s.now = fixedClock{}.Now
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

const validBooking = `{
	"professor": "Olivares",
	"subject": "Redes",
	"student": {"name": "Juan Pérez", "controlNumber": "20400798"},
	"teamMembersText": "20400799",
	"day": "2024-03-04",
	"startTime": "09:00",
	"endTime": "11:00"
}`

func createOne(t *testing.T, h http.Handler) snapshot.Record {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/bookings", validBooking)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	return decode[snapshot.Record](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body)
	}
}

func TestCreateBooking(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	got := createOne(t, h)

	if got.ID == "" {
		t.Error("missing id")
	}
	if got.Day != "2024-03-04T00:00:00.000Z" {
		t.Errorf("day = %q", got.Day)
	}
	if got.Duration != 2 || got.TeamSize != 2 {
		t.Errorf("duration/teamSize = %v/%d", got.Duration, got.TeamSize)
	}
	if len(got.TeamMembers) != 1 || got.TeamMembers[0].ControlNumber != "20400799" {
		t.Errorf("teamMembers = %+v", got.TeamMembers)
	}
}

func TestCreateBookingStatusMapping(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	createOne(t, h)

	cases := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"conflict", strings.Replace(validBooking, "20400798", "20400111", 1), http.StatusConflict, "startTime"},
		{"bad control number", strings.Replace(validBooking, "20400798", "123", 1), http.StatusUnprocessableEntity, "student.controlNumber"},
		{"bad day", strings.Replace(validBooking, "2024-03-04", "mañana", 1), http.StatusUnprocessableEntity, "day"},
		{"unknown subject", strings.Replace(validBooking, `"Redes"`, `"Química"`, 1), http.StatusUnprocessableEntity, "subject"},
		{"bad json", `{"professor":`, http.StatusBadRequest, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/bookings", c.body)
			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, c.status, rec.Body)
			}
			if got := decode[errResp](t, rec); got.Field != c.field {
				t.Errorf("field = %q, want %q", got.Field, c.field)
			}
		})
	}
}

func TestBookingLifecycle(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	b := createOne(t, h)
	path := "/api/bookings/" + b.ID

	rec := do(t, h, http.MethodPut, path+"/materials",
		`{"materials":[{"name":"N900","quantity":2,"category":"Routers"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("materials status = %d: %s", rec.Code, rec.Body)
	}
	withMats := decode[snapshot.Record](t, rec)
	if withMats.Materials == nil || len(*withMats.Materials) != 1 || (*withMats.Materials)[0].ID == "" {
		t.Fatalf("materials = %+v", withMats.Materials)
	}

	rec = do(t, h, http.MethodPut, path+"/materials", `{"materials":[{"name":"X","quantity":1,"category":"Switches"}]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad category status = %d", rec.Code)
	}

	// Update without a materials key keeps the list.
	upd := strings.Replace(validBooking, `"11:00"`, `"12:00"`, 1)
	rec = do(t, h, http.MethodPut, path, upd)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	updated := decode[snapshot.Record](t, rec)
	if updated.EndTime != "12:00" || updated.Duration != 3 || updated.Materials == nil || len(*updated.Materials) != 1 {
		t.Errorf("updated = %+v", updated)
	}

	rec = do(t, h, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	if rec = do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	for _, m := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
		if rec = do(t, h, m, path, validBooking); rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete = %d", m, rec.Code)
		}
	}
}

func TestListBookingsByDate(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	createOne(t, h)

	rec := do(t, h, http.MethodGet, "/api/bookings?date=2024-03-04", "")
	if got := decode[[]snapshot.Record](t, rec); len(got) != 1 {
		t.Errorf("day list = %d", len(got))
	}
	rec = do(t, h, http.MethodGet, "/api/bookings?date=2024-03-05", "")
	if got := decode[[]snapshot.Record](t, rec); len(got) != 0 {
		t.Errorf("other day list = %d", len(got))
	}
	if rec = do(t, h, http.MethodGet, "/api/bookings?date=nope", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/bookings", "")
	if got := decode[[]snapshot.Record](t, rec); len(got) != 1 {
		t.Errorf("full list = %d", len(got))
	}
}

func TestCreateSeries(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	body := `{"booking":` + validBooking + `,"rule":"FREQ=WEEKLY;COUNT=3"}`
	rec := do(t, h, http.MethodPost, "/api/bookings/series", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("series status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[[]snapshot.Record](t, rec); len(got) != 3 || got[2].Day != "2024-03-18T00:00:00.000Z" {
		t.Errorf("series = %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/bookings/series", `{"booking":`+validBooking+`,"rule":"FREQ=DAILY"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unbounded rule status = %d", rec.Code)
	}
}

func TestRegistryEndpoints(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/professors", `{"name":" Ramírez "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d", rec.Code)
	}
	if got := decode[[]string](t, rec); got[len(got)-1] != "Ramírez" {
		t.Errorf("professors = %v", got)
	}
	if rec = do(t, h, http.MethodPost, "/api/professors", `{"name":"Ramírez"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rec.Code)
	}

	if rec = do(t, h, http.MethodDelete, "/api/subjects/Redes", ""); rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodDelete, "/api/subjects/Redes", ""); rec.Code != http.StatusConflict {
		t.Errorf("second remove status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodPost, "/api/bookings", validBooking); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("booking with removed subject status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/config/reset", "")
	got := decode[map[string][]string](t, rec)
	if len(got["subjects"]) != 3 || len(got["professors"]) != 3 {
		t.Errorf("reset = %v", got)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	createOne(t, h)

	rec := do(t, h, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "bitacora-laboratorio-2024-03-01.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	exported := rec.Body.String()

	other := newTestServer(t, nil).Handler()
	rec = do(t, other, http.MethodPost, "/api/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[map[string]int](t, rec); got["imported"] != 1 {
		t.Errorf("imported = %v", got)
	}

	if rec = do(t, other, http.MethodPost, "/api/import", `{"bookings":"nope"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad import status = %d", rec.Code)
	}
	rec = do(t, other, http.MethodGet, "/api/bookings", "")
	if got := decode[[]snapshot.Record](t, rec); len(got) != 1 {
		t.Errorf("failed import changed data: %d bookings", len(got))
	}
}

func TestCalendarFeed(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	createOne(t, h)
	rec := do(t, h, http.MethodGet, "/api/calendar.ics", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(rec.Body.String(), "BEGIN:VEVENT"); n != 1 {
		t.Errorf("VEVENT count = %d", n)
	}
}

func TestSlotsAndCatalog(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	slots := decode[slotsResponse](t, do(t, h, http.MethodGet, "/api/slots", ""))
	if len(slots.Slots) != 29 || slots.Slots[0] != "07:00" || slots.Slots[28] != "21:00" {
		t.Errorf("slots = %+v", slots)
	}

	catalog := decode[[]catalogEntry](t, do(t, h, http.MethodGet, "/api/materials/catalog", ""))
	if len(catalog) != 5 || catalog[0].Category != "Cables" {
		t.Errorf("catalog = %+v", catalog)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := newTestServer(t, cfg).Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health behind auth = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/slots", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with credentials = %d", rec.Code)
	}
}
