package staffinghandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/platform/requestctx"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newRouter(t *testing.T) (http.Handler, *staffing.MemoryStore) {
	t.Helper()
	store := staffing.NewMemoryStore()
	store.PutUser(staffing.Technician{ID: "admin", FirstName: "Ada", LastName: "Admin", Role: staffing.RoleAdmin, IsActive: true})
	store.PutUser(staffing.Technician{ID: "t1", FirstName: "Ana", LastName: "Martin", Role: staffing.RoleTechnician, IsActive: true})
	store.PutUser(staffing.Technician{ID: "t2", FirstName: "Marc", LastName: "Petit", Role: staffing.RoleTechnician, IsActive: true})

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := req.Header.Get("X-Test-User"); id != "" {
				role := staffing.RoleTechnician
				if id == "admin" {
					role = staffing.RoleAdmin
				}
				req = req.WithContext(requestctx.WithUser(req.Context(), requestctx.User{ID: id, Role: role}))
			}
			next.ServeHTTP(w, req)
		})
	})
	h := NewHandler(staffing.NewService(store), paris)
	h.RegisterRoutes(r)
	r.Route("/events", h.RegisterEventRoutes)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, user, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec.Code, env
}

func TestEventLifecycle(t *testing.T) {
	h, _ := newRouter(t)

	code, env := do(t, h, http.MethodPost, "/event-types", "admin", `{"name":"Concert","color":"#f00"}`)
	if code != http.StatusCreated {
		t.Fatalf("create event type: %d", code)
	}
	var et staffing.EventType
	_ = json.Unmarshal(env.Data, &et)

	body := `{"title":"Jazz night","startDate":"2030-06-21T18:00:00+02:00","endDate":"2030-06-21T23:30:00+02:00","eventTypeId":"` + et.ID + `","requiredTechnicians":[{"skill":"sound","count":2}],"targetedTechnicians":["t1"]}`
	code, env = do(t, h, http.MethodPost, "/events", "admin", body)
	if code != http.StatusCreated {
		t.Fatalf("create event: %d %+v", code, env.Error)
	}
	var ev staffing.Event
	_ = json.Unmarshal(env.Data, &ev)
	if ev.EventTypeName != "Concert" || len(ev.Requirements) != 1 || len(ev.TargetedTechnicians) != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}

	code, env = do(t, h, http.MethodGet, "/events?from=2030-06-21&to=2030-06-21", "t1", "")
	var listed []staffing.Event
	_ = json.Unmarshal(env.Data, &listed)
	if code != http.StatusOK || len(listed) != 1 {
		t.Fatalf("list events: %d, %d events", code, len(listed))
	}

	if code, _ := do(t, h, http.MethodPost, "/events", "t1", body); code != http.StatusForbidden {
		t.Fatalf("technicians must not create events, got %d", code)
	}

	code, env = do(t, h, http.MethodPost, "/events/"+ev.ID+"/assignments", "admin", `{"technicianId":"t1"}`)
	if code != http.StatusCreated {
		t.Fatalf("assign: %d", code)
	}
	var a staffing.Assignment
	_ = json.Unmarshal(env.Data, &a)
	if code, env := do(t, h, http.MethodPost, "/events/"+ev.ID+"/assignments", "admin", `{"technicianId":"t1"}`); code != http.StatusConflict || env.Error.Code != "already_assigned" {
		t.Fatalf("duplicate assignment: %d", code)
	}

	if code, _ := do(t, h, http.MethodPost, "/assignments/"+a.ID+"/respond", "t2", `{"status":"accepted"}`); code != http.StatusForbidden {
		t.Fatalf("other technician responded: %d", code)
	}
	if code, _ := do(t, h, http.MethodPost, "/assignments/"+a.ID+"/respond", "t1", `{"status":"pending"}`); code != http.StatusBadRequest {
		t.Fatalf("pending response accepted: %d", code)
	}
	code, env = do(t, h, http.MethodPost, "/assignments/"+a.ID+"/respond", "t1", `{"status":"Accepted"}`)
	_ = json.Unmarshal(env.Data, &a)
	if code != http.StatusOK || a.Status != staffing.AssignmentAccepted || a.RespondedAt == nil {
		t.Fatalf("respond: %d %+v", code, a)
	}

	code, env = do(t, h, http.MethodGet, "/assignments?technicianId=t1", "t2", "")
	var views []staffing.AssignmentView
	_ = json.Unmarshal(env.Data, &views)
	if code != http.StatusOK || len(views) != 0 {
		t.Fatalf("technician saw someone else's assignments: %d", len(views))
	}

	if code, _ := do(t, h, http.MethodDelete, "/events/"+ev.ID, "admin", ""); code != http.StatusOK {
		t.Fatalf("delete event: %d", code)
	}
	if code, _ := do(t, h, http.MethodGet, "/events/"+ev.ID, "admin", ""); code != http.StatusNotFound {
		t.Fatalf("deleted event still readable: %d", code)
	}
}

func TestCreateEventValidation(t *testing.T) {
	h, _ := newRouter(t)
	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"startDate":"2030-01-01T10:00:00Z","endDate":"2030-01-01T12:00:00Z"}`},
		{name: "end before start", body: `{"title":"x","startDate":"2030-01-01T10:00:00Z","endDate":"2030-01-01T09:00:00Z"}`},
		{name: "bad date", body: `{"title":"x","startDate":"tomorrow","endDate":"2030-01-01T09:00:00Z"}`},
		{name: "negative requirement", body: `{"title":"x","startDate":"2030-01-01T10:00:00Z","endDate":"2030-01-01T12:00:00Z","requiredTechnicians":[{"skill":"light","count":-1}]}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			code, env := do(t, h, http.MethodPost, "/events", "admin", tc.body)
			if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "validation_error" {
				t.Fatalf("expected validation_error, got %d %+v", code, env.Error)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	h, _ := newRouter(t)

	if code, _ := do(t, h, http.MethodGet, "/me/profile", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous profile read: %d", code)
	}
	if code, _ := do(t, h, http.MethodPut, "/me/profile", "t1", `{"firstName":"Ana","lastName":"M","skillLevel":"guru"}`); code != http.StatusBadRequest {
		t.Fatalf("unknown skill level accepted: %d", code)
	}
	code, env := do(t, h, http.MethodPut, "/me/profile", "t1", `{"firstName":"Ana","lastName":"Moreau","skillLevel":"Expert","skills":["sound","light"]}`)
	if code != http.StatusOK {
		t.Fatalf("update profile: %d", code)
	}
	var tech staffing.Technician
	_ = json.Unmarshal(env.Data, &tech)
	if tech.LastName != "Moreau" || tech.SkillLevel != staffing.SkillLevelExpert || len(tech.Skills) != 2 {
		t.Fatalf("unexpected profile %+v", tech)
	}

	code, env = do(t, h, http.MethodGet, "/technicians", "admin", "")
	var techs []staffing.Technician
	_ = json.Unmarshal(env.Data, &techs)
	if code != http.StatusOK || len(techs) != 2 {
		t.Fatalf("list technicians: %d, %d rows", code, len(techs))
	}
	if code, _ := do(t, h, http.MethodGet, "/technicians", "t1", ""); code != http.StatusForbidden {
		t.Fatalf("technicians must not list staff: %d", code)
	}
}
