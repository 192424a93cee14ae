package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/platform/requestctx"
	"crewdesk/internal/transport/http/api"
)

func TestRequestIDGeneratesAndKeeps(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("expected generated request id, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("expected caller request id, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) > 128 {
		t.Fatalf("oversized request id should be replaced")
	}
}

func TestAuthAttachesUser(t *testing.T) {
	token, err := auth.GenerateToken("secret", auth.Claims{UserID: "u1", Role: staffing.RoleTechnician}, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		wantID string
	}{
		{name: "valid", header: "Bearer " + token, wantID: "u1"},
		{name: "lowercase scheme", header: "bearer " + token, wantID: "u1"},
		{name: "garbage", header: "Bearer nope"},
		{name: "missing"},
		{name: "basic", header: "Basic dXNlcjpwYXNz"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var got requestctx.User
			h := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = GetUser(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got.ID != tc.wantID {
				t.Fatalf("user id = %q, want %q", got.ID, tc.wantID)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		user *requestctx.User
		perm string
		want int
	}{
		{name: "anonymous", perm: auth.PermEventsRead, want: http.StatusUnauthorized},
		{name: "technician reads events", user: &requestctx.User{ID: "t", Role: staffing.RoleTechnician}, perm: auth.PermEventsRead, want: http.StatusNoContent},
		{name: "technician writes salary", user: &requestctx.User{ID: "t", Role: staffing.RoleTechnician}, perm: auth.PermSalaryWrite, want: http.StatusForbidden},
		{name: "admin writes salary", user: &requestctx.User{ID: "a", Role: staffing.RoleAdmin}, perm: auth.PermSalaryWrite, want: http.StatusNoContent},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := RequirePermission(tc.perm)(http.HandlerFunc(noContent))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(requestctx.WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if rec.Code >= 400 {
				var env api.Envelope
				if err := json.NewDecoder(rec.Body).Decode(&env); err != nil || env.Success || env.Error == nil {
					t.Fatalf("expected failure envelope, got %s", rec.Body.String())
				}
			}
		})
	}
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	got []recordedRequest
}

func (f *fakeRecorder) Record(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, recordedRequest{method, route, status})
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(Logger(rec))
	r.Get("/events/{eventID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/42", nil))
	if len(rec.got) != 1 {
		t.Fatalf("expected one observation, got %d", len(rec.got))
	}
	if rec.got[0] != (recordedRequest{http.MethodGet, "/events/{eventID}", http.StatusTeapot}) {
		t.Fatalf("unexpected observation %+v", rec.got[0])
	}
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(8, 32)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{name: "small json", contentType: "application/json", body: `{"a":1}`, want: http.StatusNoContent},
		{name: "large json", contentType: "application/json", body: strings.Repeat("x", 20), want: http.StatusRequestEntityTooLarge},
		{name: "upload under upload limit", contentType: "multipart/form-data; boundary=x", body: strings.Repeat("x", 20), want: http.StatusNoContent},
		{name: "upload over upload limit", contentType: "multipart/form-data; boundary=x", body: strings.Repeat("x", 40), want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(noContent)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, name := range []string{"X-Content-Type-Options", "Cache-Control", "Strict-Transport-Security"} {
		if rec.Header().Get(name) == "" {
			t.Fatalf("missing header %s", name)
		}
	}
}

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()
	hash := RequestHash([]byte("p1"))

	if _, found, err := store.Check(ctx, "u1", "salary.generate", "k1", hash); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}
	resp := StoredResponse{Status: http.StatusCreated, Body: json.RawMessage(`[{"id":"c1"}]`)}
	if err := store.Save(ctx, "u1", "salary.generate", "k1", hash, resp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := store.Check(ctx, "u1", "salary.generate", "k1", hash)
	if err != nil || !found || got.Status != http.StatusCreated || string(got.Body) != string(resp.Body) {
		t.Fatalf("unexpected replay %+v found=%v err=%v", got, found, err)
	}
	if _, _, err := store.Check(ctx, "u1", "salary.generate", "k1", RequestHash([]byte("p2"))); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, found, _ := store.Check(ctx, "u2", "salary.generate", "k1", hash); found {
		t.Fatalf("keys must be scoped per user")
	}
}
