package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"crewdesk/internal/platform/requestctx"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRateLimitKeysOnUserBeforeIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	ctx := requestctx.WithUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), requestctx.User{ID: "u1", Role: "admin"})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/salary/periods/p1/generate", nil).WithContext(ctx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/salary/periods/p1/generate", nil).WithContext(ctx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" || secondRec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(http.HandlerFunc(noContent))
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"a@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(50 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", code)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/salary/calculations", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("read request %d should bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	// login allows baseLimit/4 attempts per address
	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"x@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.41:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("login attempt %d: got %d want %d", i+1, rec.Code, want)
		}
	}
}

func TestScopeOf(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   limitScope
	}{
		{http.MethodPost, "/api/v1/auth/login", scopeLogin},
		{http.MethodPost, "/api/v1/salary/periods/p1/generate", scopeBulk},
		{http.MethodPost, "/api/v1/salary/import", scopeBulk},
		{http.MethodPost, "/api/v1/salary/backups", scopeBulk},
		{http.MethodPost, "/api/v1/calendar/import/commit", scopeBulk},
		{http.MethodGet, "/api/v1/salary/export", scopeNone},
		{http.MethodPost, "/api/v1/events", scopeNone},
		{http.MethodDelete, "/api/v1/salary/calculations/c1", scopeNone},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := scopeOf(req); got != tc.want {
			t.Fatalf("%s %s: got %d want %d", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestLoginLimitedPerEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "@example.com") {
			t.Errorf("login body not restored: %q", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	send := func(ip, email string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.1", "Ana@example.com"); code != http.StatusNoContent {
		t.Fatalf("first attempt got %d", code)
	}
	if code := send("203.0.113.2", "ana@example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("same email from another address should be throttled, got %d", code)
	}
	if code := send("203.0.113.3", "marc@example.com"); code != http.StatusNoContent {
		t.Fatalf("other email got %d", code)
	}
}

func TestLimiterPrunesExpiredWindows(t *testing.T) {
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	l := newLimiter(1, time.Minute, callerKey)
	l.now = func() time.Time { return now }

	for i := 0; i <= pruneAfter; i++ {
		l.take(strconv.Itoa(i))
	}
	now = now.Add(2 * time.Minute)
	if ok, remaining, _ := l.take("fresh"); !ok || remaining != 0 {
		t.Fatalf("fresh key: ok=%v remaining=%d", ok, remaining)
	}
	if len(l.windows) != 1 {
		t.Fatalf("expected expired windows to be pruned, %d left", len(l.windows))
	}
}
