package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{level: "debug", want: slog.LevelDebug},
		{level: "WARN", want: slog.LevelWarn},
		{level: "", want: slog.LevelInfo},
		{level: "chatty", want: slog.LevelInfo},
	}
	for _, tc := range tests {
		logger := NewLogger(tc.level)
		if !logger.Enabled(context.Background(), tc.want) {
			t.Fatalf("level %q: %v should be enabled", tc.level, tc.want)
		}
		if tc.want > slog.LevelDebug && logger.Enabled(context.Background(), tc.want-4) {
			t.Fatalf("level %q: lower levels should be disabled", tc.level)
		}
	}
}

func TestSPAHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := spaHandler{staticPath: dir, indexPath: "index.html"}

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{name: "asset", method: http.MethodGet, path: "/app.js", status: http.StatusOK, body: "console.log"},
		{name: "client route", method: http.MethodGet, path: "/planning/2024", status: http.StatusOK, body: "app"},
		{name: "post", method: http.MethodPost, path: "/", status: http.StatusNotFound},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.body != "" && !strings.Contains(rec.Body.String(), tc.body) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tc.body)
			}
		})
	}
}
