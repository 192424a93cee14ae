package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record("GET", "/api/v1/events/{id}", 200, 15*time.Millisecond)
	c.Record("GET", "/api/v1/events/{id}", 200, 5*time.Millisecond)
	c.Record("POST", "", 404, time.Millisecond)
	c.CalculationsGenerated(3)
	c.Quote("local")
	c.Import("salary", "ok")

	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/v1/events/{id}", "200")); got != 2 {
		t.Fatalf("requests = %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("POST", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched requests = %v", got)
	}
	if got := testutil.ToFloat64(c.calculations); got != 3 {
		t.Fatalf("calculations = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Quote("remote")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `crewdesk_mission_quotes_total{source="remote"} 1`) {
		t.Fatalf("metrics output missing quote counter:\n%s", body)
	}
}
