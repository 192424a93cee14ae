package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDateIn(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	tests := []struct {
		name     string
		raw      string
		endOfDay bool
		want     time.Time
	}{
		{name: "start of day", raw: "2024-03-31", want: time.Date(2024, time.March, 31, 0, 0, 0, 0, paris)},
		{name: "end of day", raw: "2024-03-31", endOfDay: true, want: time.Date(2024, time.March, 31, 23, 59, 59, 999999999, paris)},
		{name: "timestamp kept", raw: "2024-03-31T10:00:00Z", endOfDay: true, want: time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDateIn(tc.raw, paris, tc.endOfDay)
			if err != nil {
				t.Fatalf("ParseDateIn: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
	if _, err := ParseDateIn("31/03/2024", paris, false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	v.Required("title", " ", "is required")
	v.Enum("status", "cancelled", []string{"draft", "approved", "paid"}, "must be draft, approved or paid")
	start, _ := v.DateIn("startDate", "2024-03-10", time.UTC, false)
	end, _ := v.DateIn("endDate", "2024-03-01", time.UTC, true)
	v.DateOrder("startDate", start, "endDate", end)

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected rejection")
	}
	var body struct {
		Error struct {
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusBadRequest || len(body.Error.Details.Fields) != 4 {
		t.Fatalf("unexpected issues %+v", body.Error.Details.Fields)
	}
	if body.Error.Details.Fields[0].Field != "endDate" {
		t.Fatalf("issues not sorted: %+v", body.Error.Details.Fields)
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePagination(r, 50, 200)
	if p.Limit != 200 || p.Offset != 20 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}
