package salary

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

func TestRenderSlip(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	calc := Calculation{Calculation: pricing.Calculation{
		ID:             "c1",
		TechnicianName: "Hélène Dupré",
		Period:         pricing.Period{Start: start, End: start.AddDate(0, 1, -1)},
		Assignments: []pricing.Line{{
			EventTitle: "Festival d'été - scène principale avec un titre très long",
			EventDate:  start.AddDate(0, 0, 11),
			Hours:      10,
			HourlyRate: decimal.NewFromInt(22),
			Total:      decimal.NewFromInt(220),
		}},
		TotalHours:  10,
		TotalSalary: decimal.NewFromInt(220),
		Deductions:  []pricing.Deduction{{Description: "Income tax", Amount: decimal.NewFromInt(44)}},
		NetSalary:   decimal.NewFromInt(176),
		Status:      pricing.StatusApproved,
	}}

	out, err := RenderSlip(calc, pricing.DefaultSettings())
	if err != nil {
		t.Fatalf("RenderSlip returned error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF document")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Fatalf("truncate = %q", got)
	}
}
