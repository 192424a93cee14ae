package salary

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/pricing"
)

const slipDate = "2006-01-02"

// RenderSlip lays out one calculation as an A4 salary slip.
func RenderSlip(calc Calculation, settings pricing.Settings) ([]byte, error) {
	money := func(d decimal.Decimal) string {
		return d.StringFixed(2) + " " + settings.Currency
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Salary slip "+calc.ID, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary slip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Technician: "+tr(calc.TechnicianName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", calc.Period.Start.Format(slipDate), calc.Period.End.Format(slipDate)))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Status: "+calc.Status)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{70, 30, 20, 35, 35}
	for i, head := range []string{"Event", "Date", "Hours", "Rate", "Total"} {
		pdf.CellFormat(widths[i], 7, head, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range calc.Assignments {
		pdf.CellFormat(widths[0], 6, tr(truncate(line.EventTitle, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.EventDate.Format(slipDate), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", line.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(line.HourlyRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, money(line.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.Cell(0, 7, fmt.Sprintf("Total hours: %d", calc.TotalHours))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Gross: "+money(calc.TotalSalary))
	pdf.Ln(6)
	for _, b := range calc.Bonuses {
		pdf.Cell(0, 7, fmt.Sprintf("+ %s: %s", tr(b.Description), money(b.Amount)))
		pdf.Ln(6)
	}
	for _, d := range calc.Deductions {
		pdf.Cell(0, 7, fmt.Sprintf("- %s: %s", tr(d.Description), money(d.Amount)))
		pdf.Ln(6)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Net salary: "+money(calc.NetSalary))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
