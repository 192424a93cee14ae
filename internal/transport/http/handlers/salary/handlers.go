package salaryhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/pricing"
	"crewdesk/internal/domain/salary"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/transport/http/api"
	"crewdesk/internal/transport/http/middleware"
	"crewdesk/internal/transport/http/shared"
)

const (
	generateEndpoint  = "salary.generate"
	maxSnapshotBytes  = 32 << 20
	defaultPageLimit  = 50
	maximumPageLimit  = 200
	exportContentType = "application/json"
)

// Recorder receives salary domain counters.
type Recorder interface {
	CalculationsGenerated(n int)
	Import(kind, outcome string)
}

// Sealer protects salary slips written to disk.
type Sealer interface {
	Seal(name string, plain []byte) ([]byte, error)
	Configured() bool
}

type Handler struct {
	Service     *salary.Service
	Roster      Roster
	Idempotency middleware.IdempotencyStore
	Metrics     Recorder
	Sealer      Sealer
	SlipDir     string
	// RunBackup writes a snapshot now; nil disables the endpoint.
	RunBackup func(ctx context.Context) (any, error)
}

func NewHandler(service *salary.Service, roster Roster, idem middleware.IdempotencyStore, metrics Recorder, sealer Sealer, slipDir string) *Handler {
	return &Handler{Service: service, Roster: roster, Idempotency: idem, Metrics: metrics, Sealer: sealer, SlipDir: slipDir}
}

type settingsPayload struct {
	DefaultHourlyRate  decimal.Decimal `json:"defaultHourlyRate"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
	WeekendMultiplier  decimal.Decimal `json:"weekendMultiplier"`
	HolidayMultiplier  decimal.Decimal `json:"holidayMultiplier"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	InsuranceRate      decimal.Decimal `json:"insuranceRate"`
	Currency           string          `json:"currency"`
}

type periodPayload struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsActive  bool   `json:"isActive"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type calculationPage struct {
	Items  []salary.Calculation `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/me/salaries", h.handleMySalaries)

	r.Route("/salary", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Put("/settings", h.handleUpdateSettings)

		r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/periods", h.handleListPeriods)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Post("/periods", h.handleCreatePeriod)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Post("/periods/{periodID}/activate", h.handleActivatePeriod)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Post("/periods/{periodID}/generate", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Get("/periods/{periodID}/summary", h.handleSummary)

		r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/calculations", h.handleListCalculations)
		r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/calculations/{calculationID}", h.handleGetCalculation)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Patch("/calculations/{calculationID}/status", h.handleUpdateStatus)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite)).Delete("/calculations/{calculationID}", h.handleDeleteCalculation)
		r.With(middleware.RequirePermission(auth.PermSalaryRead)).Get("/calculations/{calculationID}/slip", h.handleSlip)

		r.With(middleware.RequirePermission(auth.PermSalaryTransfer)).Get("/export", h.handleExport)
		r.With(middleware.RequirePermission(auth.PermSalaryTransfer)).Post("/import", h.handleImport)
		r.With(middleware.RequirePermission(auth.PermSalaryTransfer)).Post("/backups", h.handleBackup)
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err, "load salary settings")
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

// handleUpdateSettings replaces the settings wholesale; the last writer wins.
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	for field, value := range map[string]decimal.Decimal{
		"defaultHourlyRate":  payload.DefaultHourlyRate,
		"overtimeMultiplier": payload.OvertimeMultiplier,
		"weekendMultiplier":  payload.WeekendMultiplier,
		"holidayMultiplier":  payload.HolidayMultiplier,
		"taxRate":            payload.TaxRate,
		"insuranceRate":      payload.InsuranceRate,
	} {
		if value.IsNegative() {
			v.Add(field, "must not be negative")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	settings, err := h.Service.UpdateSettings(r.Context(), pricing.Settings{
		DefaultHourlyRate:  payload.DefaultHourlyRate,
		OvertimeMultiplier: payload.OvertimeMultiplier,
		WeekendMultiplier:  payload.WeekendMultiplier,
		HolidayMultiplier:  payload.HolidayMultiplier,
		TaxRate:            payload.TaxRate,
		InsuranceRate:      payload.InsuranceRate,
		Currency:           strings.ToUpper(strings.TrimSpace(payload.Currency)),
	})
	if err != nil {
		h.fail(w, r, err, "update salary settings")
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		h.fail(w, r, err, "list salary periods")
		return
	}
	if periods == nil {
		periods = []salary.Period{}
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	loc := h.Service.Location()
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("startDate", payload.StartDate, "is required")
	v.Required("endDate", payload.EndDate, "is required")
	var start, end time.Time
	if payload.StartDate != "" {
		start, _ = v.DateIn("startDate", payload.StartDate, loc, false)
	}
	if payload.EndDate != "" {
		end, _ = v.DateIn("endDate", payload.EndDate, loc, true)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	period, err := h.Service.CreatePeriod(r.Context(), salary.PeriodInput{
		Name:      strings.TrimSpace(payload.Name),
		StartDate: start,
		EndDate:   end,
		IsActive:  payload.IsActive,
	})
	if err != nil {
		h.fail(w, r, err, "create salary period")
		return
	}
	api.Created(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivatePeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.ActivatePeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, r, err, "activate salary period")
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

// handleGenerate runs salary generation for a period. Every distinct call
// appends a new batch; a retried request carrying the same Idempotency-Key
// replays the first response instead.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	periodID := chi.URLParam(r, "periodID")

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash([]byte(periodID))
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.ID, generateEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err, "requestId", requestID)
		}
		if found {
			api.WriteJSON(w, stored.Status, api.Envelope{Success: true, Data: stored.Body, RequestID: requestID})
			return
		}
	}

	period, err := h.Service.GetPeriod(r.Context(), periodID)
	if err != nil {
		h.fail(w, r, err, "generate salaries")
		return
	}
	in, err := loadGenerationInput(r.Context(), h.Roster, period)
	if err != nil {
		h.fail(w, r, err, "load staffing data")
		return
	}
	batch, err := h.Service.GenerateForPeriod(r.Context(), periodID, in.assignments, in.events, in.technicians)
	if err != nil {
		h.fail(w, r, err, "generate salaries")
		return
	}
	if h.Metrics != nil {
		h.Metrics.CalculationsGenerated(len(batch))
	}

	if idempotencyKey != "" && h.Idempotency != nil {
		payload, err := json.Marshal(batch)
		if err != nil {
			slog.Warn("generate response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.ID, generateEndpoint, idempotencyKey, requestHash,
			middleware.StoredResponse{Status: http.StatusCreated, Body: payload}); err != nil {
			slog.Warn("idempotency save failed", "err", err, "requestId", requestID)
		}
	}
	api.Created(w, batch, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.PeriodSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, r, err, "summarise salary period")
		return
	}
	api.Success(w, sum, middleware.GetRequestID(r.Context()))
}

// handleListCalculations filters by period, technician and status.
// Technicians are pinned to their own calculations.
func (h *Handler) handleListCalculations(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()
	filter := salary.Filter{PeriodID: q.Get("periodId"), TechnicianID: q.Get("technicianId"), Status: q.Get("status")}
	if user.Role != staffing.RoleAdmin {
		filter.TechnicianID = user.ID
	}
	h.writeCalculations(w, r, filter)
}

func (h *Handler) handleMySalaries(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.writeCalculations(w, r, salary.Filter{TechnicianID: user.ID, PeriodID: r.URL.Query().Get("periodId")})
}

func (h *Handler) writeCalculations(w http.ResponseWriter, r *http.Request, filter salary.Filter) {
	if filter.Status != "" && !salary.ValidStatus(filter.Status) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "must be draft, approved or paid"}})
		return
	}
	calcs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "list salary calculations")
		return
	}
	page := shared.ParsePagination(r, defaultPageLimit, maximumPageLimit)
	api.Success(w, calculationPage{
		Items:  shared.Page(calcs, page),
		Total:  len(calcs),
		Limit:  page.Limit,
		Offset: page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.ownCalculation(w, r)
	if !ok {
		return
	}
	api.Success(w, calc, middleware.GetRequestID(r.Context()))
}

// ownCalculation loads the calculation in the URL. A technician asking for
// someone else's row gets the same 404 as for a missing one.
func (h *Handler) ownCalculation(w http.ResponseWriter, r *http.Request) (salary.Calculation, bool) {
	user, _ := middleware.GetUser(r.Context())
	calc, err := h.Service.Get(r.Context(), chi.URLParam(r, "calculationID"))
	if err == nil && user.Role != staffing.RoleAdmin && calc.TechnicianID != user.ID {
		err = salary.ErrCalculationNotFound
	}
	if err != nil {
		h.fail(w, r, err, "load salary calculation")
		return salary.Calculation{}, false
	}
	return calc, true
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	calc, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "calculationID"), strings.ToLower(strings.TrimSpace(payload.Status)))
	if err != nil {
		h.fail(w, r, err, "update salary status")
		return
	}
	api.Success(w, calc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCalculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "calculationID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "delete salary calculation")
		return
	}
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSlip(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.ownCalculation(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err, "load salary settings")
		return
	}
	pdf, err := salary.RenderSlip(calc, settings)
	if err != nil {
		h.fail(w, r, err, "render salary slip")
		return
	}
	if err := h.archiveSlip(calc.ID, pdf); err != nil {
		slog.Warn("salary slip archive failed", "calculationId", calc.ID, "err", err)
	}
	api.Attachment(w, "application/pdf", "salary-slip-"+calc.ID+".pdf", pdf)
}

// archiveSlip keeps a sealed copy of the slip when both a slip directory and
// an encryption key are configured.
func (h *Handler) archiveSlip(id string, pdf []byte) error {
	if h.SlipDir == "" || h.Sealer == nil || !h.Sealer.Configured() {
		return nil
	}
	name := filepath.Base(id) + ".pdf.sealed"
	sealed, err := h.Sealer.Seal(name, pdf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(h.SlipDir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.SlipDir, name), sealed, 0o600)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.ExportJSON(r.Context())
	if err != nil {
		h.fail(w, r, err, "export salary data")
		return
	}
	name := "salary-export-" + time.Now().In(h.Service.Location()).Format("2006-01-02") + ".json"
	api.Attachment(w, exportContentType, name, doc)
}

// handleImport replaces every calculation, period and the settings with the
// uploaded snapshot.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		h.recordImport("rejected")
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read snapshot", requestID)
		return
	}
	snap, err := h.Service.Import(r.Context(), body)
	if err != nil {
		h.recordImport("rejected")
		h.fail(w, r, err, "import salary data")
		return
	}
	h.recordImport("ok")
	api.Success(w, map[string]int{
		"schemaVersion": snap.SchemaVersion,
		"calculations":  len(snap.Calculations),
		"periods":       len(snap.Periods),
	}, requestID)
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.RunBackup == nil {
		api.Fail(w, http.StatusServiceUnavailable, "backups_disabled", "salary backups are not configured", requestID)
		return
	}
	result, err := h.RunBackup(r.Context())
	if err != nil {
		h.fail(w, r, err, "back up salary data")
		return
	}
	api.Created(w, result, requestID)
}

func (h *Handler) recordImport(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Import("salary", outcome)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, salary.ErrPeriodNotFound), errors.Is(err, salary.ErrCalculationNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, salary.ErrInvalidPeriod):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: err.Error()}})
	case errors.Is(err, salary.ErrInvalidStatus):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "status", Reason: err.Error()}})
	case errors.Is(err, salary.ErrInvalidSnapshot), errors.Is(err, salary.ErrUnsupportedSchemaVersion):
		api.Fail(w, http.StatusBadRequest, "invalid_snapshot", err.Error(), requestID)
	case errors.Is(err, context.Canceled):
		api.Fail(w, http.StatusServiceUnavailable, "cancelled", "request cancelled", requestID)
	default:
		slog.Error(op+" failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "salary_failed", "failed to "+op, requestID)
	}
}
