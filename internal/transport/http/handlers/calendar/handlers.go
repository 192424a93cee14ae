package calendarhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/ical"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/transport/http/api"
	"crewdesk/internal/transport/http/middleware"
	"crewdesk/internal/transport/http/shared"
)

const (
	defaultMaxUploadBytes = 5 << 20
	defaultExpandWindow   = 365 * 24 * time.Hour
	maxCommitEvents       = 500
)

// ImportRecorder counts import attempts by kind and outcome.
type ImportRecorder interface {
	Import(kind, outcome string)
}

type Handler struct {
	Staffing       *staffing.Service
	Location       *time.Location
	MaxUploadBytes int64
	Metrics        ImportRecorder
	Now            func() time.Time
}

func NewHandler(staff *staffing.Service, loc *time.Location, maxUploadBytes int64, metrics ImportRecorder) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Staffing: staff, Location: loc, MaxUploadBytes: maxUploadBytes, Metrics: metrics, Now: time.Now}
}

type previewItem struct {
	Event      ical.Event            `json:"event"`
	Validation ical.ValidationResult `json:"validation"`
}

type previewResponse struct {
	Events []previewItem `json:"events"`
	Issues []ical.Issue  `json:"issues"`
}

type commitPayload struct {
	EventTypeID string       `json:"eventTypeId"`
	Events      []ical.Event `json:"events"`
}

type skippedEvent struct {
	UID    string   `json:"uid"`
	Errors []string `json:"errors"`
}

type commitResponse struct {
	Created []staffing.Event `json:"created"`
	Skipped []skippedEvent   `json:"skipped"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermCalendarImport)).Post("/calendar/import/preview", h.handlePreview)
	r.With(middleware.RequirePermission(auth.PermCalendarImport)).Post("/calendar/import/commit", h.handleCommit)
	r.With(middleware.RequirePermission(auth.PermAssignmentsRead)).Get("/me/calendar.ics", h.handleFeed)
}

// handlePreview parses an uploaded .ics file and reports every event with its
// validation outcome. Nothing is written.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.record("preview", "rejected")
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestID)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.record("preview", "rejected")
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "file", Reason: "is required"}})
		return
	}
	defer file.Close()

	result, err := ical.Load(file, h.Location)
	if err != nil {
		h.record("preview", "parse_error")
		api.Fail(w, http.StatusBadRequest, "parse_error", err.Error(), requestID)
		return
	}

	events := result.Events
	issues := result.Issues
	if r.URL.Query().Get("expand") == "1" {
		v := shared.NewValidator()
		from := h.Now().In(h.Location)
		to := from.Add(defaultExpandWindow)
		if raw := r.URL.Query().Get("from"); raw != "" {
			from, _ = v.DateIn("from", raw, h.Location, false)
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, _ = v.DateIn("to", raw, h.Location, true)
		}
		if v.Reject(w, requestID) {
			return
		}
		expanded, expandIssues, err := ical.Expand(events, from, to, 0)
		if errors.Is(err, ical.ErrInvalidWindow) {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "to", Reason: "must be after from"}})
			return
		}
		if err != nil {
			slog.Error("calendar expansion failed", "err", err, "requestId", requestID)
			api.Fail(w, http.StatusInternalServerError, "expand_failed", "failed to expand recurring events", requestID)
			return
		}
		events = expanded
		issues = append(issues, expandIssues...)
	}

	now := h.Now()
	resp := previewResponse{Events: make([]previewItem, 0, len(events)), Issues: issues}
	if resp.Issues == nil {
		resp.Issues = []ical.Issue{}
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, previewItem{Event: ev, Validation: ical.Validate(ev, now)})
	}
	h.record("preview", "ok")
	api.Success(w, resp, requestID)
}

// handleCommit creates the selected events. Invalid ones are skipped and
// reported; a store failure stops the batch with earlier events kept.
func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload commitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.record("commit", "rejected")
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	if len(payload.Events) == 0 {
		v.Add("events", "must contain at least one event")
	}
	if len(payload.Events) > maxCommitEvents {
		v.Add("events", "must not contain more than 500 events")
	}
	if v.Reject(w, requestID) {
		h.record("commit", "rejected")
		return
	}

	now := h.Now()
	resp := commitResponse{Created: []staffing.Event{}, Skipped: []skippedEvent{}}
	for _, ev := range payload.Events {
		check := ical.Validate(ev, now)
		if !check.IsValid {
			resp.Skipped = append(resp.Skipped, skippedEvent{UID: ev.UID, Errors: check.Errors})
			continue
		}
		created, err := h.Staffing.CreateEvent(r.Context(), ical.ToEventForm(ev, payload.EventTypeID), user.ID)
		if errors.Is(err, staffing.ErrEventTypeNotFound) {
			h.record("commit", "rejected")
			api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
			return
		}
		if err != nil {
			h.record("commit", "failed")
			slog.Error("calendar import stopped", "created", len(resp.Created), "uid", ev.UID, "err", err, "requestId", requestID)
			api.FailWithDetails(w, http.StatusInternalServerError, "import_failed", "failed to create imported event",
				map[string]any{"created": len(resp.Created), "uid": ev.UID}, requestID)
			return
		}
		resp.Created = append(resp.Created, created)
	}
	slog.Info("calendar import committed", "created", len(resp.Created), "skipped", len(resp.Skipped), "userId", user.ID)
	h.record("commit", "ok")
	api.Created(w, resp, requestID)
}

// handleFeed publishes the caller's pending and accepted assignments.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	views, err := h.Staffing.ListAssignments(r.Context(), staffing.AssignmentFilter{TechnicianID: user.ID})
	if err != nil {
		slog.Error("calendar feed failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "feed_failed", "failed to build calendar feed", middleware.GetRequestID(r.Context()))
		return
	}

	items := make([]ical.FeedItem, 0, len(views))
	for _, a := range views {
		if a.Status == staffing.AssignmentDeclined {
			continue
		}
		items = append(items, ical.FeedItem{
			UID:       a.ID + "@crewdesk",
			Summary:   a.EventTitle,
			Location:  a.EventLocation,
			Start:     a.EventStart,
			End:       a.EventEnd,
			Confirmed: a.Status == staffing.AssignmentAccepted,
			UpdatedAt: a.UpdatedAt,
		})
	}

	var buf bytes.Buffer
	if err := ical.WriteFeed(&buf, "crewdesk assignments", h.Location.String(), items); err != nil {
		slog.Error("calendar feed encode failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "feed_failed", "failed to build calendar feed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, "text/calendar; charset=utf-8", "assignments.ics", buf.Bytes())
}

func (h *Handler) record(kind, outcome string) {
	if h.Metrics != nil {
		h.Metrics.Import(kind, outcome)
	}
}
