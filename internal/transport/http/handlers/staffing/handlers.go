package staffinghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/transport/http/api"
	"crewdesk/internal/transport/http/middleware"
	"crewdesk/internal/transport/http/shared"
)

type Handler struct {
	Service  *staffing.Service
	Location *time.Location
}

func NewHandler(service *staffing.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{Service: service, Location: loc}
}

type eventPayload struct {
	Title               string                 `json:"title"`
	Description         string                 `json:"description"`
	Location            string                 `json:"location"`
	StartDate           string                 `json:"startDate"`
	EndDate             string                 `json:"endDate"`
	EventTypeID         string                 `json:"eventTypeId"`
	RequiredTechnicians []staffing.Requirement `json:"requiredTechnicians"`
	TargetedTechnicians []string               `json:"targetedTechnicians"`
}

type eventTypePayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type assignPayload struct {
	TechnicianID string `json:"technicianId"`
}

type respondPayload struct {
	Status string `json:"status"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermTechniciansRead)).Get("/technicians", h.handleListTechnicians)

	r.With(middleware.RequireAuth).Get("/me/profile", h.handleGetProfile)
	r.With(middleware.RequirePermission(auth.PermProfileWrite)).Put("/me/profile", h.handleUpdateProfile)
	r.With(middleware.RequirePermission(auth.PermAssignmentsRead)).Get("/me/assignments", h.handleMyAssignments)

	r.With(middleware.RequirePermission(auth.PermEventsRead)).Get("/event-types", h.handleListEventTypes)
	r.With(middleware.RequirePermission(auth.PermEventsWrite)).Post("/event-types", h.handleCreateEventType)

	r.Route("/assignments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead)).Get("/", h.handleListAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsRespond)).Post("/{assignmentID}/respond", h.handleRespond)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite)).Delete("/{assignmentID}", h.handleDeleteAssignment)
	})
}

// RegisterEventRoutes mounts the event endpoints on the /events subrouter,
// which other handlers extend with per-event resources.
func (h *Handler) RegisterEventRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermEventsRead)).Get("/", h.handleListEvents)
	r.With(middleware.RequirePermission(auth.PermEventsWrite)).Post("/", h.handleCreateEvent)
	r.With(middleware.RequirePermission(auth.PermEventsRead)).Get("/{eventID}", h.handleGetEvent)
	r.With(middleware.RequirePermission(auth.PermEventsWrite)).Put("/{eventID}", h.handleUpdateEvent)
	r.With(middleware.RequirePermission(auth.PermEventsWrite)).Delete("/{eventID}", h.handleDeleteEvent)
	r.With(middleware.RequirePermission(auth.PermAssignmentsWrite)).Post("/{eventID}/assignments", h.handleAssign)
}

func (h *Handler) handleListTechnicians(w http.ResponseWriter, r *http.Request) {
	var (
		out []staffing.Technician
		err error
	)
	if r.URL.Query().Get("all") == "1" {
		out, err = h.Service.ListUsers(r.Context())
	} else {
		out, err = h.Service.ListTechnicians(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "list technicians")
		return
	}
	api.Success(w, nonNil(out), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	tech, err := h.Service.GetTechnician(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err, "get profile")
		return
	}
	api.Success(w, tech, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload staffing.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "is required")
	v.Required("lastName", payload.LastName, "is required")
	v.Enum("skillLevel", payload.SkillLevel, staffing.SkillLevels, "must be junior, intermediate, senior or expert")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.SkillLevel = strings.ToLower(strings.TrimSpace(payload.SkillLevel))

	tech, err := h.Service.UpdateProfile(r.Context(), user.ID, payload)
	if err != nil {
		h.fail(w, r, err, "update profile")
		return
	}
	api.Success(w, tech, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.ListAssignments(r.Context(), staffing.AssignmentFilter{
		TechnicianID: user.ID,
		Status:       r.URL.Query().Get("status"),
	})
	if err != nil {
		h.fail(w, r, err, "list my assignments")
		return
	}
	api.Success(w, nonNil(out), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEventTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListEventTypes(r.Context())
	if err != nil {
		h.fail(w, r, err, "list event types")
		return
	}
	api.Success(w, nonNil(out), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEventType(w http.ResponseWriter, r *http.Request) {
	var payload eventTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	et, err := h.Service.CreateEventType(r.Context(), strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Color))
	if err != nil {
		h.fail(w, r, err, "create event type")
		return
	}
	api.Created(w, et, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := staffing.EventFilter{EventTypeID: q.Get("eventTypeId")}
	if raw := q.Get("from"); raw != "" {
		if from, ok := v.DateIn("from", raw, h.Location, false); ok {
			filter.From = &from
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, ok := v.DateIn("to", raw, h.Location, true); ok {
			filter.To = &to
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	out, err := h.Service.ListEvents(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "list events")
		return
	}
	api.Success(w, nonNil(out), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Service.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, err, "get event")
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	ev, err := h.Service.CreateEvent(r.Context(), form, user.ID)
	if err != nil {
		h.fail(w, r, err, "create event")
		return
	}
	api.Created(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	ev, err := h.Service.UpdateEvent(r.Context(), chi.URLParam(r, "eventID"), form)
	if err != nil {
		h.fail(w, r, err, "update event")
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventID")
	if err := h.Service.DeleteEvent(r.Context(), id); err != nil {
		h.fail(w, r, err, "delete event")
		return
	}
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request) (staffing.EventForm, bool) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return staffing.EventForm{}, false
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "is required")
	v.Required("startDate", payload.StartDate, "is required")
	v.Required("endDate", payload.EndDate, "is required")
	var start, end time.Time
	if payload.StartDate != "" {
		start, _ = v.DateIn("startDate", payload.StartDate, h.Location, false)
	}
	if payload.EndDate != "" {
		end, _ = v.DateIn("endDate", payload.EndDate, h.Location, false)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		v.Add("endDate", "must be after startDate")
	}
	for _, req := range payload.RequiredTechnicians {
		if strings.TrimSpace(req.Skill) == "" || req.Count < 0 {
			v.Add("requiredTechnicians", "each entry needs a skill and a non-negative count")
			break
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return staffing.EventForm{}, false
	}

	requirements := payload.RequiredTechnicians
	if requirements == nil {
		requirements = []staffing.Requirement{}
	}
	return staffing.EventForm{
		Title:               strings.TrimSpace(payload.Title),
		Description:         payload.Description,
		Location:            payload.Location,
		StartDate:           start,
		EndDate:             end,
		EventTypeID:         payload.EventTypeID,
		RequiredTechnicians: requirements,
		TargetedTechnicians: payload.TargetedTechnicians,
	}, true
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("technicianId", payload.TechnicianID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	a, err := h.Service.Assign(r.Context(), chi.URLParam(r, "eventID"), payload.TechnicianID)
	if err != nil {
		h.fail(w, r, err, "assign technician")
		return
	}
	api.Created(w, a, middleware.GetRequestID(r.Context()))
}

// handleListAssignments lists every assignment for admins. Technicians only
// ever see their own rows whatever filter they pass.
func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()
	filter := staffing.AssignmentFilter{
		EventID:      q.Get("eventId"),
		TechnicianID: q.Get("technicianId"),
		Status:       q.Get("status"),
	}
	if user.Role != staffing.RoleAdmin {
		filter.TechnicianID = user.ID
	}
	out, err := h.Service.ListAssignments(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "list assignments")
		return
	}
	api.Success(w, nonNil(out), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload respondPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	a, err := h.Service.Respond(r.Context(), chi.URLParam(r, "assignmentID"), user.ID, strings.ToLower(strings.TrimSpace(payload.Status)))
	if err != nil {
		h.fail(w, r, err, "respond to assignment")
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	if err := h.Service.DeleteAssignment(r.Context(), id); err != nil {
		h.fail(w, r, err, "delete assignment")
		return
	}
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, staffing.ErrTechnicianNotFound),
		errors.Is(err, staffing.ErrEventNotFound),
		errors.Is(err, staffing.ErrEventTypeNotFound),
		errors.Is(err, staffing.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, staffing.ErrAssignmentExists):
		api.Fail(w, http.StatusConflict, "already_assigned", err.Error(), requestID)
	case errors.Is(err, staffing.ErrInvalidResponse):
		api.Fail(w, http.StatusBadRequest, "invalid_status", err.Error(), requestID)
	case errors.Is(err, staffing.ErrNotAssignee):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	default:
		slog.Error(op+" failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "staffing_failed", "failed to "+op, requestID)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
