package missionhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/mission"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/transport/http/api"
	"crewdesk/internal/transport/http/middleware"
)

// QuoteRecorder counts quotes by the source that produced the amount.
type QuoteRecorder interface {
	Quote(source string)
}

type Handler struct {
	Service *mission.Service
	Metrics QuoteRecorder
}

func NewHandler(service *mission.Service, metrics QuoteRecorder) *Handler {
	return &Handler{Service: service, Metrics: metrics}
}

// RegisterEventRoutes mounts pricing endpoints under /events/{eventID}.
func (h *Handler) RegisterEventRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermPricingRead)).Get("/{eventID}/pricing", h.handleGetPricing)
	r.With(middleware.RequirePermission(auth.PermPricingWrite)).Put("/{eventID}/pricing", h.handleSavePricing)
	r.With(middleware.RequirePermission(auth.PermPricingWrite)).Delete("/{eventID}/pricing", h.handleDeletePricing)
	r.With(middleware.RequirePermission(auth.PermPricingRead)).Get("/{eventID}/quote", h.handleQuote)
}

func (h *Handler) handleGetPricing(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, err, "load pricing")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSavePricing(w http.ResponseWriter, r *http.Request) {
	var payload mission.PricingInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Save(r.Context(), chi.URLParam(r, "eventID"), payload)
	if err != nil {
		h.fail(w, r, err, "save pricing")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePricing(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if err := h.Service.Delete(r.Context(), eventID); err != nil {
		h.fail(w, r, err, "delete pricing")
		return
	}
	api.Success(w, map[string]string{"eventId": eventID}, middleware.GetRequestID(r.Context()))
}

// handleQuote prices an event for one technician. Technicians always get
// their own quote; admins pick the technician with ?technicianId=.
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	technicianID := r.URL.Query().Get("technicianId")
	if user.Role != staffing.RoleAdmin || technicianID == "" {
		technicianID = user.ID
	}

	q, err := h.Service.Quote(r.Context(), chi.URLParam(r, "eventID"), technicianID)
	if err != nil {
		h.fail(w, r, err, "quote mission")
		return
	}
	if h.Metrics != nil {
		h.Metrics.Quote(q.Source)
	}
	api.Success(w, q, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, mission.ErrPricingNotFound),
		errors.Is(err, staffing.ErrEventNotFound),
		errors.Is(err, staffing.ErrTechnicianNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, mission.ErrInvalidPricing):
		api.Fail(w, http.StatusBadRequest, "invalid_pricing", err.Error(), requestID)
	default:
		slog.Error(op+" failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "pricing_failed", "failed to "+op, requestID)
	}
}
