package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/transport/http/api"
	"crewdesk/internal/transport/http/middleware"
	"crewdesk/internal/transport/http/shared"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

type Profiles interface {
	GetTechnician(ctx context.Context, id string) (staffing.Technician, error)
}

type Handler struct {
	Auth     Authenticator
	Profiles Profiles
}

func NewHandler(authSvc Authenticator, profiles Profiles) *Handler {
	return &Handler{Auth: authSvc, Profiles: profiles}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User        staffing.Technician `json:"user"`
	Permissions []string            `json:"permissions"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.With(middleware.RequireAuth).Get("/auth/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	session, err := h.Auth.Login(r.Context(), strings.TrimSpace(payload.Email), payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	profile, err := h.Profiles.GetTechnician(r.Context(), user.ID)
	if errors.Is(err, staffing.ErrTechnicianNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Error("load current user failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "me_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	perms := auth.RolePermissions[user.Role]
	if perms == nil {
		perms = []string{}
	}
	api.Success(w, meResponse{User: profile, Permissions: perms}, middleware.GetRequestID(r.Context()))
}
