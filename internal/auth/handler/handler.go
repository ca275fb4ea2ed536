package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearledger/internal/auth/models"
	"clearledger/internal/platform/middleware"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/httputil"
	"clearledger/pkg/requestcontext"
)

// Service defines the interface for account operations.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*domain.BusinessUser, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Me(ctx context.Context) (*domain.BusinessUser, error)
}

// Handler handles registration, login and current-user endpoints.
type Handler struct {
	auth        Service
	logger      *slog.Logger
	loginLimits []func(http.Handler) http.Handler
}

// New creates a new auth Handler. loginLimits wrap only the login route.
func New(auth Service, logger *slog.Logger, loginLimits ...func(http.Handler) http.Handler) *Handler {
	return &Handler{auth: auth, logger: logger, loginLimits: loginLimits}
}

// Register mounts the routes. The router must already run the
// authentication filter and CurrentUser middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.With(h.loginLimits...).Post("/api/auth/login", h.handleLogin)
	r.With(middleware.RequireUser).Get("/api/users/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"), "invalid register request")
		return
	}

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "registration failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"), "invalid login request")
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "current user lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
