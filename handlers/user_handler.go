package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/userauth-api/middleware"
	"github.com/upb/userauth-api/services"
	"github.com/upb/userauth-api/utils"
	"go.uber.org/zap"
)

// UserService defines the account operations exposed over HTTP
type UserService interface {
	Register(ctx context.Context, req services.RegisterRequest) (string, error)
	Login(ctx context.Context, req services.LoginRequest) (string, error)
	UpdatePassword(ctx context.Context, userID string, req services.UpdatePasswordRequest) error
	Delete(ctx context.Context, userID string, req services.DeleteRequest) error
}

// UserHandler handles user account HTTP requests
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the user route table. Register and login are public;
// the remaining routes run behind requireAuth.
func (h *UserHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Patch("/", h.HandleUpdatePassword)
		r.Delete("/", h.HandleDelete)
	})

	return r
}

// HandleRegister handles POST /register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleDecodeError(w, r, err, h.logger)
		return
	}

	token, err := h.service.Register(r.Context(), req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteToken(w, http.StatusCreated, token); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleLogin handles POST /login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleDecodeError(w, r, err, h.logger)
		return
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteToken(w, http.StatusOK, token); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleUpdatePassword handles PATCH /
func (h *UserHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		utils.WriteEmpty(w, http.StatusUnauthorized)
		return
	}

	var req services.UpdatePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleDecodeError(w, r, err, h.logger)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), claims.ID, req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, struct{}{}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleDelete handles DELETE /
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		utils.WriteEmpty(w, http.StatusUnauthorized)
		return
	}

	var req services.DeleteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleDecodeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), claims.ID, req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	utils.WriteEmpty(w, http.StatusOK)
}
