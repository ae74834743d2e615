// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/account-api/internal/core"
	"github.com/carterperez-dev/templates/account-api/internal/middleware"
)

var passwordTooLongMessage = fmt.Sprintf(
	"password must be at most %d bytes",
	core.MaxPasswordBytes,
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, recovery func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
		r.Post("/refresh", h.Refresh)
		r.Post("/recover-password", h.RecoverPassword)

		r.With(recovery).Post("/change-password", h.ChangePassword)
		r.With(authenticator).Get("/profile", h.GetProfile)
	})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req RecoverPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.RecoverPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.ChangePassword(r.Context(), userID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	subject := Subject{
		ID:    middleware.GetUserID(r.Context()),
		Email: middleware.GetUserEmail(r.Context()),
	}
	if subject.ID == "" {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetProfile(r.Context(), subject)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if user == nil {
		core.NotFound(w, "user")
		return
	}

	core.OK(w, ToProfileResponse(user))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.NewAppError(
			err,
			ErrInvalidCredentials.Error(),
			http.StatusUnauthorized,
			"INVALID_CREDENTIALS",
		))
	case errors.Is(err, ErrAccountExists):
		core.JSONError(w, core.NewAppError(
			err,
			ErrAccountExists.Error(),
			http.StatusConflict,
			"ACCOUNT_EXISTS",
		))
	case errors.Is(err, ErrUserNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrPasswordTooLong):
		core.JSONError(w, core.ValidationError(passwordTooLongMessage))
	default:
		core.InternalServerError(w, err)
	}
}
