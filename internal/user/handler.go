// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/account-api/internal/auth"
	"github.com/carterperez-dev/templates/account-api/internal/core"
	"github.com/carterperez-dev/templates/account-api/internal/middleware"
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
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.FindAll)
		r.Put("/", h.Update)
		r.Delete("/", h.Remove)
		r.Get("/{userID}", h.FindOne)
	})
}

func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.FindAll(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserListResponse{
		Users: ToUserResponseList(users),
		Total: len(users),
	})
}

func (h *Handler) FindOne(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.service.FindOne(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if user == nil {
		core.NotFound(w, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if !req.passwordPairComplete() {
		core.BadRequest(w, "new_password and old_password must be sent together")
		return
	}

	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, auth.ErrAccountExists):
			core.JSONError(w, core.NewAppError(
				err,
				auth.ErrAccountExists.Error(),
				http.StatusConflict,
				"ACCOUNT_EXISTS",
			))
		case errors.Is(err, auth.ErrInvalidCredentials):
			core.JSONError(w, core.UnauthorizedError("current password is incorrect"))
		case errors.Is(err, core.ErrPasswordTooLong):
			core.JSONError(w, core.ValidationError(
				fmt.Sprintf("new_password must be at most %d bytes", core.MaxPasswordBytes),
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Remove(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
