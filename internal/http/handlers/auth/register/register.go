// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/services/auth"
)

// Request — входные данные для регистрации
type Request struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"max=256"`
	ConfirmPassword string `json:"confirm_password" validate:"max=256"`
}

type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) auth.RegisterState
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	state := h.service.Register(r.Context(), auth.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if state.Status != auth.Registered {
		log.Info("registration rejected", slog.String("reason", state.Reason))
		render.Status(r, failureStatus(state))
		render.JSON(w, r, response.Error(state.Reason))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":    response.NewUserView(*state.User),
		"message": "user created successfully",
	}))
}

func failureStatus(state auth.RegisterState) int {
	switch {
	case state.Err != nil:
		return response.HTTPStatus(state.Err)
	case state.Reason == auth.MsgRegistrationFailed:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
