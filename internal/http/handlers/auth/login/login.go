// Package login реализует HTTP-обработчик входа пользователя.
//
// Учётные данные проверяются сервисом auth по удалённому хранилищу. При успехе
// сохраняется маркер сессии и возвращается bearer-токен локального API.
package login

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

// Request — входные данные для входа.
// Пустые поля допускаются: сервис сам сообщает, какое поле не заполнено.
type Request struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"max=256"`
}

// Handler обрабатывает HTTP-запросы для входа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис входа
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, password string) auth.LoginState
}

// New создает новый экземпляр Handler с указанными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль, сохраняет маркер сессии и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Удалённое хранилище недоступно"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	state := h.service.Login(r.Context(), req.Email, req.Password)
	if state.Status != auth.Authenticated {
		log.Info("login rejected", slog.String("reason", state.Reason))
		render.Status(r, failureStatus(state))
		render.JSON(w, r, response.Error(state.Reason))
		return
	}

	log.Info("login success", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": state.Token,
		"user":  response.NewUserView(*state.User),
	}))
}

func failureStatus(state auth.LoginState) int {
	switch {
	case state.Err != nil:
		return response.HTTPStatus(state.Err)
	case state.Reason == auth.MsgInvalidCredentials:
		return http.StatusUnauthorized
	case state.Reason == auth.MsgEmailFieldEmpty, state.Reason == auth.MsgPasswordFieldEmpty:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
