// Package session реализует HTTP-обработчик проверки активной сессии.
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/services/auth"
)

type Service interface {
	CheckIfLoggedIn(ctx context.Context) auth.LoginState
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка сессии
// @Description Возвращает пользователя и новый JWT, если на устройстве есть маркер сессии.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Сессии нет"
// @Router /session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.session"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state := h.service.CheckIfLoggedIn(r.Context())
	switch state.Status {
	case auth.Authenticated:
		render.JSON(w, r, response.OKWithData(map[string]any{
			"status": state.Status,
			"token":  state.Token,
			"user":   response.NewUserView(*state.User),
		}))
	case auth.Unauthenticated:
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("no active session"))
	default:
		log.Error("session check failed", slog.String("reason", state.Reason))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(state.Reason))
	}
}
