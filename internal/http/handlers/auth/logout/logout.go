// Package logout реализует HTTP-обработчик выхода: маркер сессии удаляется.
package logout

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
	Logout(ctx context.Context) auth.LoginState
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	state := h.service.Logout(r.Context())
	if state.Status != auth.Unauthenticated {
		h.log.Error("logout failed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("reason", state.Reason),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(state.Reason))
		return
	}
	render.JSON(w, r, response.OK())
}
