// Package admin реализует HTTP-обработчики, доступные только роли Admin.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// UsersService описывает интерфейс сервиса пользователей.
type UsersService interface {
	FetchUsers(ctx context.Context) viewstate.State[[]models.User]
}

// UsersHandler список пользователей с синхронизацией локального кэша.
type UsersHandler struct {
	log     *slog.Logger
	service UsersService
}

// NewUsers создает UsersHandler.
func NewUsers(log *slog.Logger, service UsersService) *UsersHandler {
	return &UsersHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Description Загружает пользователей из удалённого хранилища и обновляет локальные копии.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.StateResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.service.FetchUsers(r.Context())

	views := viewstate.State[[]response.UserView]{Kind: state.Kind, Err: state.Err}
	if state.Kind == viewstate.Success {
		views.Data = response.NewUserViews(state.Data)
	}
	render.Status(r, response.StateHTTPStatus(views))
	render.JSON(w, r, response.State(views))
}
