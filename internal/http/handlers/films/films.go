// Package films реализует HTTP-обработчики каталога фильмов.
//
// Список отдаётся в виде состояния держателя: при успехе фильмы, попавшие в каталог
// впервые, уже записаны в локальный кэш.
package films

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// Service описывает интерфейс сервиса фильмов.
type Service interface {
	GetFilms(ctx context.Context) viewstate.State[[]models.Film]
	GetFilmByID(ctx context.Context, id string) (*models.Film, error)
}

// Handler обработчики /films.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Каталог фильмов
// @Tags Films
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.StateResponse
// @Failure 401 {object} response.StateResponse "Нет сессии"
// @Failure 502 {object} response.StateResponse "API фильмов недоступно"
// @Router /films [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	state := h.service.GetFilms(r.Context())
	render.Status(r, response.StateHTTPStatus(state))
	render.JSON(w, r, response.State(state))
}

// Get godoc
// @Summary Фильм по id
// @Tags Films
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID фильма"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /films/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.films.get"

	id := chi.URLParam(r, "id")
	film, err := h.service.GetFilmByID(r.Context(), id)
	if err != nil {
		h.log.Error("failed to get film",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("film_id", id),
			sl.Err(err),
		)
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not get film"))
		return
	}
	render.JSON(w, r, response.OKWithData(film))
}
