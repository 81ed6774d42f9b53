// Package favourites реализует HTTP-обработчики избранного текущего пользователя.
//
// Stream отдаёт живую последовательность списков избранного как server-sent events:
// первое событие содержит текущий список, следующие приходят после каждого изменения.
package favourites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// Service описывает интерфейс сервиса избранного.
type Service interface {
	GetFavFilms(ctx context.Context) viewstate.State[[]models.Film]
	WatchFavFilms(ctx context.Context) (<-chan []models.Film, error)
	AddFilmToFavourites(ctx context.Context, filmID string) error
	RemoveFilmFromFavourites(ctx context.Context, filmID string) error
	IsFilmInFavs(ctx context.Context, filmID string) (bool, error)
}

// Handler обработчики /favourites.
type Handler struct {
	log       *slog.Logger
	service   Service
	keepalive time.Duration
}

// New создает Handler. keepalive задаёт период комментариев-пингов в потоке событий.
func New(log *slog.Logger, service Service, keepalive time.Duration) *Handler {
	return &Handler{log: log, service: service, keepalive: keepalive}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Избранное
// @Tags Favourites
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.StateResponse
// @Router /favourites [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	state := h.service.GetFavFilms(r.Context())
	render.Status(r, response.StateHTTPStatus(state))
	render.JSON(w, r, response.State(state))
}

// Get godoc
// @Summary Фильм в избранном?
// @Tags Favourites
// @Security BearerAuth
// @Produce  json
// @Param filmId path string true "ID фильма"
// @Success 200 {object} response.Response
// @Router /favourites/{filmId} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.favourites.get"

	filmID := chi.URLParam(r, "filmId")
	in, err := h.service.IsFilmInFavs(r.Context(), filmID)
	if err != nil {
		h.logger(r, op).Error("failed to check favourite", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not check favourite"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"film_id":   filmID,
		"favourite": in,
	}))
}

// Add godoc
// @Summary Добавить в избранное
// @Description Фильм, которого нет в локальном кэше, сначала загружается из API.
// @Tags Favourites
// @Security BearerAuth
// @Produce  json
// @Param filmId path string true "ID фильма"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /favourites/{filmId} [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.favourites.add"

	filmID := chi.URLParam(r, "filmId")
	if err := h.service.AddFilmToFavourites(r.Context(), filmID); err != nil {
		h.logger(r, op).Error("failed to add favourite", slog.String("film_id", filmID), sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not add film to favourites"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK())
}

// Remove godoc
// @Summary Убрать из избранного
// @Tags Favourites
// @Security BearerAuth
// @Produce  json
// @Param filmId path string true "ID фильма"
// @Success 200 {object} response.Response
// @Router /favourites/{filmId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.favourites.remove"

	filmID := chi.URLParam(r, "filmId")
	if err := h.service.RemoveFilmFromFavourites(r.Context(), filmID); err != nil {
		h.logger(r, op).Error("failed to remove favourite", slog.String("film_id", filmID), sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not remove film from favourites"))
		return
	}
	render.JSON(w, r, response.OK())
}

// Stream godoc
// @Summary Поток изменений избранного
// @Tags Favourites
// @Security BearerAuth
// @Produce  text/event-stream
// @Success 200 {array} models.Film
// @Router /favourites/stream [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.favourites.stream"
	log := h.logger(r, op)

	flusher, ok := w.(http.Flusher)
	if !ok {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("streaming unsupported"))
		return
	}

	updates, err := h.service.WatchFavFilms(r.Context())
	if err != nil {
		log.Error("failed to watch favourites", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not watch favourites"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var tick <-chan time.Time
	if h.keepalive > 0 {
		ticker := time.NewTicker(h.keepalive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case films, ok := <-updates:
			if !ok {
				return
			}
			body, err := json.Marshal(films)
			if err != nil {
				log.Error("failed to encode favourites", sl.Err(err))
				return
			}
			if _, err = fmt.Fprintf(w, "event: favourites\ndata: %s\n\n", body); err != nil {
				log.Info("stream client gone", sl.Err(err))
				return
			}
			flusher.Flush()
		case <-tick:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
