// Package reviews реализует HTTP-обработчики отзывов.
//
// Автор отзыва и права администратора берутся из JWT в контексте запроса.
package reviews

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	reviewsvc "github.com/magabrotheeeer/ghibli-explorer/internal/services/reviews"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// Service описывает интерфейс сервиса отзывов.
type Service interface {
	GetReviewsForFilm(ctx context.Context, filmID string) viewstate.State[[]models.Review]
	GetAllReviews(ctx context.Context) viewstate.State[[]models.Review]
	GetUserReviews(ctx context.Context, author string) viewstate.State[[]models.Review]
	FindUserReviewForFilm(ctx context.Context, filmID, author string) (*models.Review, error)
	AddReview(ctx context.Context, actor reviewsvc.Actor, filmID string, rating float32, comment string) (*models.Review, error)
	EditReview(ctx context.Context, actor reviewsvc.Actor, id string, rating float32, comment string) (*models.Review, error)
	DeleteReview(ctx context.Context, actor reviewsvc.Actor, id string) error
}

// FilmLookup ищет фильм в последнем загруженном каталоге.
type FilmLookup interface {
	GetFilmObjectByID(id string) (*models.Film, bool)
}

// Request оценка и текст отзыва.
type Request struct {
	Rating  *float32 `json:"rating" validate:"required,gte=0,lte=5"`
	Comment string   `json:"comment" validate:"max=2000"`
}

// MyReview отзыв вместе с названием фильма, если фильм есть в каталоге.
type MyReview struct {
	models.Review
	FilmTitle string `json:"film_title,omitempty"`
}

// Handler обработчики отзывов.
type Handler struct {
	log      *slog.Logger
	service  Service
	films    FilmLookup
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service, films FilmLookup) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		films:    films,
		validate: validator.New(),
	}
}

func actorFrom(r *http.Request) reviewsvc.Actor {
	return reviewsvc.Actor{
		Email: middlewarectx.EmailFrom(r.Context()),
		Admin: middlewarectx.RoleFrom(r.Context()) == models.RoleAdmin,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func renderState[T any](w http.ResponseWriter, r *http.Request, state viewstate.State[T]) {
	render.Status(r, response.StateHTTPStatus(state))
	render.JSON(w, r, response.State(state))
}

// ForFilm godoc
// @Summary Отзывы к фильму
// @Tags Reviews
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID фильма"
// @Success 200 {object} response.StateResponse
// @Router /films/{id}/reviews [get]
func (h *Handler) ForFilm(w http.ResponseWriter, r *http.Request) {
	renderState(w, r, h.service.GetReviewsForFilm(r.Context(), chi.URLParam(r, "id")))
}

// All godoc
// @Summary Все отзывы
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.StateResponse
// @Router /admin/reviews [get]
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	renderState(w, r, h.service.GetAllReviews(r.Context()))
}

// Mine godoc
// @Summary Мои отзывы
// @Tags Reviews
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /reviews/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	state := h.service.GetUserReviews(r.Context(), actorFrom(r).Email)
	if state.Kind != viewstate.Success {
		renderState(w, r, state)
		return
	}
	mine := make([]MyReview, 0, len(state.Data))
	for _, review := range state.Data {
		item := MyReview{Review: review}
		if film, ok := h.films.GetFilmObjectByID(review.FilmID); ok {
			item.FilmTitle = film.Title
		}
		mine = append(mine, item)
	}
	renderState(w, r, viewstate.NewSuccess(mine))
}

// MineForFilm godoc
// @Summary Мой отзыв к фильму
// @Tags Reviews
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID фильма"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /films/{id}/reviews/mine [get]
func (h *Handler) MineForFilm(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reviews.mineForFilm"

	review, err := h.service.FindUserReviewForFilm(r.Context(), chi.URLParam(r, "id"), actorFrom(r).Email)
	if err != nil {
		h.logger(r, op).Info("review lookup failed", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("review not found"))
		return
	}
	render.JSON(w, r, response.OKWithData(review))
}

// Create godoc
// @Summary Новый отзыв
// @Tags Reviews
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID фильма"
// @Param request body Request true "Отзыв"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /films/{id}/reviews [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reviews.create"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	review, err := h.service.AddReview(r.Context(), actorFrom(r), chi.URLParam(r, "id"), *req.Rating, req.Comment)
	if err != nil {
		log.Error("failed to add review", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not add review"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(review))
}

// Update godoc
// @Summary Изменить отзыв
// @Description Обновляет только существующий отзыв; исчезнувший отзыв не создаётся заново.
// @Tags Reviews
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID отзыва"
// @Param request body Request true "Отзыв"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Отзыв уже удалён"
// @Router /reviews/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reviews.update"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	review, err := h.service.EditReview(r.Context(), actorFrom(r), chi.URLParam(r, "id"), *req.Rating, req.Comment)
	if err != nil {
		log.Error("failed to edit review", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not edit review"))
		return
	}
	render.JSON(w, r, response.OKWithData(review))
}

// Delete godoc
// @Summary Удалить отзыв
// @Tags Reviews
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID отзыва"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reviews.delete"

	if err := h.service.DeleteReview(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		h.logger(r, op).Error("failed to delete review", sl.Err(err))
		render.Status(r, response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not delete review"))
		return
	}
	render.JSON(w, r, response.OK())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (Request, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return req, false
	}
	return req, true
}
