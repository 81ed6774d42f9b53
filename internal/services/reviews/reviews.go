// Package reviews управляет отзывами к фильмам в удалённом хранилище.
//
// Держатель Reviews хранит результат последнего запроса списка. Изменения повторяют
// этот запрос, чтобы опубликовать свежий список или ошибку.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/metrics"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// Допустимый диапазон оценки.
const (
	MinRating = 0
	MaxRating = 5
)

// OnlineReviews отзывы удалённого хранилища.
type OnlineReviews interface {
	GetReviewsForFilm(ctx context.Context, filmID string) ([]models.Review, error)
	GetReviewsForAllFilms(ctx context.Context) ([]models.Review, error)
	GetReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error)
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	GetReviewAndAuthorForFilm(ctx context.Context, filmID, author string) (*models.Review, error)
	AddReview(ctx context.Context, review models.Review) error
	EditReview(ctx context.Context, review models.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// Actor пользователь, от имени которого выполняется изменение.
type Actor struct {
	Email string
	Admin bool
}

// Service держатель состояния отзывов.
type Service struct {
	log    *slog.Logger
	remote OnlineReviews
	events events.Publisher
	now    func() time.Time

	// Reviews последний загруженный список отзывов.
	Reviews *viewstate.Holder[[]models.Review]

	mu   sync.Mutex
	last func(ctx context.Context) viewstate.State[[]models.Review]
}

// New создаёт сервис отзывов.
func New(log *slog.Logger, remote OnlineReviews, publisher events.Publisher) *Service {
	return &Service{
		log:     log,
		remote:  remote,
		events:  publisher,
		now:     time.Now,
		Reviews: viewstate.NewHolder[[]models.Review](),
	}
}

type reviewEvent struct {
	ReviewID string  `json:"review_id"`
	FilmID   string  `json:"film_id"`
	Author   string  `json:"author"`
	Rating   float32 `json:"rating,omitempty"`
}

// GetReviewsForFilm загружает отзывы к фильму.
func (s *Service) GetReviewsForFilm(ctx context.Context, filmID string) viewstate.State[[]models.Review] {
	const op = "reviews.GetReviewsForFilm"
	return s.load(ctx, op, func(ctx context.Context) ([]models.Review, error) {
		return s.remote.GetReviewsForFilm(ctx, filmID)
	})
}

// GetAllReviews загружает все отзывы.
func (s *Service) GetAllReviews(ctx context.Context) viewstate.State[[]models.Review] {
	const op = "reviews.GetAllReviews"
	return s.load(ctx, op, s.remote.GetReviewsForAllFilms)
}

// GetUserReviews загружает отзывы автора.
func (s *Service) GetUserReviews(ctx context.Context, author string) viewstate.State[[]models.Review] {
	const op = "reviews.GetUserReviews"
	return s.load(ctx, op, func(ctx context.Context) ([]models.Review, error) {
		return s.remote.GetReviewsByAuthor(ctx, author)
	})
}

// GetUserReviewForFilm ищет отзыв автора к фильму в последнем загруженном списке.
func (s *Service) GetUserReviewForFilm(filmID, author string) (*models.Review, bool) {
	current := s.Reviews.Current()
	if current.Kind != viewstate.Success {
		return nil, false
	}
	for _, r := range current.Data {
		if r.FilmID == filmID && r.Author == author {
			review := r
			return &review, true
		}
	}
	return nil, false
}

// FindUserReviewForFilm запрашивает отзыв автора к фильму в удалённом хранилище.
func (s *Service) FindUserReviewForFilm(ctx context.Context, filmID, author string) (*models.Review, error) {
	const op = "reviews.FindUserReviewForFilm"
	review, err := s.remote.GetReviewAndAuthorForFilm(ctx, filmID, author)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return review, nil
}

// AddReview создаёт отзыв автора к фильму и перезагружает отзывы этого фильма.
func (s *Service) AddReview(ctx context.Context, actor Actor, filmID string, rating float32, comment string) (*models.Review, error) {
	const op = "reviews.AddReview"

	if err := validate(filmID, rating); err != nil {
		return nil, s.fail(op, err)
	}
	review := models.Review{
		ID:      uuid.NewString(),
		FilmID:  filmID,
		Author:  actor.Email,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
		Date:    s.now().UTC(),
	}
	if err := s.remote.AddReview(ctx, review); err != nil {
		return nil, s.fail(op, err)
	}
	s.log.Info("review created", sl.Op(op), slog.String("review_id", review.ID), slog.String("film_id", filmID))

	s.publish(ctx, events.ReviewCreated, reviewEvent{ReviewID: review.ID, FilmID: filmID, Author: review.Author, Rating: rating})
	s.GetReviewsForFilm(ctx, filmID)
	return &review, nil
}

// EditReview меняет оценку и текст существующего отзыва. Отзыв, которого уже нет,
// не создаётся заново: возвращается ошибка models.ErrUpdateTargetMissing.
func (s *Service) EditReview(ctx context.Context, actor Actor, id string, rating float32, comment string) (*models.Review, error) {
	const op = "reviews.EditReview"

	existing, err := s.owned(ctx, actor, id)
	if errors.Is(err, models.ErrNotFound) {
		err = fmt.Errorf("review %s: %w", id, models.ErrUpdateTargetMissing)
	}
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err = validate(existing.FilmID, rating); err != nil {
		return nil, s.fail(op, err)
	}

	updated := *existing
	updated.Rating = rating
	updated.Comment = strings.TrimSpace(comment)
	updated.Date = s.now().UTC()
	if err = s.remote.EditReview(ctx, updated); err != nil {
		return nil, s.fail(op, err)
	}
	s.log.Info("review edited", sl.Op(op), slog.String("review_id", id))

	s.publish(ctx, events.ReviewEdited, reviewEvent{ReviewID: id, FilmID: updated.FilmID, Author: updated.Author, Rating: rating})
	s.GetReviewsForFilm(ctx, updated.FilmID)
	return &updated, nil
}

// DeleteReview удаляет отзыв и повторяет последний запрос списка.
// Удаление отсутствующего отзыва не считается ошибкой.
func (s *Service) DeleteReview(ctx context.Context, actor Actor, id string) error {
	const op = "reviews.DeleteReview"

	existing, err := s.owned(ctx, actor, id)
	if errors.Is(err, models.ErrNotFound) {
		s.reload(ctx)
		return nil
	}
	if err != nil {
		return s.fail(op, err)
	}
	if err = s.remote.DeleteReview(ctx, id); err != nil {
		return s.fail(op, err)
	}
	s.log.Info("review deleted", sl.Op(op), slog.String("review_id", id), slog.Bool("by_admin", actor.Admin && actor.Email != existing.Author))

	s.publish(ctx, events.ReviewDeleted, reviewEvent{ReviewID: id, FilmID: existing.FilmID, Author: existing.Author})
	if !s.reload(ctx) {
		s.GetReviewsForFilm(ctx, existing.FilmID)
	}
	return nil
}

// Close закрывает держатель состояния.
func (s *Service) Close() {
	s.Reviews.Close()
}

// owned читает отзыв и проверяет, что actor его автор или администратор.
func (s *Service) owned(ctx context.Context, actor Actor, id string) (*models.Review, error) {
	review, err := s.remote.GetReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Author != actor.Email && !actor.Admin {
		return nil, fmt.Errorf("review %s belongs to another author: %w", id, models.ErrForbidden)
	}
	return review, nil
}

func validate(filmID string, rating float32) error {
	if strings.TrimSpace(filmID) == "" {
		return fmt.Errorf("film id is empty: %w", models.ErrValidation)
	}
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating %.1f out of range: %w", rating, models.ErrValidation)
	}
	return nil
}

func (s *Service) load(ctx context.Context, op string, query func(context.Context) ([]models.Review, error)) viewstate.State[[]models.Review] {
	run := func(ctx context.Context) viewstate.State[[]models.Review] {
		s.Reviews.Set(viewstate.NewLoading[[]models.Review]())
		reviews, err := query(ctx)
		if err != nil {
			return viewstate.NewError[[]models.Review](s.fail(op, err))
		}
		if reviews == nil {
			reviews = []models.Review{}
		}
		state := viewstate.NewSuccess(reviews)
		s.Reviews.Set(state)
		return state
	}

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()
	return run(ctx)
}

// reload повторяет последний запрос списка. Возвращает false, если запросов ещё не было.
func (s *Service) reload(ctx context.Context) bool {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return false
	}
	last(ctx)
	return true
}

// fail публикует Error и возвращает обёрнутую ошибку.
func (s *Service) fail(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	s.log.Error("reviews action failed", sl.Op(op), sl.Err(err), sl.Category(err))
	metrics.ObserveStateError("reviews", err)
	s.Reviews.Set(viewstate.NewError[[]models.Review](wrapped))
	return wrapped
}

func (s *Service) publish(ctx context.Context, key string, payload any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", key), sl.Err(err))
	}
}
