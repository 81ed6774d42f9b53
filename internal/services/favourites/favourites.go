// Package favourites управляет избранным текущего пользователя в локальном хранилище.
//
// Пользователь определяется по маркеру сессии. Перед добавлением в избранное фильм
// гарантированно кладётся в локальный кэш, при необходимости загружаясь из сети.
package favourites

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/metrics"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// OnlineFilms сетевой источник для фильмов, которых нет в кэше.
type OnlineFilms interface {
	GetFilmByID(ctx context.Context, id string) (*models.Film, error)
}

// LocalFilms кэш фильмов и избранного.
type LocalFilms interface {
	IsFilmInDatabase(ctx context.Context, filmID string) (bool, error)
	InsertFilm(ctx context.Context, film models.Film) (bool, error)
	AddToFavourites(ctx context.Context, userID, filmID string) error
	DeleteFromFavourites(ctx context.Context, userID, filmID string) error
	GetFavouriteFilmsByUser(ctx context.Context, userID string) ([]models.Film, error)
	WatchFavouriteFilmsByUser(ctx context.Context, userID string) (<-chan []models.Film, error)
	IsFilmInFavourites(ctx context.Context, filmID, userID string) (bool, error)
	WatchIsFilmInFavourites(ctx context.Context, filmID, userID string) (<-chan bool, error)
}

// LocalUsers локальные копии пользователей.
type LocalUsers interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session маркер сессии.
type Session interface {
	GetUserEmail() (string, bool)
}

// Service держатель состояния избранного.
type Service struct {
	log     *slog.Logger
	online  OnlineFilms
	local   LocalFilms
	users   LocalUsers
	session Session
	events  events.Publisher

	// Favourites текущий список избранного.
	Favourites *viewstate.Holder[[]models.Film]
}

// New создаёт сервис избранного.
func New(log *slog.Logger, online OnlineFilms, local LocalFilms, users LocalUsers, session Session, publisher events.Publisher) *Service {
	return &Service{
		log:        log,
		online:     online,
		local:      local,
		users:      users,
		session:    session,
		events:     publisher,
		Favourites: viewstate.NewHolder[[]models.Film](),
	}
}

type favouriteEvent struct {
	UserEmail string `json:"user_email"`
	FilmID    string `json:"film_id"`
}

// currentUser возвращает локальную запись пользователя активной сессии.
func (s *Service) currentUser(ctx context.Context) (*models.User, error) {
	email, ok := s.session.GetUserEmail()
	if !ok {
		return nil, models.ErrNoSession
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("local user %s: %w", email, err)
	}
	return user, nil
}

// GetFavFilms публикует текущий список избранного.
func (s *Service) GetFavFilms(ctx context.Context) viewstate.State[[]models.Film] {
	const op = "favourites.GetFavFilms"

	s.Favourites.Set(viewstate.NewLoading[[]models.Film]())

	user, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(op, err)
	}
	films, err := s.local.GetFavouriteFilmsByUser(ctx, user.ID)
	if err != nil {
		return s.fail(op, err)
	}
	state := viewstate.NewSuccess(films)
	s.Favourites.Set(state)
	return state
}

// WatchFavFilms возвращает живую последовательность списков избранного из локального хранилища.
// Каждый новый список также публикуется в Favourites.
func (s *Service) WatchFavFilms(ctx context.Context) (<-chan []models.Film, error) {
	const op = "favourites.WatchFavFilms"

	user, err := s.currentUser(ctx)
	if err != nil {
		s.fail(op, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	src, err := s.local.WatchFavouriteFilmsByUser(ctx, user.ID)
	if err != nil {
		s.fail(op, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan []models.Film)
	go func() {
		defer close(out)
		for films := range src {
			s.Favourites.Set(viewstate.NewSuccess(films))
			select {
			case out <- films:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// AddFilmToFavourites добавляет фильм в избранное текущего пользователя.
func (s *Service) AddFilmToFavourites(ctx context.Context, filmID string) error {
	const op = "favourites.AddFilmToFavourites"
	log := s.log.With(sl.Op(op), slog.String("film_id", filmID))

	user, err := s.currentUser(ctx)
	if err != nil {
		s.fail(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.ensureCached(ctx, filmID); err != nil {
		s.fail(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.local.AddToFavourites(ctx, user.ID, filmID); err != nil {
		s.fail(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("film added to favourites")

	s.publish(ctx, events.FavouriteAdded, favouriteEvent{UserEmail: user.Email, FilmID: filmID})
	s.GetFavFilms(ctx)
	return nil
}

// RemoveFilmFromFavourites удаляет фильм из избранного; фильм остаётся в кэше.
func (s *Service) RemoveFilmFromFavourites(ctx context.Context, filmID string) error {
	const op = "favourites.RemoveFilmFromFavourites"

	user, err := s.currentUser(ctx)
	if err != nil {
		s.fail(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.local.DeleteFromFavourites(ctx, user.ID, filmID); err != nil {
		s.fail(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("film removed from favourites", sl.Op(op), slog.String("film_id", filmID))

	s.publish(ctx, events.FavouriteRemoved, favouriteEvent{UserEmail: user.Email, FilmID: filmID})
	s.GetFavFilms(ctx)
	return nil
}

// IsFilmInFavs проверяет, есть ли фильм в избранном текущего пользователя.
func (s *Service) IsFilmInFavs(ctx context.Context, filmID string) (bool, error) {
	const op = "favourites.IsFilmInFavs"

	user, err := s.currentUser(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	in, err := s.local.IsFilmInFavourites(ctx, filmID, user.ID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return in, nil
}

// WatchIsFilmInFavs живая последовательность признака "фильм в избранном".
func (s *Service) WatchIsFilmInFavs(ctx context.Context, filmID string) (<-chan bool, error) {
	const op = "favourites.WatchIsFilmInFavs"

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := s.local.WatchIsFilmInFavourites(ctx, filmID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

// Close закрывает держатель состояния.
func (s *Service) Close() {
	s.Favourites.Close()
}

func (s *Service) ensureCached(ctx context.Context, filmID string) error {
	exists, err := s.local.IsFilmInDatabase(ctx, filmID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	film, err := s.online.GetFilmByID(ctx, filmID)
	if err != nil {
		return err
	}
	if _, err = s.local.InsertFilm(ctx, *film); err != nil {
		return err
	}
	metrics.FilmsCached.Inc()
	return nil
}

func (s *Service) fail(op string, err error) viewstate.State[[]models.Film] {
	s.log.Error("favourites action failed", sl.Op(op), sl.Err(err), sl.Category(err))
	metrics.ObserveStateError("favourites", err)
	state := viewstate.NewError[[]models.Film](fmt.Errorf("%s: %w", op, err))
	s.Favourites.Set(state)
	return state
}

func (s *Service) publish(ctx context.Context, key string, payload any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", key), sl.Err(err))
	}
}
