// Package films синхронизирует каталог фильмов: читает его из сети, докладывает
// отсутствующие фильмы в локальный кэш и публикует результат через viewstate.Holder.
package films

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/metrics"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// OnlineFilms сетевой источник фильмов.
type OnlineFilms interface {
	GetFilms(ctx context.Context) ([]models.Film, error)
	GetFilmByID(ctx context.Context, id string) (*models.Film, error)
}

// FilmCache локальный кэш фильмов.
type FilmCache interface {
	IsFilmInDatabase(ctx context.Context, filmID string) (bool, error)
	InsertFilm(ctx context.Context, film models.Film) (bool, error)
}

// LocalUsers локальные копии пользователей.
type LocalUsers interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session маркер сессии.
type Session interface {
	GetUserEmail() (string, bool)
}

// Service держатель состояния списка фильмов.
type Service struct {
	log     *slog.Logger
	online  OnlineFilms
	cache   FilmCache
	users   LocalUsers
	session Session

	// Films последний результат GetFilms.
	Films *viewstate.Holder[[]models.Film]

	mu       sync.Mutex
	selected *models.Film
}

// New создаёт сервис фильмов.
func New(log *slog.Logger, online OnlineFilms, cache FilmCache, users LocalUsers, session Session) *Service {
	return &Service{
		log:     log,
		online:  online,
		cache:   cache,
		users:   users,
		session: session,
		Films:   viewstate.NewHolder[[]models.Film](),
	}
}

// GetFilms загружает каталог. Требует активную сессию и локальную запись пользователя.
// Фильмы, которых нет в кэше, добавляются в него; ошибки кэша не влияют на результат.
func (s *Service) GetFilms(ctx context.Context) viewstate.State[[]models.Film] {
	const op = "films.GetFilms"
	log := s.log.With(sl.Op(op))

	s.Films.Set(viewstate.NewLoading[[]models.Film]())

	films, err := s.loadFilms(ctx, log)
	if err != nil {
		log.Error("failed to load films", sl.Err(err), sl.Category(err))
		metrics.ObserveStateError("films", err)
		state := viewstate.NewError[[]models.Film](fmt.Errorf("%s: %w", op, err))
		s.Films.Set(state)
		return state
	}

	state := viewstate.NewSuccess(films)
	s.Films.Set(state)
	return state
}

func (s *Service) loadFilms(ctx context.Context, log *slog.Logger) ([]models.Film, error) {
	email, ok := s.session.GetUserEmail()
	if !ok {
		return nil, models.ErrNoSession
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("local user %s: %w", email, err)
	}

	films, err := s.online.GetFilms(ctx)
	if err != nil {
		return nil, err
	}
	if len(films) == 0 {
		return nil, models.ErrEmptyCatalogue
	}

	for _, film := range films {
		s.cacheFilm(ctx, log, film)
	}
	return films, nil
}

func (s *Service) cacheFilm(ctx context.Context, log *slog.Logger, film models.Film) {
	exists, err := s.cache.IsFilmInDatabase(ctx, film.ID)
	if err != nil {
		log.Warn("failed to check film cache", slog.String("film_id", film.ID), sl.Err(err))
		return
	}
	if exists {
		return
	}
	inserted, err := s.cache.InsertFilm(ctx, film)
	if err != nil {
		log.Warn("failed to cache film", slog.String("film_id", film.ID), sl.Err(err))
		return
	}
	if inserted {
		metrics.FilmsCached.Inc()
		log.Debug("film cached", slog.String("film_id", film.ID))
	}
}

// GetFilmByID загружает фильм из сети и делает его выбранным. При ошибке выбранный фильм сбрасывается.
func (s *Service) GetFilmByID(ctx context.Context, id string) (*models.Film, error) {
	const op = "films.GetFilmByID"

	film, err := s.online.GetFilmByID(ctx, id)

	s.mu.Lock()
	s.selected = film
	if err != nil {
		s.selected = nil
	}
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("failed to load film", sl.Op(op), slog.String("film_id", id), sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return film, nil
}

// SelectedFilm последний фильм, загруженный GetFilmByID.
func (s *Service) SelectedFilm() *models.Film {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// GetFilmObjectByID ищет фильм в последнем успешно загруженном списке.
func (s *Service) GetFilmObjectByID(id string) (*models.Film, bool) {
	state := s.Films.Current()
	if state.Kind != viewstate.Success {
		return nil, false
	}
	for i := range state.Data {
		if state.Data[i].ID == id {
			film := state.Data[i]
			return &film, true
		}
	}
	return nil, false
}

// Close закрывает держатель состояния.
func (s *Service) Close() {
	s.Films.Close()
}
