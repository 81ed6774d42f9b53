package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// AddToFavourites связывает пользователя и фильм. Повторное добавление игнорируется.
// Если фильма или пользователя нет в кэше, возвращается models.ErrNotFound.
func (s *Storage) AddToFavourites(ctx context.Context, userID, filmID string) error {
	const op = "storage.AddToFavourites"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO favourite_films (user_id, film_id)
			  VALUES ($1, $2)
			  ON CONFLICT (user_id, film_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userID, filmID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changes.notify()
	return nil
}

// DeleteFromFavourites удаляет связь пользователя и фильма; сами фильм и пользователь остаются.
func (s *Storage) DeleteFromFavourites(ctx context.Context, userID, filmID string) error {
	const op = "storage.DeleteFromFavourites"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM favourite_films WHERE user_id = $1 AND film_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, userID, filmID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changes.notify()
	return nil
}

// ListFavouriteFilmsByUser возвращает избранные фильмы пользователя в порядке названия.
func (s *Storage) ListFavouriteFilmsByUser(ctx context.Context, userID string) ([]models.Film, error) {
	const op = "storage.ListFavouriteFilmsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT f.id, f.title, f.original_title, f.original_title_romanised, f.release_date,
				     f.running_time, f.image, f.description, f.director, f.producer
			  FROM films f
			  INNER JOIN favourite_films ff ON ff.film_id = f.id
			  WHERE ff.user_id = $1
			  ORDER BY f.title ASC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Film, 0)
	for rows.Next() {
		f, err := scanFilm(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// IsFilmInFavourites проверяет наличие фильма в избранном пользователя.
func (s *Storage) IsFilmInFavourites(ctx context.Context, filmID, userID string) (bool, error) {
	const op = "storage.IsFilmInFavourites"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM favourite_films WHERE film_id = $1 AND user_id = $2)`
	if err := s.DB.QueryRowContext(ctx, query, filmID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// WatchFavouriteFilmsByUser возвращает канал, в который сначала приходит текущий список
// избранного, а затем новый список после каждого изменения избранного или фильмов.
// Канал закрывается при отмене ctx или закрытии хранилища.
func (s *Storage) WatchFavouriteFilmsByUser(ctx context.Context, userID string) (<-chan []models.Film, error) {
	const op = "storage.WatchFavouriteFilmsByUser"
	return watch(ctx, s, op, func(ctx context.Context) ([]models.Film, error) {
		return s.ListFavouriteFilmsByUser(ctx, userID)
	})
}

// WatchIsFilmInFavourites работает как WatchFavouriteFilmsByUser, но для одного фильма.
func (s *Storage) WatchIsFilmInFavourites(ctx context.Context, filmID, userID string) (<-chan bool, error) {
	const op = "storage.WatchIsFilmInFavourites"
	return watch(ctx, s, op, func(ctx context.Context) (bool, error) {
		return s.IsFilmInFavourites(ctx, filmID, userID)
	})
}

func watch[T any](ctx context.Context, s *Storage, op string, query func(context.Context) (T, error)) (<-chan T, error) {
	// подписка до первого запроса, чтобы не пропустить изменение между ними
	signals, unsubscribe := s.changes.subscribe()

	initial, err := query(ctx)
	if err != nil {
		unsubscribe()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan T, 1)
	out <- initial

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				value, err := query(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.log.Warn("failed to refresh watched query", sl.Op(op), sl.Err(err))
					}
					continue
				}
				select {
				case out <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.log.Debug("watch started", sl.Op(op), slog.Int("subscribers", s.changes.size()))
	return out, nil
}
