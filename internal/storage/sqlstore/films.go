package sqlstore

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

const filmColumns = `id, title, original_title, original_title_romanised, release_date,
	running_time, image, description, director, producer`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilm(row rowScanner) (models.Film, error) {
	var f models.Film
	var runningTime int
	err := row.Scan(&f.ID, &f.Title, &f.OriginalTitle, &f.OriginalTitleRomanised, &f.ReleaseDate,
		&runningTime, &f.ImageLink, &f.Description, &f.Director, &f.Producer)
	f.RunningTime = models.Minutes(runningTime)
	return f, err
}

// InsertFilm добавляет фильм, если записи с таким id ещё нет.
// Возвращает true, если строка была вставлена.
func (s *Storage) InsertFilm(ctx context.Context, film models.Film) (bool, error) {
	const op = "storage.InsertFilm"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO films (` + filmColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		film.ID, film.Title, film.OriginalTitle, film.OriginalTitleRomanised, film.ReleaseDate,
		int(film.RunningTime), film.ImageLink, film.Description, film.Director, film.Producer,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.changes.notify()
	}
	return n > 0, nil
}

// IsFilmInDatabase проверяет наличие фильма в кэше.
func (s *Storage) IsFilmInDatabase(ctx context.Context, filmID string) (bool, error) {
	const op = "storage.IsFilmInDatabase"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM films WHERE id = $1)`, filmID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GetFilm возвращает фильм из кэша.
func (s *Storage) GetFilm(ctx context.Context, filmID string) (*models.Film, error) {
	const op = "storage.GetFilm"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+filmColumns+` FROM films WHERE id = $1`, filmID)
	f, err := scanFilm(row)
	if err != nil {
		return nil, notFoundIfNoRows(op, err)
	}
	return &f, nil
}

// ListFilms возвращает все закэшированные фильмы, отсортированные по названию.
func (s *Storage) ListFilms(ctx context.Context) ([]models.Film, error) {
	const op = "storage.ListFilms"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+filmColumns+` FROM films ORDER BY title ASC`)
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

// DeleteFilm удаляет фильм; связанные записи избранного удаляются каскадно.
func (s *Storage) DeleteFilm(ctx context.Context, filmID string) error {
	const op = "storage.DeleteFilm"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM films WHERE id = $1`, filmID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changes.notify()
	return nil
}
