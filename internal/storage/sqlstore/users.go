package sqlstore

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// InsertUser добавляет пользователя или заменяет данные пользователя с тем же email.
// Локальный id существующей записи сохраняется, чтобы не терять его избранное.
func (s *Storage) InsertUser(ctx context.Context, user models.User) error {
	const op = "storage.InsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, email, password, name, role, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (email) DO UPDATE
			  SET password = EXCLUDED.password,
				  name = EXCLUDED.name,
				  role = EXCLUDED.role,
				  created_at = EXCLUDED.created_at`
	_, err := s.DB.ExecContext(ctx, query, user.ID, user.Email, user.Password, user.Name, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает локальную копию пользователя.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password, name, role, created_at FROM users WHERE email = $1`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFoundIfNoRows(op, err)
	}
	return &u, nil
}

// UpdateUser перезаписывает поля пользователя по id.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $2, password = $3, name = $4, role = $5, created_at = $6
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, user.ID, user.Email, user.Password, user.Name, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(op, res)
}

// UpdateUserRole меняет роль пользователя с указанным email.
func (s *Storage) UpdateUserRole(ctx context.Context, email, role string) error {
	const op = "storage.UpdateUserRole"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET role = $2 WHERE email = $1`, email, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(op, res)
}

// DeleteUser удаляет пользователя; его избранное удаляется каскадно.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changes.notify()
	return nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(op string, res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
