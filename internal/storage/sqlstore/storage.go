// Package sqlstore реализует локальное реляционное хранилище на основе PostgreSQL:
// кэш фильмов, локальные копии пользователей и избранное.
//
// Хранилище используется как write-behind кэш: записи добавляются, если их ещё нет,
// а списки избранного можно наблюдать через каналы, которые перечитываются
// после каждого изменения таблиц films и favourite_films.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// Коды ошибок PostgreSQL.
const (
	foreignKeyViolation = "23503"
)

// Storage инкапсулирует соединение с базой данных.
type Storage struct {
	DB      *sql.DB
	log     *slog.Logger
	changes *notifier
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(ctx context.Context, storageConnectionString string, log *slog.Logger) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(db, log), nil
}

// NewWithDB оборачивает уже открытое соединение.
func NewWithDB(db *sql.DB, log *slog.Logger) *Storage {
	return &Storage{
		DB:      db,
		log:     log,
		changes: newNotifier(),
	}
}

// Close закрывает соединение и завершает все каналы наблюдения.
func (s *Storage) Close() error {
	s.changes.close()
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что схема создана.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	const op = "storage.CheckDatabaseReady"
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'favourite_films'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: required table favourite_films missing", op)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func notFoundIfNoRows(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
