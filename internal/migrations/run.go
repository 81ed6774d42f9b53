// Package migrations применяет версии схемы локального хранилища из каталога migrations.
//
// Если установленная версия схемы не может быть продвинута (грязное состояние после сбоя
// или версия, которой нет среди файлов), при включённом destructive fallback все таблицы
// удаляются и схема создаётся заново. Кэш восстанавливается из удалённых источников.
//
// Каждый экземпляр migrate открывает собственный пул по строке подключения: драйвер
// закрывает переданный ему *sql.DB вместе со своим соединением.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
)

// SchemaVersion последняя версия схемы.
const SchemaVersion = 3

// Run применяет все миграции из каталога path к базе по строке подключения dsn.
func Run(dsn, path string, destructiveFallback bool, log *slog.Logger) error {
	const op = "migrations.Run"

	m, err := newMigrate(dsn, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		closeMigrate(m, log)
		return nil
	}
	if !destructiveFallback || !noMigrationPath(err) {
		closeMigrate(m, log)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Warn("schema has no migration path, recreating local store", sl.Op(op), sl.Err(err))
	err = m.Drop()
	// после Drop экземпляр migrate использовать нельзя
	closeMigrate(m, log)
	if err != nil {
		return fmt.Errorf("%s: drop: %w", op, err)
	}

	m, err = newMigrate(dsn, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeMigrate(m, log)

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Version возвращает текущую версию схемы и признак грязного состояния.
func Version(dsn, path string) (uint, bool, error) {
	const op = "migrations.Version"

	m, err := newMigrate(dsn, path)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return version, dirty, nil
}

func newMigrate(dsn, path string) (*migrate.Migrate, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+path,
		"pgx_v5",
		driver,
	)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}
	return m, nil
}

// closeMigrate закрывает источник, соединение и пул экземпляра.
func closeMigrate(m *migrate.Migrate, log *slog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Warn("failed to close migration source", sl.Err(srcErr))
	}
	if dbErr != nil {
		log.Warn("failed to close migration database", sl.Err(dbErr))
	}
}

func noMigrationPath(err error) bool {
	var dirty migrate.ErrDirty
	return errors.As(err, &dirty) || errors.Is(err, fs.ErrNotExist)
}
