// Package docstore реализует удалённое документное хранилище пользователей и отзывов поверх Redis.
//
// Каждый документ хранится JSON-строкой под ключом "<коллекция>:<ключ>":
//
//	users:<email>   пользователь, ключ документа совпадает с email
//	reviews:<id>    отзыв, id генерируется клиентом
//
// Фильтры по равенству поддерживаются множествами-индексами:
//
//	users                   все email
//	reviews                 все id отзывов
//	reviews:film:<filmId>   отзывы к фильму
//	reviews:author:<email>  отзывы автора
//
// Побеждает последняя запись, пагинации нет.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/ghibli-explorer/internal/config"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

const (
	usersCollection   = "users"
	reviewsCollection = "reviews"
)

// Store клиент документного хранилища.
type Store struct {
	Db  *redis.Client
	log *slog.Logger
}

// New подключается к Redis и проверяет соединение.
func New(ctx context.Context, cfg config.RedisConnection, log *slog.Logger) (*Store, error) {
	const op = "docstore.New"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrNetwork, err)
	}
	return &Store{Db: db, log: log}, nil
}

// Close закрывает соединение.
func (s *Store) Close() error {
	return s.Db.Close()
}

// Ping проверяет доступность хранилища.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.Db.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("docstore.Ping: %w: %w", models.ErrNetwork, err)
	}
	return nil
}

func userKey(email string) string { return usersCollection + ":" + email }

func reviewKey(id string) string { return reviewsCollection + ":" + id }

func filmIndexKey(filmID string) string { return reviewsCollection + ":film:" + filmID }

func authorIndexKey(email string) string { return reviewsCollection + ":author:" + email }

// remoteErr переводит ошибку Redis в категорию models.
func remoteErr(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrNetwork, err)
}

func decode[T any](op, raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("%s: %w: %w", op, models.ErrMalformedResponse, err)
	}
	return v, nil
}
