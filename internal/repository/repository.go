// Package repository объявляет репозитории приложения и их реализации поверх конкретных источников.
//
// Каждая реализация работает ровно с одним источником и ничего не объединяет:
// сетевые репозитории читают API фильмов и документное хранилище, офлайн-репозитории читают локальную БД.
// Синхронизацию между ними выполняют сервисы.
package repository

import (
	"context"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// OnlineFilmsRepository доступ к каталогу фильмов в сети.
type OnlineFilmsRepository interface {
	GetFilms(ctx context.Context) ([]models.Film, error)
	GetFilmByID(ctx context.Context, id string) (*models.Film, error)
}

// OnlineUsersRepository учётные записи в удалённом хранилище.
type OnlineUsersRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserRole(ctx context.Context, email string) (string, error)
	CreateUser(ctx context.Context, user models.User) error
}

// OnlineReviewsRepository отзывы в удалённом хранилище.
type OnlineReviewsRepository interface {
	GetReviewsForFilm(ctx context.Context, filmID string) ([]models.Review, error)
	GetReviewsForAllFilms(ctx context.Context) ([]models.Review, error)
	GetReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error)
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	GetReviewAndAuthorForFilm(ctx context.Context, filmID, author string) (*models.Review, error)
	AddReview(ctx context.Context, review models.Review) error
	EditReview(ctx context.Context, review models.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// OfflineFilmsRepository локальный кэш фильмов и избранного.
type OfflineFilmsRepository interface {
	InsertFilm(ctx context.Context, film models.Film) (bool, error)
	IsFilmInDatabase(ctx context.Context, filmID string) (bool, error)
	GetFilms(ctx context.Context) ([]models.Film, error)
	GetFilm(ctx context.Context, filmID string) (*models.Film, error)
	AddToFavourites(ctx context.Context, userID, filmID string) error
	DeleteFromFavourites(ctx context.Context, userID, filmID string) error
	GetFavouriteFilmsByUser(ctx context.Context, userID string) ([]models.Film, error)
	WatchFavouriteFilmsByUser(ctx context.Context, userID string) (<-chan []models.Film, error)
	IsFilmInFavourites(ctx context.Context, filmID, userID string) (bool, error)
	WatchIsFilmInFavourites(ctx context.Context, filmID, userID string) (<-chan bool, error)
}

// OfflineUsersRepository локальные копии пользователей.
type OfflineUsersRepository interface {
	InsertUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	UpdateUserRole(ctx context.Context, email, role string) error
}
