package repository

import (
	"context"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// FilmStore локальные таблицы фильмов и избранного.
type FilmStore interface {
	InsertFilm(ctx context.Context, film models.Film) (bool, error)
	IsFilmInDatabase(ctx context.Context, filmID string) (bool, error)
	ListFilms(ctx context.Context) ([]models.Film, error)
	GetFilm(ctx context.Context, filmID string) (*models.Film, error)
	AddToFavourites(ctx context.Context, userID, filmID string) error
	DeleteFromFavourites(ctx context.Context, userID, filmID string) error
	ListFavouriteFilmsByUser(ctx context.Context, userID string) ([]models.Film, error)
	WatchFavouriteFilmsByUser(ctx context.Context, userID string) (<-chan []models.Film, error)
	IsFilmInFavourites(ctx context.Context, filmID, userID string) (bool, error)
	WatchIsFilmInFavourites(ctx context.Context, filmID, userID string) (<-chan bool, error)
}

// LocalFilmsRepository фильмы и избранное из локальной БД.
type LocalFilmsRepository struct {
	store FilmStore
}

// NewLocalFilmsRepository создаёт репозиторий поверх локального хранилища.
func NewLocalFilmsRepository(store FilmStore) *LocalFilmsRepository {
	return &LocalFilmsRepository{store: store}
}

func (r *LocalFilmsRepository) InsertFilm(ctx context.Context, film models.Film) (bool, error) {
	return r.store.InsertFilm(ctx, film)
}

func (r *LocalFilmsRepository) IsFilmInDatabase(ctx context.Context, filmID string) (bool, error) {
	return r.store.IsFilmInDatabase(ctx, filmID)
}

func (r *LocalFilmsRepository) GetFilms(ctx context.Context) ([]models.Film, error) {
	return r.store.ListFilms(ctx)
}

func (r *LocalFilmsRepository) GetFilm(ctx context.Context, filmID string) (*models.Film, error) {
	return r.store.GetFilm(ctx, filmID)
}

func (r *LocalFilmsRepository) AddToFavourites(ctx context.Context, userID, filmID string) error {
	return r.store.AddToFavourites(ctx, userID, filmID)
}

func (r *LocalFilmsRepository) DeleteFromFavourites(ctx context.Context, userID, filmID string) error {
	return r.store.DeleteFromFavourites(ctx, userID, filmID)
}

func (r *LocalFilmsRepository) GetFavouriteFilmsByUser(ctx context.Context, userID string) ([]models.Film, error) {
	return r.store.ListFavouriteFilmsByUser(ctx, userID)
}

func (r *LocalFilmsRepository) WatchFavouriteFilmsByUser(ctx context.Context, userID string) (<-chan []models.Film, error) {
	return r.store.WatchFavouriteFilmsByUser(ctx, userID)
}

func (r *LocalFilmsRepository) IsFilmInFavourites(ctx context.Context, filmID, userID string) (bool, error) {
	return r.store.IsFilmInFavourites(ctx, filmID, userID)
}

func (r *LocalFilmsRepository) WatchIsFilmInFavourites(ctx context.Context, filmID, userID string) (<-chan bool, error) {
	return r.store.WatchIsFilmInFavourites(ctx, filmID, userID)
}

// UserStore локальная таблица пользователей.
type UserStore interface {
	InsertUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	UpdateUserRole(ctx context.Context, email, role string) error
}

// LocalUsersRepository пользователи из локальной БД.
type LocalUsersRepository struct {
	store UserStore
}

// NewLocalUsersRepository создаёт репозиторий пользователей.
func NewLocalUsersRepository(store UserStore) *LocalUsersRepository {
	return &LocalUsersRepository{store: store}
}

func (r *LocalUsersRepository) InsertUser(ctx context.Context, user models.User) error {
	return r.store.InsertUser(ctx, user)
}

func (r *LocalUsersRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.store.GetUserByEmail(ctx, email)
}

func (r *LocalUsersRepository) UpdateUser(ctx context.Context, user models.User) error {
	return r.store.UpdateUser(ctx, user)
}

func (r *LocalUsersRepository) UpdateUserRole(ctx context.Context, email, role string) error {
	return r.store.UpdateUserRole(ctx, email, role)
}
