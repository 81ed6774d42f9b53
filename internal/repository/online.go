package repository

import (
	"context"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// FilmAPI источник фильмов для NetworkFilmsRepository.
type FilmAPI interface {
	GetFilms(ctx context.Context) ([]models.Film, error)
	GetFilmByID(ctx context.Context, id string) (*models.Film, error)
}

// NetworkFilmsRepository читает каталог из API фильмов.
type NetworkFilmsRepository struct {
	api FilmAPI
}

// NewNetworkFilmsRepository создаёт репозиторий поверх клиента API.
func NewNetworkFilmsRepository(api FilmAPI) *NetworkFilmsRepository {
	return &NetworkFilmsRepository{api: api}
}

// GetFilms возвращает каталог фильмов.
func (r *NetworkFilmsRepository) GetFilms(ctx context.Context) ([]models.Film, error) {
	return r.api.GetFilms(ctx)
}

// GetFilmByID возвращает фильм по id.
func (r *NetworkFilmsRepository) GetFilmByID(ctx context.Context, id string) (*models.Film, error) {
	return r.api.GetFilmByID(ctx, id)
}

// UserDocuments коллекция пользователей документного хранилища.
type UserDocuments interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserRole(ctx context.Context, email string) (string, error)
	CreateUser(ctx context.Context, user models.User) error
}

// DocumentUsersRepository пользователи из документного хранилища.
type DocumentUsersRepository struct {
	docs UserDocuments
}

// NewDocumentUsersRepository создаёт репозиторий пользователей.
func NewDocumentUsersRepository(docs UserDocuments) *DocumentUsersRepository {
	return &DocumentUsersRepository{docs: docs}
}

func (r *DocumentUsersRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.docs.GetUserByEmail(ctx, email)
}

func (r *DocumentUsersRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	return r.docs.ListUsers(ctx)
}

func (r *DocumentUsersRepository) GetUserRole(ctx context.Context, email string) (string, error) {
	return r.docs.GetUserRole(ctx, email)
}

func (r *DocumentUsersRepository) CreateUser(ctx context.Context, user models.User) error {
	return r.docs.CreateUser(ctx, user)
}

// ReviewDocuments коллекция отзывов документного хранилища.
type ReviewDocuments interface {
	ListReviewsByFilm(ctx context.Context, filmID string) ([]models.Review, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
	ListReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	FindReview(ctx context.Context, filmID, author string) (*models.Review, error)
	PutReview(ctx context.Context, review models.Review) error
	UpdateReview(ctx context.Context, review models.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// DocumentReviewsRepository отзывы из документного хранилища.
type DocumentReviewsRepository struct {
	docs ReviewDocuments
}

// NewDocumentReviewsRepository создаёт репозиторий отзывов.
func NewDocumentReviewsRepository(docs ReviewDocuments) *DocumentReviewsRepository {
	return &DocumentReviewsRepository{docs: docs}
}

func (r *DocumentReviewsRepository) GetReviewsForFilm(ctx context.Context, filmID string) ([]models.Review, error) {
	return r.docs.ListReviewsByFilm(ctx, filmID)
}

func (r *DocumentReviewsRepository) GetReviewsForAllFilms(ctx context.Context) ([]models.Review, error) {
	return r.docs.ListReviews(ctx)
}

func (r *DocumentReviewsRepository) GetReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error) {
	return r.docs.ListReviewsByAuthor(ctx, email)
}

func (r *DocumentReviewsRepository) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	return r.docs.GetReview(ctx, id)
}

// GetReviewAndAuthorForFilm возвращает первый отзыв автора к фильму.
func (r *DocumentReviewsRepository) GetReviewAndAuthorForFilm(ctx context.Context, filmID, author string) (*models.Review, error) {
	return r.docs.FindReview(ctx, filmID, author)
}

// AddReview создаёт или перезаписывает отзыв по id.
func (r *DocumentReviewsRepository) AddReview(ctx context.Context, review models.Review) error {
	return r.docs.PutReview(ctx, review)
}

// EditReview обновляет только существующий отзыв.
func (r *DocumentReviewsRepository) EditReview(ctx context.Context, review models.Review) error {
	return r.docs.UpdateReview(ctx, review)
}

func (r *DocumentReviewsRepository) DeleteReview(ctx context.Context, id string) error {
	return r.docs.DeleteReview(ctx, id)
}
