package models

// FavouriteFilm связь пользователя и фильма в локальном хранилище (составной ключ).
// Запись удаляется каскадно вместе с пользователем или фильмом.
type FavouriteFilm struct {
	UserID string `json:"user_id"`
	FilmID string `json:"film_id"`
}
