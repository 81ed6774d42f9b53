package models

import "time"

// Review отзыв пользователя о фильме.
// Уникальность пары (FilmID, Author) поддерживается только соглашением, хранилище её не проверяет.
type Review struct {
	ID      string    `json:"id"`
	FilmID  string    `json:"film_id"`
	Author  string    `json:"author"` // email автора
	Rating  float32   `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}
