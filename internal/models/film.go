// Package models содержит доменные структуры приложения: фильмы, пользователи,
// избранное и отзывы, а также типизированные ошибки, общие для всех слоёв.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Film описывает фильм студии Ghibli в том виде, в котором его отдаёт публичное API.
// После получения запись не меняется, ID используется как ключ кэширования.
type Film struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title"`
	OriginalTitle          string  `json:"original_title"`
	OriginalTitleRomanised string  `json:"original_title_romanised"`
	ReleaseDate            string  `json:"release_date"`
	RunningTime            Minutes `json:"running_time"`
	ImageLink              string  `json:"image"`
	Description            string  `json:"description"`
	Director               string  `json:"director"`
	Producer               string  `json:"producer"`
}

// Minutes продолжительность фильма в минутах.
// Публичное API присылает значение строкой ("124"), поэтому декодер принимает и строку, и число.
type Minutes int

// UnmarshalJSON разбирает продолжительность из строки или числа; пустое значение даёт 0.
func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("models.Minutes: %w", err)
		}
		if s == "" {
			*m = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("models.Minutes: %w", err)
		}
		*m = Minutes(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("models.Minutes: %w", err)
	}
	*m = Minutes(n)
	return nil
}
