// Package metrics объявляет метрики Prometheus приложения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

var (
	// HTTPRequests количество обработанных запросов локального API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghibli_http_requests_total",
		Help: "Запросы локального API по методу, маршруту и коду ответа.",
	}, []string{"method", "route", "status"})

	// HTTPDuration длительность обработки запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghibli_http_request_duration_seconds",
		Help:    "Длительность обработки запросов локального API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// FilmsCached фильмы, впервые добавленные в локальный кэш.
	FilmsCached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghibli_films_cached_total",
		Help: "Фильмы, добавленные в локальный кэш при синхронизации.",
	})

	// StateErrors переходы держателей состояния в Error.
	StateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghibli_state_errors_total",
		Help: "Переходы в состояние Error по держателю и категории ошибки.",
	}, []string{"holder", "category"})

	// UsersSynced локальные записи пользователей, созданные или обновлённые из удалённого хранилища.
	UsersSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghibli_users_synced_total",
		Help: "Синхронизированные локальные записи пользователей.",
	}, []string{"action"})
)

// ObserveStateError учитывает переход держателя в Error.
func ObserveStateError(holder string, err error) {
	StateErrors.WithLabelValues(holder, models.Category(err)).Inc()
}
