// Package explorer собирает приложение: хранилища, сервисы и маршруты локального API.
package explorer

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/ghibli-explorer/internal/config"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/admin"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/favourites"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/films"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/health"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/reviews"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/auth"
	favservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/favourites"
	filmservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/films"
	reviewservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/reviews"
	userservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/users"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth       *authservice.Service
	Films      *filmservice.Service
	Favourites *favservice.Service
	Reviews    *reviewservice.Service
	Users      *userservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
// Токен принимается только вместе с активной сессией sessions.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, svc Services,
	tokens middlewarectx.TokenParser, sessions middlewarectx.SessionResolver, checks map[string]health.Check) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
	)

	filmsHandler := films.New(logger, svc.Films)
	reviewsHandler := reviews.New(logger, svc.Reviews, svc.Films)
	favHandler := favourites.New(logger, svc.Favourites, cfg.StreamPeriod)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

		// Открытые конечные точки
		r.Get("/session", session.New(logger, svc.Auth).ServeHTTP)
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Post("/logout", logout.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, sessions, logger))

			r.Get("/films", filmsHandler.List)
			r.Get("/films/{id}", filmsHandler.Get)
			r.Get("/films/{id}/reviews", reviewsHandler.ForFilm)
			r.Get("/films/{id}/reviews/mine", reviewsHandler.MineForFilm)
			r.Post("/films/{id}/reviews", reviewsHandler.Create)

			r.Get("/reviews/mine", reviewsHandler.Mine)
			r.Put("/reviews/{id}", reviewsHandler.Update)
			r.Delete("/reviews/{id}", reviewsHandler.Delete)

			r.Get("/favourites", favHandler.List)
			r.Get("/favourites/stream", favHandler.Stream)
			r.Get("/favourites/{filmId}", favHandler.Get)
			r.Post("/favourites/{filmId}", favHandler.Add)
			r.Delete("/favourites/{filmId}", favHandler.Remove)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Get("/users", admin.NewUsers(logger, svc.Users).ServeHTTP)
				r.Get("/reviews", reviewsHandler.All)
				r.Get("/films/{id}/reviews", reviewsHandler.ForFilm)
				r.Delete("/reviews/{id}", reviewsHandler.Delete)
			})
		})
	})

	r.Get("/health", health.New(logger, checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
