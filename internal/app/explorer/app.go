package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/ghibli-explorer/docs"
	"github.com/magabrotheeeer/ghibli-explorer/internal/config"
	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/filmapi"
	"github.com/magabrotheeeer/ghibli-explorer/internal/http/handlers/health"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/jwt"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/password"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/migrations"
	"github.com/magabrotheeeer/ghibli-explorer/internal/repository"
	authservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/auth"
	favservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/favourites"
	filmservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/films"
	reviewservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/reviews"
	userservice "github.com/magabrotheeeer/ghibli-explorer/internal/services/users"
	"github.com/magabrotheeeer/ghibli-explorer/internal/session"
	"github.com/magabrotheeeer/ghibli-explorer/internal/storage/docstore"
	"github.com/magabrotheeeer/ghibli-explorer/internal/storage/sqlstore"
)

const shutdownTimeout = 15 * time.Second

type closer interface {
	Close() error
}

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *sqlstore.Storage
	docStore *docstore.Store
	events   events.Publisher
	services Services
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "explorer.New"

	db, err := sqlstore.New(ctx, cfg.Storage.ConnectionString, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(cfg.Storage.ConnectionString, cfg.MigrationsPath, cfg.Storage.DestructiveFallback(), logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docStore, err := docstore.New(ctx, cfg.RedisConnection, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	api, err := filmapi.New(cfg.FilmAPI.BaseURL, cfg.FilmAPI.Timeout, logger)
	if err != nil {
		_ = docStore.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hasher, err := password.New(cfg.Algorithm)
	if err != nil {
		_ = docStore.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publisher := newPublisher(cfg.RabbitMQ, logger)

	onlineFilms := repository.NewNetworkFilmsRepository(api)
	onlineUsers := repository.NewDocumentUsersRepository(docStore)
	onlineReviews := repository.NewDocumentReviewsRepository(docStore)
	localFilms := repository.NewLocalFilmsRepository(db)
	localUsers := repository.NewLocalUsersRepository(db)
	marker := session.New(cfg.Settings.Path)
	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	services := Services{
		Auth:       authservice.New(logger, onlineUsers, localUsers, marker, hasher, tokens, publisher),
		Films:      filmservice.New(logger, onlineFilms, localFilms, localUsers, marker),
		Favourites: favservice.New(logger, onlineFilms, localFilms, localUsers, marker, publisher),
		Reviews:    reviewservice.New(logger, onlineReviews, publisher),
		Users:      userservice.New(logger, onlineUsers, localUsers),
	}

	docs.SwaggerInfo.Host = cfg.SwaggerHost

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, services, tokens, services.Auth, map[string]health.Check{
		"postgres": db.CheckDatabaseReady,
		"redis":    docStore.Ping,
	})

	srv := &http.Server{
		Addr:        cfg.AddressHTTP,
		Handler:     router,
		ReadTimeout: cfg.TimeoutHTTP,
		IdleTimeout: cfg.IdleTimeout,
	}

	// первая проверка сессии, чтобы состояние входа не оставалось NotChecked
	services.Auth.CheckIfLoggedIn(ctx)

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		docStore: docStore,
		events:   publisher,
		services: services,
	}, nil
}

// newPublisher возвращает AMQP-публикатор, если он включён и брокер доступен, иначе Noop.
func newPublisher(cfg config.RabbitMQ, logger *slog.Logger) events.Publisher {
	if !cfg.Enabled {
		return events.Noop{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		logger.Warn("event publishing disabled", sl.Err(err))
		return events.Noop{}
	}
	return publisher
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

// close закрывает держатели состояния, затем хранилища.
func (a *App) close() {
	a.services.Films.Close()
	a.services.Favourites.Close()
	a.services.Reviews.Close()
	a.services.Users.Close()

	if c, ok := a.events.(closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", sl.Err(err))
		}
	}
	if err := a.docStore.Close(); err != nil {
		a.logger.Warn("failed to close document store", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
