// Package users синхронизирует список пользователей удалённого хранилища с локальным кэшем.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/metrics"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

// OnlineUsers пользователи удалённого хранилища.
type OnlineUsers interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserRole(ctx context.Context, email string) (string, error)
}

// LocalUsers локальные копии пользователей.
type LocalUsers interface {
	InsertUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

// Service держатель списка пользователей.
type Service struct {
	log    *slog.Logger
	remote OnlineUsers
	local  LocalUsers

	// Users последний загруженный список.
	Users *viewstate.Holder[[]models.User]
}

// New создаёт сервис пользователей.
func New(log *slog.Logger, remote OnlineUsers, local LocalUsers) *Service {
	return &Service{
		log:    log,
		remote: remote,
		local:  local,
		Users:  viewstate.NewHolder[[]models.User](),
	}
}

// FetchUsers загружает удалённый список и записывает каждого пользователя в локальный кэш:
// отсутствующих вставляет, существующих обновляет с сохранением локального id.
// Ошибки кэша логируются и не мешают публикации списка.
func (s *Service) FetchUsers(ctx context.Context) viewstate.State[[]models.User] {
	const op = "users.FetchUsers"
	log := s.log.With(sl.Op(op))

	s.Users.Set(viewstate.NewLoading[[]models.User]())

	list, err := s.remote.GetUsers(ctx)
	if err != nil {
		log.Error("failed to fetch users", sl.Err(err), sl.Category(err))
		metrics.ObserveStateError("users", err)
		state := viewstate.NewError[[]models.User](fmt.Errorf("%s: %w", op, err))
		s.Users.Set(state)
		return state
	}
	if list == nil {
		list = []models.User{}
	}

	for _, user := range list {
		action, err := s.sync(ctx, user)
		if err != nil {
			log.Warn("failed to sync local user", slog.String("email", user.Email), sl.Err(err))
			metrics.UsersSynced.WithLabelValues("failed").Inc()
			continue
		}
		metrics.UsersSynced.WithLabelValues(action).Inc()
	}

	log.Info("users fetched", slog.Int("count", len(list)))
	state := viewstate.NewSuccess(list)
	s.Users.Set(state)
	return state
}

func (s *Service) sync(ctx context.Context, user models.User) (string, error) {
	existing, err := s.local.GetUserByEmail(ctx, user.Email)
	if errors.Is(err, models.ErrNotFound) {
		return "inserted", s.local.InsertUser(ctx, user)
	}
	if err != nil {
		return "", err
	}
	user.ID = existing.ID
	return "updated", s.local.UpdateUser(ctx, user)
}

// GetUserRole возвращает роль пользователя из удалённого хранилища.
func (s *Service) GetUserRole(ctx context.Context, email string) (string, error) {
	const op = "users.GetUserRole"
	role, err := s.remote.GetUserRole(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return role, nil
}

// Close закрывает держатель состояния.
func (s *Service) Close() {
	s.Users.Close()
}
