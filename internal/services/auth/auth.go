// Package auth содержит вход, регистрацию и выход пользователя.
//
// Вход сверяет хэш введённого пароля с хэшем из удалённого хранилища, синхронизирует
// локальную копию пользователя и записывает маркер сессии. Наличие маркера считается
// активной сессией без обращения к сети; срок действия у маркера нет.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/jwt"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/password"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// Сообщения об ошибках входа и регистрации.
const (
	MsgEmailFieldEmpty    = "Email field is empty"
	MsgPasswordFieldEmpty = "Password field is empty"
	MsgInvalidCredentials = "Invalid credentials"
	MsgErrorOccurred      = "An error occurred: "

	MsgNameEmpty          = "Name is empty"
	MsgEmailEmpty         = "Email is empty"
	MsgPasswordEmpty      = "Password is empty"
	MsgPasswordsMismatch  = "Passwords do not match"
	MsgRegistrationFailed = "Registration failed"
)

// OnlineUsers пользователи удалённого хранилища.
type OnlineUsers interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) error
}

// LocalUsers локальные копии пользователей.
type LocalUsers interface {
	InsertUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserRole(ctx context.Context, email, role string) error
}

// Session маркер сессии.
type Session interface {
	SaveUserEmail(email string) error
	GetUserEmail() (string, bool)
	Clear() error
}

// Service вход, регистрация и выход.
type Service struct {
	log      *slog.Logger
	online   OnlineUsers
	local    LocalUsers
	session  Session
	hasher   password.Hasher
	jwtMaker jwt.Maker
	events   events.Publisher
	now      func() time.Time

	mu       sync.Mutex
	login    LoginState
	register RegisterState
}

// New создаёт сервис. Начальное состояние входа NotChecked.
func New(log *slog.Logger, online OnlineUsers, local LocalUsers, session Session,
	hasher password.Hasher, jwtMaker jwt.Maker, publisher events.Publisher) *Service {
	return &Service{
		log:      log,
		online:   online,
		local:    local,
		session:  session,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		events:   publisher,
		now:      time.Now,
		login:    LoginState{Status: NotChecked},
		register: RegisterState{Status: RegisterIdle},
	}
}

// LoginState текущее состояние входа.
func (s *Service) LoginState() LoginState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

// RegisterState состояние последней регистрации.
func (s *Service) RegisterState() RegisterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register
}

func (s *Service) setLogin(state LoginState) LoginState {
	s.mu.Lock()
	s.login = state
	s.mu.Unlock()
	return state
}

func (s *Service) setRegister(state RegisterState) RegisterState {
	s.mu.Lock()
	s.register = state
	s.mu.Unlock()
	return state
}

// ActiveUser возвращает пользователя, названного маркером сессии устройства, с ролью из локального кэша.
// Без маркера возвращает models.ErrNoSession. Пользователь без локальной копии получает роль User.
func (s *Service) ActiveUser(ctx context.Context) (*models.User, error) {
	const op = "auth.ActiveUser"

	email, ok := s.session.GetUserEmail()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoSession)
	}

	local, err := s.local.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return &models.User{Email: email, Role: models.RoleUser}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return local, nil
}

// CheckIfLoggedIn переводит в Authenticated, если маркер сессии есть, иначе в Unauthenticated.
// Удалённое хранилище не опрашивается.
func (s *Service) CheckIfLoggedIn(ctx context.Context) LoginState {
	const op = "auth.CheckIfLoggedIn"

	user, err := s.ActiveUser(ctx)
	if errors.Is(err, models.ErrNoSession) {
		return s.setLogin(LoginState{Status: Unauthenticated})
	}
	if err != nil {
		email, _ := s.session.GetUserEmail()
		s.log.Warn("failed to read local user for session", sl.Op(op), sl.Err(err))
		user = &models.User{Email: email, Role: models.RoleUser}
	}

	token, err := s.jwtMaker.GenerateToken(user.Email, user.Role, user.ID)
	if err != nil {
		s.log.Error("failed to issue token", sl.Op(op), sl.Err(err))
		return s.setLogin(failedWith(err))
	}
	return s.setLogin(LoginState{Status: Authenticated, User: user, Token: token})
}

// Login проверяет учётные данные и при успехе сохраняет маркер сессии.
func (s *Service) Login(ctx context.Context, email, rawPassword string) LoginState {
	const op = "auth.Login"
	log := s.log.With(sl.Op(op), slog.String("email", email))

	switch {
	case email == "":
		return s.setLogin(failed(MsgEmailFieldEmpty))
	case rawPassword == "":
		return s.setLogin(failed(MsgPasswordFieldEmpty))
	}

	remote, err := s.online.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		log.Info("login for unknown email")
		return s.setLogin(failed(MsgInvalidCredentials))
	}
	if err != nil {
		log.Error("failed to read remote user", sl.Err(err))
		return s.setLogin(failedWith(err))
	}

	if err = s.hasher.CompareHash(remote.Password, rawPassword); err != nil {
		log.Info("password mismatch")
		return s.setLogin(failed(MsgInvalidCredentials))
	}

	user, err := s.syncLocalUser(ctx, *remote)
	if err != nil {
		log.Error("failed to sync local user", sl.Err(err))
		return s.setLogin(failedWith(err))
	}

	if err = s.session.SaveUserEmail(email); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return s.setLogin(failedWith(err))
	}

	token, err := s.jwtMaker.GenerateToken(user.Email, user.Role, user.ID)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return s.setLogin(failedWith(err))
	}

	log.Info("user logged in", slog.String("role", user.Role))
	return s.setLogin(LoginState{Status: Authenticated, User: &user, Token: token})
}

// syncLocalUser добавляет пользователя локально, если его нет, или исправляет роль,
// если она разошлась с удалённой. Возвращает локальную запись.
func (s *Service) syncLocalUser(ctx context.Context, remote models.User) (models.User, error) {
	// документ без роли принадлежит обычному пользователю
	if remote.Role == "" {
		remote.Role = models.RoleUser
	}
	local, err := s.local.GetUserByEmail(ctx, remote.Email)
	if errors.Is(err, models.ErrNotFound) {
		if err = s.local.InsertUser(ctx, remote); err != nil {
			return models.User{}, err
		}
		return remote, nil
	}
	if err != nil {
		return models.User{}, err
	}
	if local.Role != remote.Role {
		if err = s.local.UpdateUserRole(ctx, remote.Email, remote.Role); err != nil {
			return models.User{}, err
		}
		local.Role = remote.Role
	}
	return *local, nil
}

// Logout удаляет маркер сессии.
func (s *Service) Logout(_ context.Context) LoginState {
	const op = "auth.Logout"
	if err := s.session.Clear(); err != nil {
		s.log.Error("failed to clear session", sl.Op(op), sl.Err(err))
		return s.setLogin(failedWith(err))
	}
	return s.setLogin(LoginState{Status: Unauthenticated})
}

// RegisterInput данные формы регистрации.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type registeredEvent struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Register создаёт пользователя в удалённом хранилище и его локальную копию.
func (s *Service) Register(ctx context.Context, in RegisterInput) RegisterState {
	const op = "auth.Register"
	log := s.log.With(sl.Op(op), slog.String("email", in.Email))

	switch {
	case strings.TrimSpace(in.Name) == "":
		return s.setRegister(registerFailed(MsgNameEmpty))
	case strings.TrimSpace(in.Email) == "":
		return s.setRegister(registerFailed(MsgEmailEmpty))
	case in.Password == "":
		return s.setRegister(registerFailed(MsgPasswordEmpty))
	case in.Password != in.ConfirmPassword:
		return s.setRegister(registerFailed(MsgPasswordsMismatch))
	}

	_, err := s.online.GetUserByEmail(ctx, in.Email)
	if err == nil {
		log.Info("email already registered")
		return s.setRegister(registerFailed(MsgRegistrationFailed))
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.Error("failed to check remote user", sl.Err(err))
		return s.setRegister(registerFailedWith(err))
	}

	hash, err := s.hasher.GetHash(in.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return s.setRegister(registerFailedWith(err))
	}
	user := models.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Password:  hash,
		Name:      in.Name,
		Role:      models.RoleUser,
		CreatedAt: models.FormatCreatedAt(s.now()),
	}

	if err = s.online.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			log.Info("email registered concurrently")
			return s.setRegister(registerFailed(MsgRegistrationFailed))
		}
		log.Error("failed to create remote user", sl.Err(err))
		return s.setRegister(registerFailedWith(err))
	}
	if err = s.local.InsertUser(ctx, user); err != nil {
		// удалённая запись уже создана, локальная появится при входе
		log.Warn("failed to cache registered user", sl.Err(err))
	}

	if err = s.events.Publish(ctx, events.UserRegistered, registeredEvent{
		Email: user.Email, Name: user.Name, CreatedAt: user.CreatedAt,
	}); err != nil {
		log.Warn("failed to publish event", slog.String("routing_key", events.UserRegistered), sl.Err(err))
	}

	log.Info("user registered")
	return s.setRegister(RegisterState{Status: Registered, User: &user})
}
