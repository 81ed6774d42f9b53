package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/jwt"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/password"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type OnlineUsersMock struct {
	mock.Mock
}

func (m *OnlineUsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *OnlineUsersMock) CreateUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, key string, payload any) error {
	return m.Called(ctx, key, payload).Error(0)
}

// memoryUsers локальные пользователи в памяти, ключом служит email.
type memoryUsers struct {
	users map[string]models.User
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]models.User{}}
}

func (m *memoryUsers) InsertUser(_ context.Context, user models.User) error {
	if m.err != nil {
		return m.err
	}
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) UpdateUserRole(_ context.Context, email, role string) error {
	u, ok := m.users[email]
	if !ok {
		return models.ErrNotFound
	}
	u.Role = role
	m.users[email] = u
	return nil
}

type memorySession struct {
	email   string
	saveErr error
}

func (s *memorySession) SaveUserEmail(email string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.email = email
	return nil
}

func (s *memorySession) GetUserEmail() (string, bool) {
	return s.email, s.email != ""
}

func (s *memorySession) Clear() error {
	s.email = ""
	return nil
}

type fixture struct {
	svc     *Service
	online  *OnlineUsersMock
	local   *memoryUsers
	session *memorySession
	pub     *PublisherMock
	maker   *jwt.MakerImpl
}

func setup() *fixture {
	f := &fixture{
		online:  new(OnlineUsersMock),
		local:   newMemoryUsers(),
		session: &memorySession{},
		pub:     new(PublisherMock),
		maker:   jwt.NewJWTMaker("test-secret", time.Hour),
	}
	f.svc = New(newNoopLogger(), f.online, f.local, f.session, password.SHA512{}, f.maker, f.pub)
	return f
}

func remoteUser(role string) *models.User {
	return &models.User{
		ID:       "u1",
		Email:    "chihiro@example.com",
		Password: password.SHA512Hex("haku"),
		Name:     "Chihiro",
		Role:     role,
	}
}

func TestService_InitialState(t *testing.T) {
	f := setup()
	assert.Equal(t, NotChecked, f.svc.LoginState().Status)
	assert.Equal(t, RegisterIdle, f.svc.RegisterState().Status)
}

func TestService_Login(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		remote     *models.User
		remoteErr  error
		localRole  string
		wantStatus LoginStatus
		wantReason string
	}{
		{name: "empty email", password: "haku", wantStatus: Failed, wantReason: MsgEmailFieldEmpty},
		{name: "empty password", email: "chihiro@example.com", wantStatus: Failed, wantReason: MsgPasswordFieldEmpty},
		{
			name: "unknown email", email: "chihiro@example.com", password: "haku",
			remoteErr: models.ErrNotFound, wantStatus: Failed, wantReason: MsgInvalidCredentials,
		},
		{
			name: "wrong password", email: "chihiro@example.com", password: "yubaba",
			remote: remoteUser(models.RoleUser), wantStatus: Failed, wantReason: MsgInvalidCredentials,
		},
		{
			name: "network failure", email: "chihiro@example.com", password: "haku",
			remoteErr: models.ErrNetwork, wantStatus: Failed, wantReason: MsgErrorOccurred + models.ErrNetwork.Error(),
		},
		{
			name: "first login caches user", email: "chihiro@example.com", password: "haku",
			remote: remoteUser(models.RoleAdmin), wantStatus: Authenticated,
		},
		{
			name: "role drift is corrected", email: "chihiro@example.com", password: "haku",
			remote: remoteUser(models.RoleAdmin), localRole: models.RoleUser, wantStatus: Authenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup()
			if tt.localRole != "" {
				local := *tt.remote
				local.ID = "local-id"
				local.Role = tt.localRole
				f.local.users[local.Email] = local
			}
			if tt.remote != nil || tt.remoteErr != nil {
				f.online.On("GetUserByEmail", mock.Anything, tt.email).Return(tt.remote, tt.remoteErr).Once()
			}

			state := f.svc.Login(context.Background(), tt.email, tt.password)

			assert.Equal(t, tt.wantStatus, state.Status)
			assert.Equal(t, tt.wantReason, state.Reason)
			assert.Equal(t, state, f.svc.LoginState())
			f.online.AssertExpectations(t)

			if tt.wantStatus != Authenticated {
				_, ok := f.session.GetUserEmail()
				assert.False(t, ok)
				return
			}
			email, ok := f.session.GetUserEmail()
			require.True(t, ok)
			assert.Equal(t, tt.email, email)

			local, err := f.local.GetUserByEmail(context.Background(), tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.remote.Role, local.Role)
			require.NotNil(t, state.User)
			assert.Equal(t, tt.remote.Role, state.User.Role)
			if tt.localRole != "" {
				assert.Equal(t, "local-id", local.ID)
			}

			claims, err := f.maker.ParseToken(state.Token)
			require.NoError(t, err)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.remote.Role, claims.Role)
		})
	}
}

func TestService_Login_SessionWriteFails(t *testing.T) {
	f := setup()
	f.session.saveErr = errors.New("disk full")
	f.online.On("GetUserByEmail", mock.Anything, "chihiro@example.com").Return(remoteUser(models.RoleUser), nil)

	state := f.svc.Login(context.Background(), "chihiro@example.com", "haku")

	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, MsgErrorOccurred+"disk full", state.Reason)
}

func TestService_Login_MissingRemoteRole(t *testing.T) {
	tests := []struct {
		name      string
		localRole string
	}{
		{name: "first login"},
		{name: "cached admin is demoted", localRole: models.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup()
			if tt.localRole != "" {
				local := *remoteUser(tt.localRole)
				f.local.users[local.Email] = local
			}
			f.online.On("GetUserByEmail", mock.Anything, "chihiro@example.com").Return(remoteUser(""), nil).Once()

			state := f.svc.Login(context.Background(), "chihiro@example.com", "haku")

			require.Equal(t, Authenticated, state.Status)
			assert.Equal(t, models.RoleUser, state.User.Role)

			local, err := f.local.GetUserByEmail(context.Background(), "chihiro@example.com")
			require.NoError(t, err)
			assert.Equal(t, models.RoleUser, local.Role)

			claims, err := f.maker.ParseToken(state.Token)
			require.NoError(t, err)
			assert.Equal(t, models.RoleUser, claims.Role)
		})
	}
}

func TestService_CheckIfLoggedIn(t *testing.T) {
	t.Run("no marker", func(t *testing.T) {
		f := setup()
		state := f.svc.CheckIfLoggedIn(context.Background())
		assert.Equal(t, Unauthenticated, state.Status)
		f.online.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("marker with cached user", func(t *testing.T) {
		f := setup()
		f.session.email = "chihiro@example.com"
		f.local.users["chihiro@example.com"] = *remoteUser(models.RoleAdmin)

		state := f.svc.CheckIfLoggedIn(context.Background())

		assert.Equal(t, Authenticated, state.Status)
		require.NotNil(t, state.User)
		assert.Equal(t, models.RoleAdmin, state.User.Role)
		claims, err := f.maker.ParseToken(state.Token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		f.online.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("marker without cached user", func(t *testing.T) {
		f := setup()
		f.session.email = "ghost@example.com"

		state := f.svc.CheckIfLoggedIn(context.Background())

		assert.Equal(t, Authenticated, state.Status)
		assert.Equal(t, models.RoleUser, state.User.Role)
		f.online.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestService_ActiveUser(t *testing.T) {
	t.Run("no marker", func(t *testing.T) {
		f := setup()
		_, err := f.svc.ActiveUser(context.Background())
		assert.ErrorIs(t, err, models.ErrNoSession)
	})

	t.Run("local role wins over the issued token", func(t *testing.T) {
		f := setup()
		f.session.email = "chihiro@example.com"
		f.local.users["chihiro@example.com"] = *remoteUser(models.RoleUser)

		user, err := f.svc.ActiveUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, models.RoleUser, user.Role)
	})

	t.Run("local read fails", func(t *testing.T) {
		f := setup()
		f.session.email = "chihiro@example.com"
		f.local.err = models.ErrNetwork

		_, err := f.svc.ActiveUser(context.Background())
		assert.ErrorIs(t, err, models.ErrNetwork)
	})
}

func TestService_Logout(t *testing.T) {
	f := setup()
	f.session.email = "chihiro@example.com"

	state := f.svc.Logout(context.Background())

	assert.Equal(t, Unauthenticated, state.Status)
	_, ok := f.session.GetUserEmail()
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, f.svc.CheckIfLoggedIn(context.Background()).Status)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"all empty", RegisterInput{}, MsgNameEmpty},
		{"blank name", RegisterInput{Name: "  ", Email: "a@b.c", Password: "x", ConfirmPassword: "x"}, MsgNameEmpty},
		{"empty email", RegisterInput{Name: "San", Password: "x", ConfirmPassword: "x"}, MsgEmailEmpty},
		{"empty password", RegisterInput{Name: "San", Email: "a@b.c"}, MsgPasswordEmpty},
		{"mismatch", RegisterInput{Name: "San", Email: "a@b.c", Password: "x", ConfirmPassword: "y"}, MsgPasswordsMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup()
			state := f.svc.Register(context.Background(), tt.in)
			assert.Equal(t, RegisterRejected, state.Status)
			assert.Equal(t, tt.want, state.Reason)
			f.online.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Register(t *testing.T) {
	f := setup()
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }
	in := RegisterInput{Name: "San", Email: "san@example.com", Password: "ashitaka", ConfirmPassword: "ashitaka"}

	var created models.User
	f.online.On("GetUserByEmail", mock.Anything, in.Email).Return(nil, models.ErrNotFound).Once()
	f.online.On("CreateUser", mock.Anything, mock.AnythingOfType("models.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(models.User) }).
		Return(nil).Once()
	f.pub.On("Publish", mock.Anything, events.UserRegistered, mock.Anything).Return(nil).Once()

	state := f.svc.Register(context.Background(), in)

	require.Equal(t, Registered, state.Status)
	f.online.AssertExpectations(t)
	f.pub.AssertExpectations(t)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Equal(t, password.SHA512Hex("ashitaka"), created.Password)
	assert.Equal(t, "2024-03-09 14:05:07", created.CreatedAt)

	local, err := f.local.GetUserByEmail(context.Background(), in.Email)
	require.NoError(t, err)
	assert.Equal(t, created, *local)
}

func TestService_Register_ExistingEmail(t *testing.T) {
	f := setup()
	in := RegisterInput{Name: "San", Email: "san@example.com", Password: "x", ConfirmPassword: "x"}
	f.online.On("GetUserByEmail", mock.Anything, in.Email).Return(&models.User{Email: in.Email}, nil).Once()

	state := f.svc.Register(context.Background(), in)

	assert.Equal(t, RegisterRejected, state.Status)
	assert.Equal(t, MsgRegistrationFailed, state.Reason)
	f.online.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	assert.Empty(t, f.local.users)
}

func TestService_Register_ConcurrentCreate(t *testing.T) {
	f := setup()
	in := RegisterInput{Name: "San", Email: "san@example.com", Password: "x", ConfirmPassword: "x"}
	f.online.On("GetUserByEmail", mock.Anything, in.Email).Return(nil, models.ErrNotFound).Once()
	f.online.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrAlreadyExists).Once()

	state := f.svc.Register(context.Background(), in)

	assert.Equal(t, MsgRegistrationFailed, state.Reason)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
