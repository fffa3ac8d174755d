package identity

import (
	"context"
	"testing"
	"time"

	"github.com/clientms/backend/internal/domain/identity"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/clientms/backend/internal/infrastructure/auth"
	"github.com/clientms/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func newTestAuthService(repo identity.UserRepository) (*AuthService, *auth.JWTService, *auth.InMemoryTokenBlacklist) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-for-auth-service",
		RefreshSecret:          "test-refresh-secret-for-auth-service",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "clientms-test",
		MaxRefreshCount:        3,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewAuthService(repo, jwtService, blacklist, zap.NewNop()), jwtService, blacklist
}

func newTestUser(t *testing.T, username, password string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, password)
	require.NoError(t, err)
	return user
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Login(t *testing.T) {
	t.Run("successful login returns token pair", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, jwtService, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil)

		result, err := service.Login(context.Background(), LoginInput{
			Username: "alice",
			Password: "correct-horse-battery",
			IP:       "203.0.113.7",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, user.ID, result.User.ID)

		claims, err := jwtService.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "203.0.113.7", user.LastLoginIP)
		repo.AssertExpectations(t)
	})

	t.Run("unknown username maps to invalid credentials", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		repo.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		_, err := service.Login(context.Background(), LoginInput{Username: "ghost", Password: "whatever1"})

		assertDomainErrorCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("wrong password records a failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil)

		_, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong-password"})

		assertDomainErrorCode(t, err, "INVALID_CREDENTIALS")
		assert.Equal(t, 1, user.FailedAttempts)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		user.FailedAttempts = identity.MaxFailedAttempts - 1
		repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil)

		_, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong-password"})

		assertDomainErrorCode(t, err, "ACCOUNT_LOCKED")
		assert.True(t, user.IsLocked())
	})

	t.Run("locked account cannot login even with correct password", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		user.Lock(identity.LockoutDuration)
		repo.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

		_, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "correct-horse-battery"})

		assertDomainErrorCode(t, err, "ACCOUNT_LOCKED")
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("valid refresh token yields a new pair", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, jwtService, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		pair, err := jwtService.GenerateTokenPair(user.ID, user.Username)
		require.NoError(t, err)

		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		result, err := service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEqual(t, pair.AccessToken, result.AccessToken)
	})

	t.Run("garbage refresh token is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		_, err := service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "not-a-token"})

		assertDomainErrorCode(t, err, "TOKEN_INVALID")
	})

	t.Run("refresh for vanished user is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, jwtService, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		pair, err := jwtService.GenerateTokenPair(user.ID, user.Username)
		require.NoError(t, err)

		repo.On("FindByID", mock.Anything, user.ID).Return(nil, shared.ErrNotFound)

		_, err = service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})

		assertDomainErrorCode(t, err, "USER_NOT_FOUND")
	})

	t.Run("refresh after user-wide invalidation is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, jwtService, blacklist := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		pair, err := jwtService.GenerateTokenPair(user.ID, user.Username)
		require.NoError(t, err)

		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		// Invalidate everything issued up to now
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, blacklist.AddUserTokensToBlacklist(context.Background(), user.ID.String(), time.Hour))

		_, err = service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: pair.RefreshToken})

		assertDomainErrorCode(t, err, "TOKEN_INVALID")
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("blacklists the access token JTI", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, blacklist := newTestAuthService(repo)

		userID := uuid.New()
		err := service.Logout(context.Background(), LogoutInput{
			UserID:   userID,
			TokenJTI: "jti-123",
			TokenTTL: time.Minute,
		})

		require.NoError(t, err)
		revoked, err := blacklist.IsBlacklisted(context.Background(), "jti-123")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("logout without a JTI is a no-op", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		err := service.Logout(context.Background(), LogoutInput{UserID: uuid.New()})

		assert.NoError(t, err)
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	t.Run("returns profile", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		user := newTestUser(t, "alice", "correct-horse-battery")
		require.NoError(t, user.SetDisplayName("Alice"))
		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		info, err := service.GetCurrentUser(context.Background(), user.ID)

		require.NoError(t, err)
		assert.Equal(t, "alice", info.Username)
		assert.Equal(t, "Alice", info.DisplayName)
	})

	t.Run("maps missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		service, _, _ := newTestAuthService(repo)

		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := service.GetCurrentUser(context.Background(), id)

		assertDomainErrorCode(t, err, "USER_NOT_FOUND")
	})
}
