package integration

import (
	"context"
	"testing"
	"time"

	identityapp "github.com/clientms/backend/internal/application/identity"
	"github.com/clientms/backend/internal/domain/identity"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/clientms/backend/internal/infrastructure/auth"
	"github.com/clientms/backend/internal/infrastructure/config"
	"github.com/clientms/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestAuthFlow_Integration exercises registration, login and token refresh
// against a real PostgreSQL database.
func TestAuthFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	userRepo := persistence.NewGormUserRepository(testDB.DB)
	ctx := context.Background()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-access-secret-key",
		RefreshSecret:          "integration-test-refresh-secret-key",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "clientms-test",
		MaxRefreshCount:        3,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, zap.NewNop())
	userService := identityapp.NewUserService(userRepo, zap.NewNop())

	t.Run("user roundtrip", func(t *testing.T) {
		user, err := identity.NewUser("carol", "s3cret-pass")
		require.NoError(t, err)
		require.NoError(t, userRepo.Create(ctx, user))

		found, err := userRepo.FindByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.VerifyPassword("s3cret-pass"))
		assert.False(t, found.VerifyPassword("wrong-pass"))
	})

	t.Run("register login refresh logout", func(t *testing.T) {
		_, err := userService.Register(ctx, identityapp.RegisterUserInput{
			Username:    "dave",
			Password:    "s3cret-pass",
			DisplayName: "Dave Example",
		})
		require.NoError(t, err)

		login, err := authService.Login(ctx, identityapp.LoginInput{
			Username: "dave",
			Password: "s3cret-pass",
			IP:       "10.0.0.1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, login.AccessToken)
		assert.Equal(t, "Dave Example", login.User.DisplayName)

		refreshed, err := authService.RefreshToken(ctx, identityapp.RefreshTokenInput{
			RefreshToken: login.RefreshToken,
		})
		require.NoError(t, err)
		assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)

		claims, err := jwtService.ValidateAccessToken(login.AccessToken)
		require.NoError(t, err)
		require.NoError(t, authService.Logout(ctx, identityapp.LogoutInput{
			UserID:   login.User.ID,
			TokenJTI: claims.ID,
			TokenTTL: claims.GetRemainingTTL(),
		}))

		blacklisted, err := blacklist.IsBlacklisted(ctx, claims.ID)
		require.NoError(t, err)
		assert.True(t, blacklisted)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, err := userService.Register(ctx, identityapp.RegisterUserInput{
			Username: "dave",
			Password: "another-pass",
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("failed logins lock the account", func(t *testing.T) {
		_, err := userService.Register(ctx, identityapp.RegisterUserInput{
			Username: "eve",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)

		var lastErr error
		for i := 0; i < identity.MaxFailedAttempts; i++ {
			_, lastErr = authService.Login(ctx, identityapp.LoginInput{
				Username: "eve",
				Password: "wrong-pass",
			})
			require.Error(t, lastErr)
		}

		var domainErr *shared.DomainError
		require.ErrorAs(t, lastErr, &domainErr)
		assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)

		// Correct password no longer helps while locked
		_, err = authService.Login(ctx, identityapp.LoginInput{
			Username: "eve",
			Password: "s3cret-pass",
		})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
	})
}
