package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/repository"
	testingutil "github.com/amirphl/Orochi-CRM/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		userRepo := repository.NewUserRepository(testDB.DB)

		tokenService, err := services.NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "test-secret-key-with-enough-length")
		require.NoError(t, err)

		flow := businessflow.NewAuthFlow(
			userRepo,
			repository.NewUserSessionRepository(testDB.DB),
			repository.NewAuditLogRepository(testDB.DB),
			tokenService,
			testDB.DB,
			businessflow.AuthFlowConfig{BcryptCost: bcrypt.MinCost, DefaultEmailLimit: 100, AccessTokenTTL: time.Hour},
		)
		ctx := context.Background()
		metadata := businessflow.NewClientMetadata("203.0.113.7", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15")

		t.Run("RegisterSignsIn", func(t *testing.T) {
			resp, err := flow.Register(ctx, &dto.RegisterRequest{Name: "Jane Doe", Email: "Jane@Example.com", Password: "SecurePass123!"}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", resp.User.Email)
			assert.Equal(t, 100, resp.User.EmailLimit)
			assert.NotEmpty(t, resp.Session.AccessToken)
			assert.NotEmpty(t, resp.Session.RefreshToken)
			assert.Equal(t, "Bearer", resp.Session.TokenType)
			assert.Equal(t, 3600, resp.Session.ExpiresIn)

			claims, err := flow.ValidateAccessToken(ctx, resp.Session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, resp.User.ID, claims.UserID)
			assert.Equal(t, resp.Session.SessionID, claims.SessionID)

			stored, err := userRepo.ByEmail(ctx, "jane@example.com")
			require.NoError(t, err)
			assert.NotEqual(t, "SecurePass123!", stored.PasswordHash)
		})

		t.Run("RegisterDuplicateEmail", func(t *testing.T) {
			_, err := flow.Register(ctx, &dto.RegisterRequest{Name: "Jane Again", Email: "jane@example.com", Password: "SecurePass123!"}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("LoginAndSessions", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(0)
			require.NoError(t, err)

			first, err := flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword}, metadata)
			require.NoError(t, err)
			second, err := flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword}, nil)
			require.NoError(t, err)
			assert.NotEqual(t, first.Session.SessionID, second.Session.SessionID)

			list, err := flow.ListSessions(ctx, user.ID, first.Session.SessionID)
			require.NoError(t, err)
			require.Len(t, list.Sessions, 2)

			var current int
			for _, s := range list.Sessions {
				if s.Current {
					current++
					assert.Equal(t, first.Session.SessionID, s.ID)
					assert.Equal(t, "203.0.113.7", s.IPAddress)
					assert.Equal(t, "Safari on macOS", s.Device)
				}
			}
			assert.Equal(t, 1, current)

			require.NoError(t, flow.RevokeSession(ctx, user.ID, second.Session.SessionID, nil))
			_, err = flow.ValidateAccessToken(ctx, second.Session.AccessToken)
			require.Error(t, err)
			assert.True(t, businessflow.IsSessionExpired(err))

			err = flow.RevokeSession(ctx, user.ID+1000, first.Session.SessionID, nil)
			assert.True(t, businessflow.IsSessionNotFound(err))

			require.NoError(t, flow.Logout(ctx, user.ID, first.Session.SessionID, nil))
			list, err = flow.ListSessions(ctx, user.ID, "")
			require.NoError(t, err)
			assert.Empty(t, list.Sessions)
		})

		t.Run("LoginFailures", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(0)
			require.NoError(t, err)

			_, err = flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "WrongPassword1!"}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			_, err = flow.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "WrongPassword1!"}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))

			require.NoError(t, testDB.DB.Model(user).Update("is_active", false).Error)
			_, err = flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		t.Run("RefreshKeepsSession", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(0)
			require.NoError(t, err)

			login, err := flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword}, nil)
			require.NoError(t, err)

			refreshed, err := flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.Session.RefreshToken}, nil)
			require.NoError(t, err)
			assert.Equal(t, login.Session.SessionID, refreshed.Session.SessionID)
			assert.NotEmpty(t, refreshed.Session.AccessToken)

			_, err = flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.Session.AccessToken}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidToken(err))

			require.NoError(t, flow.Logout(ctx, user.ID, login.Session.SessionID, nil))
			_, err = flow.Refresh(ctx, &dto.RefreshTokenRequest{RefreshToken: login.Session.RefreshToken}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsSessionExpired(err))
		})

		t.Run("RejectsRefreshTokenAsAccess", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(0)
			require.NoError(t, err)

			login, err := flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: testingutil.TestPassword}, nil)
			require.NoError(t, err)

			_, err = flow.ValidateAccessToken(ctx, login.Session.RefreshToken)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidToken(err))

			_, err = flow.ValidateAccessToken(ctx, "garbage")
			assert.True(t, businessflow.IsInvalidToken(err))
		})

		return nil
	})
	require.NoError(t, err)
}
