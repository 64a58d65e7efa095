package service

import (
	"context"
	"testing"
	"time"

	"github.com/salzundsand/server/internal/config"
	"github.com/salzundsand/server/internal/database"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/game"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Game: config.GameConfig{
			SaltPrice:     10,
			SandPrice:     5,
			CollectAmount: 1,
			CollectExp:    5,
			SellExpFactor: 2,
			LevelUpBonus:  50,
			InitialCoins:  100,
			MaxLevel:      1000,
			MaxCoins:      999999999,
			MaxResources:  999999,
			Cooldowns: config.CooldownConfig{
				CollectSalt:   2 * time.Second,
				CollectSand:   2 * time.Second,
				SellResources: time.Second,
				Default:       time.Second,
			},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:        "test-secret",
				AccessExpiry:  time.Hour,
				RefreshExpiry: 24 * time.Hour,
			},
			Lockout: config.LockoutConfig{
				MaxAttempts: 5,
				Duration:    15 * time.Minute,
			},
		},
	}
}

type AuthServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	services *Services
	world    *models.World
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.services = NewServices(suite.db, testConfig(), game.NewMemoryCooldownStore(), zap.NewNop())

	suite.world = &models.World{
		Name:   database.DefaultWorldName,
		Status: models.WorldStatusActive,
	}
	err := suite.db.Create(suite.world).Error
	suite.Require().NoError(err)
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *AuthServiceTestSuite) registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "Str0ngPass!",
		IP:       "127.0.0.1",
	}
}

func (suite *AuthServiceTestSuite) TestRegister() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)
	assert.NotZero(suite.T(), resp.User.ID)
	assert.Equal(suite.T(), "testuser", resp.User.Username)
	assert.Equal(suite.T(), "user", resp.User.Role)
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.NotEmpty(suite.T(), resp.RefreshToken)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)

	// player state in the default world is created alongside the account
	var state models.PlayerState
	err = suite.db.Where("user_id = ? AND world_id = ?", resp.User.ID, suite.world.ID).First(&state).Error
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 1, state.Level)
	assert.Equal(suite.T(), int64(100), state.Coins)

	var entry models.AuditLog
	err = suite.db.Where("user_id = ? AND action_type = ?", resp.User.ID, models.AuditUserRegistered).First(&entry).Error
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestRegister_NormalizesCase() {
	ctx := context.Background()

	req := suite.registerRequest()
	req.Username = "TestUser"
	req.Email = "Test@Example.COM"

	resp, err := suite.services.Auth.Register(ctx, req)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "testuser", resp.User.Username)
	assert.Equal(suite.T(), "test@example.com", resp.User.Email)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateUsername() {
	ctx := context.Background()

	_, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	req := suite.registerRequest()
	req.Email = "other@example.com"
	_, err = suite.services.Auth.Register(ctx, req)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func (suite *AuthServiceTestSuite) TestRegister_InvalidUsername() {
	ctx := context.Background()

	req := suite.registerRequest()
	req.Username = "bad name!"
	_, err := suite.services.Auth.Register(ctx, req)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrInvalidInput))
}

func (suite *AuthServiceTestSuite) TestRegister_WeakPassword() {
	ctx := context.Background()

	for _, password := range []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoDigits!!", "NoSpecial123"} {
		req := suite.registerRequest()
		req.Password = password
		_, err := suite.services.Auth.Register(ctx, req)
		assert.True(suite.T(), apperrors.Is(err, apperrors.ErrInvalidInput), "password %q should be rejected", password)
	}
}

func (suite *AuthServiceTestSuite) TestLogin() {
	ctx := context.Background()

	_, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	resp, err := suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "test@example.com",
		Password: "Str0ngPass!",
		IP:       "10.0.0.1",
	})
	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), resp.AccessToken)

	user, err := suite.services.Auth.GetCurrentUser(ctx, resp.User.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "10.0.0.1", user.LastLoginIP)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	ctx := context.Background()

	_, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	_, err = suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "test@example.com",
		Password: "WrongPass1!",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAuthentication))
}

func (suite *AuthServiceTestSuite) TestLogin_UnknownEmailSameError() {
	ctx := context.Background()

	_, err := suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "nobody@example.com",
		Password: "Whatever1!",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAuthentication))
}

func (suite *AuthServiceTestSuite) TestLogin_LockoutAfterRepeatedFailures() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	for i := 0; i < 5; i++ {
		_, err = suite.services.Auth.Login(ctx, &LoginRequest{
			Email:    "test@example.com",
			Password: "WrongPass1!",
		})
		assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAuthentication))
	}

	// even the correct password is rejected while locked
	_, err = suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "test@example.com",
		Password: "Str0ngPass!",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAccountLocked))

	var auth models.UserAuth
	suite.Require().NoError(suite.db.Where("user_id = ?", resp.User.ID).First(&auth).Error)
	assert.Equal(suite.T(), 5, auth.LoginAttempts)
	assert.NotNil(suite.T(), auth.LockedUntil)
}

func (suite *AuthServiceTestSuite) TestLogin_SuccessClearsFailures() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, _ = suite.services.Auth.Login(ctx, &LoginRequest{
			Email:    "test@example.com",
			Password: "WrongPass1!",
		})
	}

	_, err = suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "test@example.com",
		Password: "Str0ngPass!",
	})
	suite.Require().NoError(err)

	var auth models.UserAuth
	suite.Require().NoError(suite.db.Where("user_id = ?", resp.User.ID).First(&auth).Error)
	assert.Equal(suite.T(), 0, auth.LoginAttempts)
}

func (suite *AuthServiceTestSuite) TestLogin_DisabledAccount() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).Update("status", "banned").Error)

	_, err = suite.services.Auth.Login(ctx, &LoginRequest{
		Email:    "test@example.com",
		Password: "Str0ngPass!",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAuthorization))
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	refreshed, err := suite.services.Auth.RefreshToken(ctx, resp.RefreshToken)
	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), refreshed.AccessToken)
	assert.Equal(suite.T(), resp.User.ID, refreshed.User.ID)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_RejectsAccessToken() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	_, err = suite.services.Auth.RefreshToken(ctx, resp.AccessToken)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrTokenInvalid))
}

func (suite *AuthServiceTestSuite) TestLogout_InvalidatesSession() {
	ctx := context.Background()

	resp, err := suite.services.Auth.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	err = suite.services.Auth.Logout(ctx, resp.AccessToken)
	suite.Require().NoError(err)

	// the refresh token's session is gone
	_, err = suite.services.Auth.RefreshToken(ctx, resp.RefreshToken)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrTokenInvalid))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
