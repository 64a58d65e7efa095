package repository

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type UserRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	userRepo UserRepository
	authRepo UserAuthRepository
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.userRepo = NewUserRepository(suite.db)
	suite.authRepo = NewUserAuthRepository(suite.db)
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *UserRepositoryTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
	}
	suite.Require().NoError(suite.userRepo.Create(context.Background(), user))
	return user
}

func (suite *UserRepositoryTestSuite) TestCreate_AppliesDefaults() {
	user := suite.createTestUser("alice")

	found, err := suite.userRepo.FindByID(context.Background(), user.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "active", found.Status)
	assert.Equal(suite.T(), "user", found.Role)
	assert.Equal(suite.T(), "alice", found.Nickname)
}

func (suite *UserRepositoryTestSuite) TestFindByUsernameAndEmail() {
	ctx := context.Background()
	user := suite.createTestUser("bob")

	byName, err := suite.userRepo.FindByUsername(ctx, "bob")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), user.ID, byName.ID)

	byEmail, err := suite.userRepo.FindByEmail(ctx, "bob@example.com")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), user.ID, byEmail.ID)

	_, err = suite.userRepo.FindByUsername(ctx, "nobody")
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrNotFound))
}

func (suite *UserRepositoryTestSuite) TestUpdateLastLogin() {
	ctx := context.Background()
	user := suite.createTestUser("carol")

	suite.Require().NoError(suite.userRepo.UpdateLastLogin(ctx, user.ID, "10.0.0.1"))

	found, err := suite.userRepo.FindByID(ctx, user.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "10.0.0.1", found.LastLoginIP)
	assert.NotNil(suite.T(), found.LastLoginAt)
}

func (suite *UserRepositoryTestSuite) TestFailedAttemptCounting() {
	ctx := context.Background()
	user := suite.createTestUser("dave")

	suite.Require().NoError(suite.authRepo.Create(ctx, &models.UserAuth{
		UserID:   user.ID,
		Password: "hash",
	}))

	suite.Require().NoError(suite.authRepo.RecordFailedAttempt(ctx, user.ID, nil))
	suite.Require().NoError(suite.authRepo.RecordFailedAttempt(ctx, user.ID, nil))

	auth, err := suite.authRepo.FindByUserID(ctx, user.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 2, auth.LoginAttempts)
	assert.Nil(suite.T(), auth.LockedUntil)

	lockedUntil := time.Now().Add(15 * time.Minute)
	suite.Require().NoError(suite.authRepo.RecordFailedAttempt(ctx, user.ID, &lockedUntil))

	auth, err = suite.authRepo.FindByUserID(ctx, user.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 3, auth.LoginAttempts)
	assert.True(suite.T(), auth.IsLocked(time.Now()))

	suite.Require().NoError(suite.authRepo.ClearFailedAttempts(ctx, user.ID))

	auth, err = suite.authRepo.FindByUserID(ctx, user.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 0, auth.LoginAttempts)
	assert.False(suite.T(), auth.IsLocked(time.Now()))
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
