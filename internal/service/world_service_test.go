package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WorldServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service WorldService
	clock   time.Time
}

func (suite *WorldServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := NewWorldService(
		repository.NewWorldRepository(suite.db),
		repository.NewAuditLogRepository(suite.db),
		zap.NewNop(),
	).(*worldService)
	svc.now = func() time.Time { return suite.clock }
	suite.service = svc
}

func (suite *WorldServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *WorldServiceTestSuite) TestCreateWorld() {
	ctx := context.Background()

	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{
		Name:        "alpha",
		Description: "first world",
		Status:      models.WorldStatusActive,
		Settings:    &WorldSettings{GameSpeed: 2.0},
	})
	suite.Require().NoError(err)
	assert.NotZero(suite.T(), world.ID)
	assert.Equal(suite.T(), models.WorldStatusActive, world.Status)
	assert.Equal(suite.T(), 2.0, world.GameSpeed())

	var entry models.AuditLog
	err = suite.db.Where("action_type = ?", models.AuditWorldCreated).First(&entry).Error
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint(1), entry.UserID)
}

func (suite *WorldServiceTestSuite) TestCreateWorld_FutureStartForcesInactive() {
	ctx := context.Background()

	start := suite.clock.Add(24 * time.Hour)
	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{
		Name:      "future",
		Status:    models.WorldStatusActive,
		StartTime: &start,
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.WorldStatusInactive, world.Status)
}

func (suite *WorldServiceTestSuite) TestCreateWorld_DefaultsToInactive() {
	ctx := context.Background()

	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "bare"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.WorldStatusInactive, world.Status)
	assert.Equal(suite.T(), 1.0, world.GameSpeed())
}

func (suite *WorldServiceTestSuite) TestCreateWorld_InvalidGameSpeed() {
	ctx := context.Background()

	for _, speed := range []float64{0.05, 11, -1} {
		_, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{
			Name:     "speedy",
			Settings: &WorldSettings{GameSpeed: speed},
		})
		assert.True(suite.T(), apperrors.Is(err, apperrors.ErrInvalidInput), "speed %v should be rejected", speed)
	}
}

func (suite *WorldServiceTestSuite) TestCreateWorld_DuplicateName() {
	ctx := context.Background()

	_, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "alpha"})
	suite.Require().NoError(err)

	_, err = suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "alpha"})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func (suite *WorldServiceTestSuite) TestUpdateWorld() {
	ctx := context.Background()

	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "alpha"})
	suite.Require().NoError(err)

	status := models.WorldStatusMaintenance
	desc := "under repair"
	updated, err := suite.service.UpdateWorld(ctx, 1, world.ID, &WorldUpdateRequest{
		Status:      &status,
		Description: &desc,
		Settings:    &WorldSettings{GameSpeed: 0.5},
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.WorldStatusMaintenance, updated.Status)
	assert.Equal(suite.T(), "under repair", updated.Description)
	assert.Equal(suite.T(), 0.5, updated.GameSpeed())
	assert.Equal(suite.T(), "alpha", updated.Name)
}

func (suite *WorldServiceTestSuite) TestUpdateWorld_InvalidStatus() {
	ctx := context.Background()

	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "alpha"})
	suite.Require().NoError(err)

	status := "paused"
	_, err = suite.service.UpdateWorld(ctx, 1, world.ID, &WorldUpdateRequest{Status: &status})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrInvalidInput))
}

func (suite *WorldServiceTestSuite) TestUpdateWorld_NotFound() {
	ctx := context.Background()

	status := models.WorldStatusActive
	_, err := suite.service.UpdateWorld(ctx, 1, 999, &WorldUpdateRequest{Status: &status})
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrWorldNotFound))
}

func (suite *WorldServiceTestSuite) TestDeleteWorld() {
	ctx := context.Background()

	world, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "alpha"})
	suite.Require().NoError(err)

	err = suite.service.DeleteWorld(ctx, 1, world.ID)
	suite.Require().NoError(err)

	_, err = suite.service.GetWorld(ctx, world.ID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.ErrWorldNotFound))

	var entry models.AuditLog
	err = suite.db.Where("action_type = ?", models.AuditWorldDeleted).First(&entry).Error
	assert.NoError(suite.T(), err)
}

func (suite *WorldServiceTestSuite) TestListAvailable_FiltersByStatusAndStart() {
	ctx := context.Background()

	_, err := suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "open", Status: models.WorldStatusActive})
	suite.Require().NoError(err)

	past := suite.clock.Add(-time.Hour)
	_, err = suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "started", Status: models.WorldStatusActive, StartTime: &past})
	suite.Require().NoError(err)

	_, err = suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "closed", Status: models.WorldStatusMaintenance})
	suite.Require().NoError(err)

	future := suite.clock.Add(time.Hour)
	_, err = suite.service.CreateWorld(ctx, 1, &WorldRequest{Name: "soon", Status: models.WorldStatusActive, StartTime: &future})
	suite.Require().NoError(err)

	available, err := suite.service.ListAvailable(ctx)
	suite.Require().NoError(err)

	names := make([]string, 0, len(available))
	for _, w := range available {
		names = append(names, w.Name)
	}
	assert.ElementsMatch(suite.T(), []string{"open", "started"}, names)

	all, err := suite.service.ListAll(ctx)
	suite.Require().NoError(err)
	assert.Len(suite.T(), all, 4)
}

func TestWorldServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorldServiceTestSuite))
}
