package database

import (
	"errors"
	"fmt"

	"github.com/salzundsand/server/internal/logger"
	"github.com/salzundsand/server/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultWorldName is the world every freshly registered player joins.
const DefaultWorldName = "default"

// AutoMigrate creates or updates the schema and seeds the default world.
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	migrationModels := []interface{}{
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},
		&models.World{},
		&models.PlayerState{},
		&models.AuditLog{},
	}

	logger.Info("running database migration")

	if DB.Dialector.Name() == "sqlite" {
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("migration failed",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	if err := seedDefaultWorld(DB); err != nil {
		return err
	}

	logger.Info("database migration complete")
	return nil
}

// seedDefaultWorld makes sure the single-world deployment has a world row to
// key player state on. Multi-world deployments add more via the admin API.
func seedDefaultWorld(db *gorm.DB) error {
	var world models.World
	err := db.Where("name = ?", DefaultWorldName).First(&world).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	world = models.World{
		Name:     DefaultWorldName,
		Status:   models.WorldStatusActive,
		Settings: models.JSONMap{"game_speed": 1.0},
	}
	if err := db.Create(&world).Error; err != nil {
		return fmt.Errorf("seed default world: %w", err)
	}

	logger.Info("seeded default world", zap.Uint("world_id", world.ID))
	return nil
}
