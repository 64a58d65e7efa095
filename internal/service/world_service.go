package service

import (
	"context"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"go.uber.org/zap"
)

const (
	minGameSpeed = 0.1
	maxGameSpeed = 10.0
)

type worldService struct {
	worldRepo repository.WorldRepository
	auditRepo repository.AuditLogRepository
	log       *zap.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewWorldService creates the world management service.
func NewWorldService(
	worldRepo repository.WorldRepository,
	auditRepo repository.AuditLogRepository,
	log *zap.Logger,
) WorldService {
	return &worldService{
		worldRepo: worldRepo,
		auditRepo: auditRepo,
		log:       log,
		now:       time.Now,
	}
}

// ListAvailable returns worlds a player may join right now.
func (s *worldService) ListAvailable(ctx context.Context) ([]*models.World, error) {
	return s.worldRepo.ListAvailable(ctx, s.now())
}

// GetWorld loads a single world.
func (s *worldService) GetWorld(ctx context.Context, id uint) (*models.World, error) {
	return s.worldRepo.FindByID(ctx, id)
}

// ListAll returns every world regardless of availability. Admin only.
func (s *worldService) ListAll(ctx context.Context) ([]*models.World, error) {
	return s.worldRepo.ListAll(ctx)
}

// CreateWorld creates a world. A start time in the future forces the status
// to inactive regardless of what was requested.
func (s *worldService) CreateWorld(ctx context.Context, adminID uint, req *WorldRequest) (*models.World, error) {
	status := req.Status
	if status == "" {
		status = models.WorldStatusInactive
	}
	if err := validateWorldStatus(status); err != nil {
		return nil, err
	}

	settings := models.JSONMap{"game_speed": 1.0}
	if req.Settings != nil {
		if err := validateGameSpeed(req.Settings.GameSpeed); err != nil {
			return nil, err
		}
		settings["game_speed"] = req.Settings.GameSpeed
	}

	now := s.now()
	if req.StartTime != nil && req.StartTime.After(now) {
		status = models.WorldStatusInactive
	}

	if existing, _ := s.worldRepo.FindByName(ctx, req.Name); existing != nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "world name is taken")
	}

	world := &models.World{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		StartTime:   req.StartTime,
		Settings:    settings,
	}

	if err := s.worldRepo.Create(ctx, world); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}

	s.audit(ctx, adminID, models.AuditWorldCreated, world.ID, world.Name)
	s.log.Info("world created",
		zap.Uint("world_id", world.ID), zap.String("name", world.Name), zap.Uint("admin_id", adminID))

	return world, nil
}

// UpdateWorld patches the given fields. Admin only.
func (s *worldService) UpdateWorld(ctx context.Context, adminID uint, id uint, req *WorldUpdateRequest) (*models.World, error) {
	world, err := s.worldRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > 50 {
			return nil, apperrors.New(apperrors.ErrInvalidInput, "world name must be 1 to 50 characters")
		}
		world.Name = *req.Name
	}
	if req.Description != nil {
		if len(*req.Description) > 500 {
			return nil, apperrors.New(apperrors.ErrInvalidInput, "description must be at most 500 characters")
		}
		world.Description = *req.Description
	}
	if req.Status != nil {
		if err := validateWorldStatus(*req.Status); err != nil {
			return nil, err
		}
		world.Status = *req.Status
	}
	if req.StartTime != nil {
		world.StartTime = req.StartTime
	}
	if req.Settings != nil {
		if err := validateGameSpeed(req.Settings.GameSpeed); err != nil {
			return nil, err
		}
		if world.Settings == nil {
			world.Settings = models.JSONMap{}
		}
		world.Settings["game_speed"] = req.Settings.GameSpeed
	}

	if err := s.worldRepo.Update(ctx, world); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}

	s.audit(ctx, adminID, models.AuditWorldUpdated, world.ID, world.Name)
	s.log.Info("world updated", zap.Uint("world_id", world.ID), zap.Uint("admin_id", adminID))

	return world, nil
}

// DeleteWorld soft-deletes a world. Admin only.
func (s *worldService) DeleteWorld(ctx context.Context, adminID uint, id uint) error {
	world, err := s.worldRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.worldRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, adminID, models.AuditWorldDeleted, id, world.Name)
	s.log.Info("world deleted", zap.Uint("world_id", id), zap.Uint("admin_id", adminID))

	return nil
}

func (s *worldService) audit(ctx context.Context, adminID uint, action string, worldID uint, name string) {
	err := s.auditRepo.Create(ctx, &models.AuditLog{
		UserID:     adminID,
		ActionType: action,
		Data:       models.JSONMap{"world_id": worldID, "name": name},
	})
	if err != nil {
		s.log.Error("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}

func validateWorldStatus(status string) error {
	switch status {
	case models.WorldStatusInactive, models.WorldStatusActive, models.WorldStatusMaintenance:
		return nil
	default:
		return apperrors.New(apperrors.ErrInvalidInput, "status must be inactive, active, or maintenance")
	}
}

func validateGameSpeed(speed float64) error {
	if speed < minGameSpeed || speed > maxGameSpeed {
		return apperrors.Newf(apperrors.ErrInvalidInput,
			"game speed must be between %.1f and %.0f", minGameSpeed, maxGameSpeed)
	}
	return nil
}
