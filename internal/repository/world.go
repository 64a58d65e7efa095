package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"gorm.io/gorm"
)

// WorldRepository persists game worlds.
type WorldRepository interface {
	BaseRepository
	Create(ctx context.Context, world *models.World) error
	Update(ctx context.Context, world *models.World) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.World, error)
	FindByName(ctx context.Context, name string) (*models.World, error)
	ListAvailable(ctx context.Context, now time.Time) ([]*models.World, error)
	ListAll(ctx context.Context) ([]*models.World, error)
}

type worldRepo struct {
	*BaseRepo
}

// NewWorldRepository creates a world repository.
func NewWorldRepository(db *gorm.DB) WorldRepository {
	return &worldRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *worldRepo) Create(ctx context.Context, world *models.World) error {
	return r.db.WithContext(ctx).Create(world).Error
}

func (r *worldRepo) Update(ctx context.Context, world *models.World) error {
	return r.db.WithContext(ctx).Save(world).Error
}

func (r *worldRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.World{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrWorldNotFound)
	}
	return nil
}

func (r *worldRepo) FindByID(ctx context.Context, id uint) (*models.World, error) {
	var world models.World
	err := r.db.WithContext(ctx).First(&world, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrWorldNotFound)
		}
		return nil, err
	}
	return &world, nil
}

func (r *worldRepo) FindByName(ctx context.Context, name string) (*models.World, error) {
	var world models.World
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&world).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrWorldNotFound)
		}
		return nil, err
	}
	return &world, nil
}

// ListAvailable returns worlds players may currently join: active with no
// start time, or active with a start time that has passed.
func (r *worldRepo) ListAvailable(ctx context.Context, now time.Time) ([]*models.World, error) {
	var worlds []*models.World
	err := r.db.WithContext(ctx).
		Where("status = ? AND (start_time IS NULL OR start_time <= ?)", models.WorldStatusActive, now).
		Order("created_at DESC").
		Find(&worlds).Error
	return worlds, err
}

func (r *worldRepo) ListAll(ctx context.Context) ([]*models.World, error) {
	var worlds []*models.World
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&worlds).Error
	return worlds, err
}

// WithTx binds the repository to a transaction.
func (r *worldRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &worldRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
