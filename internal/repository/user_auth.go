package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"gorm.io/gorm"
)

// UserAuthRepository persists credentials and lockout state.
type UserAuthRepository interface {
	BaseRepository
	Create(ctx context.Context, auth *models.UserAuth) error
	FindByUserID(ctx context.Context, userID uint) (*models.UserAuth, error)
	RecordFailedAttempt(ctx context.Context, userID uint, lockedUntil *time.Time) error
	ClearFailedAttempts(ctx context.Context, userID uint) error
	UpdatePassword(ctx context.Context, userID uint, hashed string) error
}

type userAuthRepo struct {
	*BaseRepo
}

// NewUserAuthRepository creates a credential repository.
func NewUserAuthRepository(db *gorm.DB) UserAuthRepository {
	return &userAuthRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *userAuthRepo) Create(ctx context.Context, auth *models.UserAuth) error {
	return r.db.WithContext(ctx).Create(auth).Error
}

func (r *userAuthRepo) FindByUserID(ctx context.Context, userID uint) (*models.UserAuth, error) {
	var auth models.UserAuth
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&auth).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "auth record not found")
		}
		return nil, err
	}
	return &auth, nil
}

func (r *userAuthRepo) RecordFailedAttempt(ctx context.Context, userID uint, lockedUntil *time.Time) error {
	updates := map[string]interface{}{
		"login_attempts":  gorm.Expr("login_attempts + 1"),
		"last_attempt_at": time.Now(),
	}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	return r.db.WithContext(ctx).
		Model(&models.UserAuth{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

func (r *userAuthRepo) ClearFailedAttempts(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.UserAuth{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"locked_until":   nil,
		}).Error
}

func (r *userAuthRepo) UpdatePassword(ctx context.Context, userID uint, hashed string) error {
	return r.db.WithContext(ctx).
		Model(&models.UserAuth{}).
		Where("user_id = ?", userID).
		Update("password", hashed).Error
}

// WithTx binds the repository to a transaction.
func (r *userAuthRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &userAuthRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
