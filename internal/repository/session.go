package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"gorm.io/gorm"
)

// UserSessionRepository persists issued sessions.
type UserSessionRepository interface {
	BaseRepository
	Create(ctx context.Context, session *models.UserSession) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.UserSession, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type userSessionRepo struct {
	*BaseRepo
}

// NewUserSessionRepository creates a session repository.
func NewUserSessionRepository(db *gorm.DB) UserSessionRepository {
	return &userSessionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *userSessionRepo) Create(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *userSessionRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "session not found")
		}
		return nil, err
	}
	return &session, nil
}

func (r *userSessionRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.UserSession{}).Error
}

func (r *userSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expire_at < ?", time.Now()).
		Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}

// WithTx binds the repository to a transaction.
func (r *userSessionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &userSessionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
