package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerStateRepository persists per-(user, world) game state. The engine is
// the only writer; UpdateIfFresh implements the optimistic-lock protocol.
type PlayerStateRepository interface {
	BaseRepository
	Create(ctx context.Context, state *models.PlayerState) error
	Upsert(ctx context.Context, state *models.PlayerState) error
	FindByUserAndWorld(ctx context.Context, userID, worldID uint) (*models.PlayerState, error)
	UpdateIfFresh(tx *gorm.DB, state *models.PlayerState, snapshot time.Time, now time.Time) error
}

type playerStateRepo struct {
	*BaseRepo
}

// NewPlayerStateRepository creates a player state repository.
func NewPlayerStateRepository(db *gorm.DB) PlayerStateRepository {
	return &playerStateRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *playerStateRepo) Create(ctx context.Context, state *models.PlayerState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

// Upsert inserts the state row, keeping an existing row untouched. Joining a
// world twice must never reset progress.
func (r *playerStateRepo) Upsert(ctx context.Context, state *models.PlayerState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "world_id"}},
			DoNothing: true,
		}).
		Create(state).Error
}

func (r *playerStateRepo) FindByUserAndWorld(ctx context.Context, userID, worldID uint) (*models.PlayerState, error) {
	var state models.PlayerState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND world_id = ?", userID, worldID).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNoPlayerState)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}
	return &state, nil
}

// UpdateIfFresh writes the computed state only when nobody has acted since
// the snapshot was taken. The WHERE clause makes check-and-write a single
// atomic statement; zero affected rows means the action lost the race.
func (r *playerStateRepo) UpdateIfFresh(tx *gorm.DB, state *models.PlayerState, snapshot time.Time, now time.Time) error {
	result := tx.Model(&models.PlayerState{}).
		Where("user_id = ? AND world_id = ? AND last_action_at <= ?",
			state.UserID, state.WorldID, snapshot).
		Updates(map[string]interface{}{
			"level":          state.Level,
			"experience":     state.Experience,
			"coins":          state.Coins,
			"salt":           state.Salt,
			"sand":           state.Sand,
			"last_action_at": now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrConcurrentModification)
	}

	state.LastActionAt = now
	return nil
}

// WithTx binds the repository to a transaction.
func (r *playerStateRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &playerStateRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
