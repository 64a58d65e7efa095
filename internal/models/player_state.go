package models

import (
	"time"
)

// PlayerState is the per-(user, world) resource and progress record. It is
// mutated only by the game engine; LastActionAt doubles as the freshness
// token for the optimistic-lock write protocol.
type PlayerState struct {
	BaseModel
	UserID       uint      `gorm:"not null;uniqueIndex:idx_player_world" json:"user_id"`
	WorldID      uint      `gorm:"not null;uniqueIndex:idx_player_world" json:"world_id"`
	Level        int       `gorm:"default:1" json:"level"`
	Experience   int       `gorm:"default:0" json:"experience"`
	Coins        int64     `gorm:"default:0" json:"coins"`
	Salt         int64     `gorm:"default:0" json:"salt"`
	Sand         int64     `gorm:"default:0" json:"sand"`
	LastActionAt time.Time `gorm:"index" json:"last_action_at"`
}

// TableName pins the player_states table name.
func (PlayerState) TableName() string {
	return "player_states"
}

// NewPlayerState creates a state row with the starting values.
func NewPlayerState(userID, worldID uint, initialCoins int64) *PlayerState {
	return &PlayerState{
		UserID:       userID,
		WorldID:      worldID,
		Level:        1,
		Experience:   0,
		Coins:        initialCoins,
		Salt:         0,
		Sand:         0,
		LastActionAt: time.Now(),
	}
}

// Snapshot is the client-facing subset of PlayerState.
type Snapshot struct {
	Level      int   `json:"level"`
	Experience int   `json:"experience"`
	Coins      int64 `json:"coins"`
	Salt       int64 `json:"salt"`
	Sand       int64 `json:"sand"`
}

// Snapshot returns the response-shaped view of the state.
func (p *PlayerState) Snapshot() Snapshot {
	return Snapshot{
		Level:      p.Level,
		Experience: p.Experience,
		Coins:      p.Coins,
		Salt:       p.Salt,
		Sand:       p.Sand,
	}
}
