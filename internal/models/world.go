package models

import (
	"encoding/json"
	"time"
)

// World status values.
const (
	WorldStatusInactive    = "inactive"
	WorldStatusActive      = "active"
	WorldStatusMaintenance = "maintenance"
)

// World is an independent game instance with its own speed multiplier and
// availability window. The zero-valued "default" world created at migration
// time covers the single-world deployment.
type World struct {
	BaseModel
	Name        string     `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string     `gorm:"size:500" json:"description"`
	Status      string     `gorm:"size:20;default:'inactive';index" json:"status"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	Settings    JSONMap    `gorm:"type:json" json:"settings"`
}

// TableName pins the worlds table name.
func (World) TableName() string {
	return "worlds"
}

// IsAvailable reports whether players may act in this world: active and
// either no start time or a start time that has passed.
func (w *World) IsAvailable(now time.Time) bool {
	if w.Status != WorldStatusActive {
		return false
	}
	return w.StartTime == nil || !w.StartTime.After(now)
}

// GameSpeed returns the configured speed multiplier, 1.0 when unset.
// Values outside [0.1, 10] are rejected at validation time, not here.
func (w *World) GameSpeed() float64 {
	if w.Settings == nil {
		return 1.0
	}
	switch v := w.Settings["game_speed"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 1.0
		}
		return f
	default:
		return 1.0
	}
}
