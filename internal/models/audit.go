package models

import (
	"time"
)

// Audit action types beyond the player actions themselves.
const (
	AuditUserRegistered = "user_registered"
	AuditUserLogin      = "user_login"
	AuditWorldCreated   = "world_created"
	AuditWorldUpdated   = "world_updated"
	AuditWorldDeleted   = "world_deleted"
)

// AuditLog is the append-only action trail. It is write-only from the
// engine's point of view; nothing in this service reads it back.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	ActionType string    `gorm:"size:50;index;not null" json:"action_type"`
	Data       JSONMap   `gorm:"type:json" json:"data"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the audit_logs table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
