package repository

import (
	"context"

	"github.com/salzundsand/server/internal/models"
	"gorm.io/gorm"
)

// AuditLogRepository appends to the audit trail.
type AuditLogRepository interface {
	BaseRepository
	Create(ctx context.Context, entry *models.AuditLog) error
	CreateTx(tx *gorm.DB, entry *models.AuditLog) error
}

type auditLogRepo struct {
	*BaseRepo
}

// NewAuditLogRepository creates an audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CreateTx appends inside an existing transaction, used by the engine so the
// audit entry commits atomically with the state write.
func (r *auditLogRepo) CreateTx(tx *gorm.DB, entry *models.AuditLog) error {
	return tx.Create(entry).Error
}

// WithTx binds the repository to a transaction.
func (r *auditLogRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &auditLogRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
