package repository

import (
	"context"

	"gorm.io/gorm"
)

// BaseRepository is the shared repository surface.
type BaseRepository interface {
	// GetDB returns the underlying database handle.
	GetDB() *gorm.DB
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) BaseRepository
}

// Pagination carries paging parameters and the resulting total.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPagination normalizes paging parameters.
func NewPagination(page, pageSize int) *Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}

// Offset computes the row offset.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// BaseRepo is the shared repository implementation.
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo creates a base repository.
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB returns the database handle.
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// Transaction runs fn inside a database transaction.
func (r *BaseRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
