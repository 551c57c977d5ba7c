package store

import (
	"context"

	"docqa/internal/models"
	"docqa/internal/rag/interfaces"

	"gorm.io/gorm"
)

// QueryDAL records asked questions.
type QueryDAL struct {
	db *gorm.DB
}

// NewQueryDAL creates a QueryDAL.
func NewQueryDAL(db *gorm.DB) *QueryDAL {
	return &QueryDAL{db: db}
}

// Record inserts one query record.
func (dal *QueryDAL) Record(ctx context.Context, q *models.Query) error {
	return dal.db.WithContext(ctx).Create(q).Error
}

// compile-time check to ensure QueryDAL implements the QueryStore interface
var _ interfaces.QueryStore = (*QueryDAL)(nil)
