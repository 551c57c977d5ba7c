package store

import (
	"context"
	"encoding/json"
	"fmt"

	"docqa/internal/models"
	"docqa/internal/rag/interfaces"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentDAL provides data access for document records and owns the status
// state machine writes.
type DocumentDAL struct {
	db *gorm.DB
}

// NewDocumentDAL creates a DocumentDAL.
func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// Get fetches one document by ID.
func (dal *DocumentDAL) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := dal.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByWorkspace returns the workspace's documents, optionally filtered by
// status.
func (dal *DocumentDAL) ListByWorkspace(ctx context.Context, workspaceID string, statuses []models.DocumentStatus) ([]models.Document, error) {
	q := dal.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var docs []models.Document
	if err := q.Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Claim atomically transitions the document into processing. The conditional
// update guards against concurrent claims: zero affected rows means another
// request already holds the document.
func (dal *DocumentDAL) Claim(ctx context.Context, id string) (bool, error) {
	tx := dal.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status <> ?", id, models.StatusProcessing).
		Update("status", models.StatusProcessing)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// IsProcessing reports whether the document still exists and holds the
// processing claim.
func (dal *DocumentDAL) IsProcessing(ctx context.Context, id string) (bool, error) {
	var doc models.Document
	err := dal.db.WithContext(ctx).Select("status").First(&doc, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return doc.Status == models.StatusProcessing, nil
}

// Finish records the terminal status and message of a processing run.
func (dal *DocumentDAL) Finish(ctx context.Context, id string, status models.DocumentStatus, errMsg *string) error {
	return dal.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
}

// SaveMeta stores the page count and metadata dictionary read from the
// document.
func (dal *DocumentDAL) SaveMeta(ctx context.Context, id string, pageCount int, meta map[string]string) error {
	updates := map[string]interface{}{"page_count": pageCount}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("cannot encode document metadata: %w", err)
		}
		updates["meta"] = datatypes.JSON(raw)
	}
	return dal.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// compile-time check to ensure DocumentDAL implements the DocumentStore interface
var _ interfaces.DocumentStore = (*DocumentDAL)(nil)
