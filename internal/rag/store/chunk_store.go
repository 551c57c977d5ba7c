package store

import (
	"context"

	"docqa/internal/models"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"

	"gorm.io/gorm"
)

// chunkRow is the join shape used for hydration reads.
type chunkRow struct {
	ID            string
	DocumentID    string
	Text          string
	DocumentTitle string
}

// ChunkDAL provides data access for chunk rows.
type ChunkDAL struct {
	db *gorm.DB
}

// NewChunkDAL creates a ChunkDAL.
func NewChunkDAL(db *gorm.DB) *ChunkDAL {
	return &ChunkDAL{db: db}
}

// HasChunks reports whether the document already has chunk rows.
func (dal *ChunkDAL) HasChunks(ctx context.Context, documentID string) (bool, error) {
	var count int64
	err := dal.db.WithContext(ctx).
		Model(&models.Chunk{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	return count > 0, err
}

// Insert writes one chunk row.
func (dal *ChunkDAL) Insert(ctx context.Context, chunk *models.Chunk) error {
	return dal.db.WithContext(ctx).Create(chunk).Error
}

// Delete removes one chunk row by ID.
func (dal *ChunkDAL) Delete(ctx context.Context, chunkID string) error {
	return dal.db.WithContext(ctx).Delete(&models.Chunk{}, "id = ?", chunkID).Error
}

// DeleteByDocument removes all chunk rows of a document.
func (dal *ChunkDAL) DeleteByDocument(ctx context.Context, documentID string) error {
	return dal.db.WithContext(ctx).Delete(&models.Chunk{}, "document_id = ?", documentID).Error
}

// Hydrate returns the chunks for ids with their document titles, preserving
// the order of ids. IDs without a row are skipped.
func (dal *ChunkDAL) Hydrate(ctx context.Context, ids []string) ([]schema.RetrievedChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []chunkRow
	err := dal.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.id, chunks.document_id, chunks.text, documents.title AS document_title").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]chunkRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]schema.RetrievedChunk, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, schema.RetrievedChunk{
			ChunkID:       r.ID,
			DocumentID:    r.DocumentID,
			DocumentTitle: r.DocumentTitle,
			Text:          r.Text,
		})
	}
	return out, nil
}

// FirstByWorkspace returns the first limit chunks of a workspace in document
// and chunk order, with no similarity ranking. This serves the degraded
// retrieval fallback only.
func (dal *ChunkDAL) FirstByWorkspace(ctx context.Context, workspaceID string, limit int) ([]schema.RetrievedChunk, error) {
	var rows []chunkRow
	err := dal.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.id, chunks.document_id, chunks.text, documents.title AS document_title").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("documents.workspace_id = ?", workspaceID).
		Order("chunks.document_id, chunks.chunk_index").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]schema.RetrievedChunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, schema.RetrievedChunk{
			ChunkID:       r.ID,
			DocumentID:    r.DocumentID,
			DocumentTitle: r.DocumentTitle,
			Text:          r.Text,
		})
	}
	return out, nil
}

// compile-time check to ensure ChunkDAL implements the ChunkStore interface
var _ interfaces.ChunkStore = (*ChunkDAL)(nil)
