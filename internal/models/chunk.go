package models

import "time"

// Chunk is one embedded text segment of a document. Chunk rows hold the
// text; the embedding vector lives in the Milvus collection under the same
// ID. Chunks are immutable once written and removed only when their document
// is deleted or reprocessed.
type Chunk struct {
	ID         string `gorm:"primaryKey;size:36"`
	DocumentID string `gorm:"index:idx_doc_chunk,unique;not null;size:36"`
	ChunkIndex int    `gorm:"index:idx_doc_chunk,unique;not null"` // ordering within the document
	Text       string `gorm:"type:longtext;not null"`
	CreatedAt  time.Time
}
