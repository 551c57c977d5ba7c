package interfaces

import (
	"context"

	"docqa/internal/models"
	"docqa/internal/rag/schema"
)

// Extractor converts raw file bytes plus a declared extension into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, ext string) (*schema.Extraction, error)
}

// EmbeddingModel is a text embedding provider with fixed output
// dimensionality.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator is a text generation provider.
type Generator interface {
	Complete(ctx context.Context, messages []schema.Message, temperature float32, maxTokens int) (string, error)
}

// ObjectStore is the object storage surface the pipeline depends on.
type ObjectStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// DocumentStore persists document records and owns the status state machine
// writes.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	ListByWorkspace(ctx context.Context, workspaceID string, statuses []models.DocumentStatus) ([]models.Document, error)
	// Claim atomically transitions the document to processing. It reports
	// false when another request already holds the claim.
	Claim(ctx context.Context, id string) (bool, error)
	// IsProcessing re-checks the claim between expensive steps.
	IsProcessing(ctx context.Context, id string) (bool, error)
	Finish(ctx context.Context, id string, status models.DocumentStatus, errMsg *string) error
	SaveMeta(ctx context.Context, id string, pageCount int, meta map[string]string) error
}

// ChunkStore persists chunk rows and serves the retrieval hydration and
// fallback reads.
type ChunkStore interface {
	HasChunks(ctx context.Context, documentID string) (bool, error)
	Insert(ctx context.Context, chunk *models.Chunk) error
	Delete(ctx context.Context, chunkID string) error
	DeleteByDocument(ctx context.Context, documentID string) error
	// Hydrate returns chunks with their document titles, preserving the
	// order of ids. Unknown ids are skipped.
	Hydrate(ctx context.Context, ids []string) ([]schema.RetrievedChunk, error)
	// FirstByWorkspace returns the first limit chunks of a workspace with no
	// similarity ordering; this is the degraded fallback read.
	FirstByWorkspace(ctx context.Context, workspaceID string, limit int) ([]schema.RetrievedChunk, error)
}

// QueryStore records asked questions.
type QueryStore interface {
	Record(ctx context.Context, q *models.Query) error
}

// VectorIndex is the similarity index over chunk embeddings.
type VectorIndex interface {
	Add(ctx context.Context, entries []schema.VectorEntry) error
	Search(ctx context.Context, workspaceID string, vector []float32, topK int) ([]schema.ChunkHit, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// EmbeddingCache caches question embeddings across requests. Lookup misses
// and write failures are never fatal.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Put(ctx context.Context, key string, vector []float32)
}
