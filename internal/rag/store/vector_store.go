package store

import (
	"context"
	"fmt"

	milvusdb "docqa/internal/database/milvus"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// RetrievalError reports that similarity search is unavailable. The caller
// falls back to an unranked degraded read.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("similarity search unavailable: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// MilvusIndex stores chunk embeddings in a Milvus collection and serves
// workspace-scoped similarity search.
type MilvusIndex struct {
	client     client.Client
	collection string
	dim        int
	log        *logger.Logger
}

// NewMilvusIndex creates a MilvusIndex over the configured collection.
func NewMilvusIndex(mc *milvusdb.Client, log *logger.Logger) (*MilvusIndex, error) {
	if mc == nil || mc.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusIndex{
		client:     mc.Client,
		collection: mc.Config.Collection,
		dim:        mc.Config.VectorDim,
		log:        log,
	}, nil
}

// Add inserts chunk embeddings. Every vector must match the collection's
// configured dimensionality.
func (s *MilvusIndex) Add(ctx context.Context, entries []schema.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	docIDs := make([]string, len(entries))
	workspaceIDs := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		if len(e.Vector) != s.dim {
			return fmt.Errorf("embedding for chunk %s has dimension %d, want %d", e.ChunkID, len(e.Vector), s.dim)
		}
		ids[i] = e.ChunkID
		docIDs[i] = e.DocumentID
		workspaceIDs[i] = e.WorkspaceID
		vectors[i] = e.Vector
	}

	idCol := entity.NewColumnVarChar(milvusdb.FieldID, ids)
	docIDCol := entity.NewColumnVarChar(milvusdb.FieldDocumentID, docIDs)
	workspaceIDCol := entity.NewColumnVarChar(milvusdb.FieldWorkspaceID, workspaceIDs)
	embeddingCol := entity.NewColumnFloatVector(milvusdb.FieldEmbedding, s.dim, vectors)

	_, err := s.client.Insert(ctx, s.collection, "" /* default partition */, idCol, docIDCol, workspaceIDCol, embeddingCol)
	if err != nil {
		return fmt.Errorf("cannot insert embeddings into Milvus: %w", err)
	}
	return nil
}

// Search runs a workspace-scoped vector similarity search and returns the
// topK nearest chunk IDs in rank order.
func (s *MilvusIndex) Search(ctx context.Context, workspaceID string, vector []float32, topK int) ([]schema.ChunkHit, error) {
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return nil, &RetrievalError{Err: err}
	}

	filterExpr := fmt.Sprintf(`%s == "%s"`, milvusdb.FieldWorkspaceID, workspaceID)
	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)

	results, err := s.client.Search(
		ctx, s.collection, []string{}, filterExpr,
		[]string{milvusdb.FieldID},
		[]entity.Vector{entity.FloatVector(vector)},
		milvusdb.FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	var hits []schema.ChunkHit
	for _, res := range results {
		var idCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if c, ok := field.(*entity.ColumnVarChar); ok && c.Name() == milvusdb.FieldID {
				idCol = c
				break
			}
		}
		if idCol == nil {
			s.log.Warn("Search result is missing the ID field, skipping.")
			continue
		}
		idData := idCol.Data()
		for i := 0; i < res.ResultCount && i < len(idData); i++ {
			hits = append(hits, schema.ChunkHit{ChunkID: idData[i], Score: res.Scores[i]})
		}
	}

	return hits, nil
}

// DeleteByDocument removes all embeddings of a document from the index.
func (s *MilvusIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, milvusdb.FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("cannot delete embeddings for document %s: %w", documentID, err)
	}
	return nil
}

// compile-time check to ensure MilvusIndex implements the VectorIndex interface
var _ interfaces.VectorIndex = (*MilvusIndex)(nil)
