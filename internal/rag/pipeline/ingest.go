package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"docqa/internal/models"
	"docqa/internal/rag/chunker"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/internal/storage"
	"docqa/pkg/logger"
	"docqa/pkg/ratelimiter"

	"github.com/google/uuid"
)

// defaultEmbedBatchSize bounds how many chunk texts go into one embedding
// provider call.
const defaultEmbedBatchSize = 8

// Coordinator orchestrates ingestion for one document: extraction, chunking,
// embedding and persistence. It owns the document status state machine and
// tolerates per-chunk embedding failure.
type Coordinator struct {
	docs      interfaces.DocumentStore
	chunks    interfaces.ChunkStore
	index     interfaces.VectorIndex
	objects   interfaces.ObjectStore
	extractor interfaces.Extractor
	embedder  interfaces.EmbeddingModel
	splitter  *chunker.Chunker
	limiter   ratelimiter.RateLimiter
	batchSize int
	log       *logger.Logger
}

// NewCoordinator creates a Coordinator. limiter may be nil to disable
// embedding pacing; embedBatchSize falls back to a default when
// non-positive.
func NewCoordinator(
	docs interfaces.DocumentStore,
	chunks interfaces.ChunkStore,
	index interfaces.VectorIndex,
	objects interfaces.ObjectStore,
	extractor interfaces.Extractor,
	embedder interfaces.EmbeddingModel,
	splitter *chunker.Chunker,
	limiter ratelimiter.RateLimiter,
	embedBatchSize int,
	log *logger.Logger,
) *Coordinator {
	if embedBatchSize <= 0 {
		embedBatchSize = defaultEmbedBatchSize
	}
	return &Coordinator{
		docs:      docs,
		chunks:    chunks,
		index:     index,
		objects:   objects,
		extractor: extractor,
		embedder:  embedder,
		splitter:  splitter,
		limiter:   limiter,
		batchSize: embedBatchSize,
		log:       log,
	}
}

// Result summarizes one processing run.
type Result struct {
	Status    models.DocumentStatus
	Skipped   bool // already chunked (idempotent) or claimed by another request
	Succeeded int
	Failed    int
}

// Process runs the full ingestion pipeline for one document. Without force,
// a document that already has chunks is skipped; with force, existing chunks
// and embeddings are dropped and rebuilt.
func (co *Coordinator) Process(ctx context.Context, documentID string, force bool) (*Result, error) {
	doc, err := co.docs.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("cannot load document %s: %w", documentID, err)
	}

	if !force {
		has, err := co.chunks.HasChunks(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("cannot check existing chunks: %w", err)
		}
		if has {
			co.log.Info(fmt.Sprintf("Document %s already has chunks, skipping.", documentID))
			return &Result{Status: doc.Status, Skipped: true}, nil
		}
	}

	claimed, err := co.docs.Claim(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("cannot claim document %s: %w", documentID, err)
	}
	if !claimed {
		co.log.Info(fmt.Sprintf("Document %s is already being processed, skipping.", documentID))
		return &Result{Status: models.StatusProcessing, Skipped: true}, nil
	}

	if force {
		if err := co.chunks.DeleteByDocument(ctx, documentID); err != nil {
			return co.fail(ctx, documentID, fmt.Sprintf("cannot drop previous chunks: %v", err))
		}
		if err := co.index.DeleteByDocument(ctx, documentID); err != nil {
			return co.fail(ctx, documentID, fmt.Sprintf("cannot drop previous embeddings: %v", err))
		}
	}

	data, err := co.objects.Get(ctx, doc.StoragePath)
	if err != nil {
		return co.fail(ctx, documentID, fmt.Sprintf("cannot fetch document bytes: %v", err))
	}

	if ok := co.stillClaimed(ctx, documentID); !ok {
		co.log.Warn(fmt.Sprintf("Document %s lost its claim before extraction, stopping.", documentID))
		return &Result{Status: models.StatusProcessing, Skipped: true}, nil
	}

	extraction, err := co.extractor.Extract(ctx, data, filepath.Ext(doc.StoragePath))
	if err != nil {
		return co.fail(ctx, documentID, err.Error())
	}

	co.saveArtifacts(ctx, doc, extraction)
	if extraction.PageCount > 0 || len(extraction.Meta) > 0 {
		if err := co.docs.SaveMeta(ctx, documentID, extraction.PageCount, extraction.Meta); err != nil {
			co.log.Warn(fmt.Sprintf("cannot save metadata for document %s: %v", documentID, err))
		}
	}

	texts := co.splitter.Split(extraction.Text)
	if len(texts) == 0 {
		return co.fail(ctx, documentID, "no valid chunks")
	}

	succeeded, failed := co.embedAndStore(ctx, doc, texts)

	if succeeded == 0 {
		return co.fail(ctx, documentID, "all chunks failed")
	}

	var annotation *string
	if failed > 0 {
		msg := fmt.Sprintf("%d chunks failed to process", failed)
		annotation = &msg
	}
	if err := co.docs.Finish(ctx, documentID, models.StatusReady, annotation); err != nil {
		return nil, fmt.Errorf("cannot finalize document %s: %w", documentID, err)
	}

	co.log.Info(fmt.Sprintf("Document %s processed: %d chunks stored, %d failed.", documentID, succeeded, failed))
	return &Result{Status: models.StatusReady, Succeeded: succeeded, Failed: failed}, nil
}

// embedAndStore embeds chunk texts in batches and persists each chunk with
// its vector. Chunk index assignment stays deterministic: index i always
// maps to texts[i]. A failed item is omitted from the index entirely; a
// placeholder vector is never written.
func (co *Coordinator) embedAndStore(ctx context.Context, doc *models.Document, texts []string) (succeeded, failed int) {
	for batchStart := 0; batchStart < len(texts); batchStart += co.batchSize {
		batchEnd := batchStart + co.batchSize
		if batchEnd > len(texts) {
			batchEnd = len(texts)
		}
		batch := texts[batchStart:batchEnd]

		if ok := co.stillClaimed(ctx, doc.ID); !ok {
			co.log.Warn(fmt.Sprintf("Document %s lost its claim mid-embedding, stopping.", doc.ID))
			return succeeded, failed + len(texts) - batchStart
		}

		if err := ratelimiter.Wait(ctx, co.limiter); err != nil {
			return succeeded, failed + len(texts) - batchStart
		}

		vectors, err := co.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			// Retry the batch one item at a time so a single poisoned input
			// fails alone.
			co.log.Warn(fmt.Sprintf("Batch embedding failed for document %s, retrying per item: %v", doc.ID, err))
			vectors = make([][]float32, len(batch))
			for i, text := range batch {
				if werr := ratelimiter.Wait(ctx, co.limiter); werr != nil {
					break
				}
				v, ierr := co.embedder.Embed(ctx, text)
				if ierr != nil {
					co.log.Warn(fmt.Sprintf("Embedding failed for chunk %d of document %s: %v", batchStart+i, doc.ID, ierr))
					continue
				}
				vectors[i] = v
			}
		}

		for i, vector := range vectors {
			chunkIndex := batchStart + i
			if vector == nil {
				failed++
				continue
			}
			if ok := co.storeChunk(ctx, doc, chunkIndex, batch[i], vector); ok {
				succeeded++
			} else {
				failed++
			}
		}
	}
	return succeeded, failed
}

// storeChunk writes the chunk row and its embedding. The row is rolled back
// when the index write fails so no chunk exists without a vector.
func (co *Coordinator) storeChunk(ctx context.Context, doc *models.Document, chunkIndex int, text string, vector []float32) bool {
	chunk := &models.Chunk{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		ChunkIndex: chunkIndex,
		Text:       text,
	}
	if err := co.chunks.Insert(ctx, chunk); err != nil {
		co.log.Warn(fmt.Sprintf("cannot insert chunk %d of document %s: %v", chunkIndex, doc.ID, err))
		return false
	}

	entry := schema.VectorEntry{
		ChunkID:     chunk.ID,
		DocumentID:  doc.ID,
		WorkspaceID: doc.WorkspaceID,
		Vector:      vector,
	}
	if err := co.index.Add(ctx, []schema.VectorEntry{entry}); err != nil {
		co.log.Warn(fmt.Sprintf("cannot index chunk %d of document %s: %v", chunkIndex, doc.ID, err))
		if derr := co.chunks.Delete(ctx, chunk.ID); derr != nil {
			co.log.Error(fmt.Sprintf("cannot roll back chunk %s: %v", chunk.ID, derr))
		}
		return false
	}
	return true
}

// saveArtifacts persists per-page processing artifacts, best effort.
func (co *Coordinator) saveArtifacts(ctx context.Context, doc *models.Document, extraction *schema.Extraction) {
	for _, page := range extraction.Pages {
		if page.Image != nil {
			path := storage.ArtifactPath(doc.WorkspaceID, doc.ID, fmt.Sprintf("page-%d.png", page.Number))
			if err := co.objects.Put(ctx, path, page.Image, "image/png"); err != nil {
				co.log.Warn(fmt.Sprintf("cannot store page image artifact: %v", err))
			}
		}
		if page.Merged != "" {
			path := storage.ArtifactPath(doc.WorkspaceID, doc.ID, fmt.Sprintf("page-%d.txt", page.Number))
			if err := co.objects.Put(ctx, path, []byte(page.Merged), "text/plain; charset=utf-8"); err != nil {
				co.log.Warn(fmt.Sprintf("cannot store page text artifact: %v", err))
			}
		}
	}
}

// stillClaimed re-checks the processing claim between expensive steps so a
// concurrently deleted or reclaimed document stops wasted work promptly.
func (co *Coordinator) stillClaimed(ctx context.Context, documentID string) bool {
	ok, err := co.docs.IsProcessing(ctx, documentID)
	if err != nil {
		co.log.Warn(fmt.Sprintf("cannot re-check claim for document %s: %v", documentID, err))
		return true // transient read failure does not abort the run
	}
	return ok
}

// fail records the terminal failed status with its message.
func (co *Coordinator) fail(ctx context.Context, documentID, message string) (*Result, error) {
	co.log.Error(fmt.Sprintf("Processing of document %s failed: %s", documentID, message))
	if err := co.docs.Finish(ctx, documentID, models.StatusFailed, &message); err != nil {
		return nil, fmt.Errorf("cannot record failure for document %s: %w", documentID, err)
	}
	return &Result{Status: models.StatusFailed}, nil
}
