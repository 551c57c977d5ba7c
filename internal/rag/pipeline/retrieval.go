package pipeline

import (
	"context"
	"fmt"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/internal/rag/store"
	"docqa/pkg/logger"
)

// defaultTopK bounds how many chunks back a question.
const defaultTopK = 6

// Retriever embeds a question and finds the most relevant stored chunks in
// a workspace. When similarity search itself errors, it falls back to an
// unranked read tagged as degraded; zero stored chunks is an empty result,
// not an error.
type Retriever struct {
	embedder interfaces.EmbeddingModel
	index    interfaces.VectorIndex
	chunks   interfaces.ChunkStore
	cache    interfaces.EmbeddingCache // optional, may be nil
	model    string                    // embedding model name, part of the cache key
	topK     int
	log      *logger.Logger
}

// NewRetriever creates a Retriever. cache may be nil; topK falls back to a
// default when non-positive.
func NewRetriever(
	embedder interfaces.EmbeddingModel,
	index interfaces.VectorIndex,
	chunks interfaces.ChunkStore,
	cache interfaces.EmbeddingCache,
	model string,
	topK int,
	log *logger.Logger,
) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		chunks:   chunks,
		cache:    cache,
		model:    model,
		topK:     topK,
		log:      log,
	}
}

// Retrieve returns the top-K chunks of the workspace most relevant to the
// question.
func (r *Retriever) Retrieve(ctx context.Context, workspaceID, question string) (*schema.RetrievalResult, error) {
	vector, err := r.embedQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("cannot embed question: %w", err)
	}

	hits, err := r.index.Search(ctx, workspaceID, vector, r.topK)
	if err != nil {
		// Similarity search is down; serve the first chunks of the
		// workspace unranked and tag the result so callers never mistake it
		// for ranked retrieval.
		r.log.Warn(fmt.Sprintf("Similarity search failed for workspace %s, serving degraded fallback: %v", workspaceID, err))
		fallback, ferr := r.chunks.FirstByWorkspace(ctx, workspaceID, r.topK)
		if ferr != nil {
			return nil, fmt.Errorf("degraded fallback failed after search error: %w", err)
		}
		return &schema.RetrievalResult{Chunks: fallback, Degraded: true}, nil
	}

	if len(hits) == 0 {
		return &schema.RetrievalResult{}, nil
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float32, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
		scores[h.ChunkID] = h.Score
	}

	retrieved, err := r.chunks.Hydrate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cannot hydrate retrieved chunks: %w", err)
	}
	for i := range retrieved {
		retrieved[i].Score = scores[retrieved[i].ChunkID]
	}

	return &schema.RetrievalResult{Chunks: retrieved}, nil
}

// embedQuestion embeds the question, consulting the cache first. Cache
// failures are invisible to the caller.
func (r *Retriever) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	key := store.CacheKey(r.model, question)
	if r.cache != nil {
		if vector, ok := r.cache.Get(ctx, key); ok {
			return vector, nil
		}
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Put(ctx, key, vector)
	}
	return vector, nil
}
