package pipeline

import "docqa/internal/rag/schema"

// snippetLimit bounds the citation preview length in runes.
const snippetLimit = 200

// MapCitations binds each chunk used in the grounded context to a citation
// record. Indices are 1-based and assigned in context-assembly order so the
// in-text [Source n] references resolve unambiguously.
func MapCitations(retrieved []schema.RetrievedChunk) []schema.Citation {
	citations := make([]schema.Citation, 0, len(retrieved))
	for i, chunk := range retrieved {
		citations = append(citations, schema.Citation{
			Index:         i + 1,
			ChunkID:       chunk.ChunkID,
			DocumentID:    chunk.DocumentID,
			DocumentTitle: chunk.DocumentTitle,
			Snippet:       truncate(chunk.Text, snippetLimit),
		})
	}
	return citations
}

// truncate cuts s at limit runes, appending a truncation marker.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
