package schema

// PageContent carries everything the PDF extractor recovers from one page.
// Images and raw text are retained as processing artifacts for the document
// viewer; Merged is what flows into chunking.
type PageContent struct {
	Number    int    // 1-based page number
	TextLayer string // structured text layer extraction
	OCRText   string // OCR pass over the rendered page image
	Merged    string // merged and formatted page text
	Image     []byte // rendered page raster (PNG)
}

// Extraction is the validated result of text extraction for one document.
type Extraction struct {
	Text      string            // full normalized document text
	Pages     []PageContent     // per-page artifacts, PDF only
	Meta      map[string]string // document metadata dictionary, PDF only
	PageCount int
}

// Message is one turn of a generation provider conversation.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// VectorEntry is one chunk embedding bound for the vector index.
type VectorEntry struct {
	ChunkID     string
	DocumentID  string
	WorkspaceID string
	Vector      []float32
}

// ChunkHit is a ranked similarity search result.
type ChunkHit struct {
	ChunkID string
	Score   float32
}

// RetrievedChunk is a chunk hydrated with its text and document title,
// ready for context assembly and citation mapping.
type RetrievedChunk struct {
	ChunkID       string
	DocumentID    string
	DocumentTitle string
	Text          string
	Score         float32
}

// RetrievalResult is the outcome of retrieval for one question. Degraded
// marks results from the unranked fallback path; callers must not present
// them as equivalent to ranked retrieval.
type RetrievalResult struct {
	Chunks   []RetrievedChunk
	Degraded bool
}

// Citation binds an in-text source reference to the chunk behind it.
// Index is 1-based and matches the "Source n" label in the context block.
type Citation struct {
	Index         int    `json:"index"`
	ChunkID       string `json:"chunkId"`
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
	Snippet       string `json:"snippet"`
}

// Answer is the question-answering payload. The surface never returns a hard
// error: degraded paths report through Degraded and Err with a user-safe
// Text.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
	Grounded  bool       `json:"grounded"`
	Degraded  bool       `json:"degraded"`
	Err       string     `json:"error,omitempty"` // internal indicator for observability, not shown as a failure
}
