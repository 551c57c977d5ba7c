package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"docqa/internal/models"
	"docqa/internal/rag/schema"

	"gorm.io/gorm"
)

// poisonMarker marks chunk texts whose embedding must fail.
const poisonMarker = "POISON"

type fakeDocStore struct {
	mu         sync.Mutex
	docs       map[string]*models.Document
	claimDeny  bool
	claimCalls int
}

func newFakeDocStore(docs ...*models.Document) *fakeDocStore {
	s := &fakeDocStore{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *fakeDocStore) Get(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *fakeDocStore) ListByWorkspace(_ context.Context, workspaceID string, statuses []models.DocumentStatus) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, d := range s.docs {
		if d.WorkspaceID != workspaceID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if d.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeDocStore) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimCalls++
	if s.claimDeny {
		return false, nil
	}
	d, ok := s.docs[id]
	if !ok || d.Status == models.StatusProcessing {
		return false, nil
	}
	d.Status = models.StatusProcessing
	return true, nil
}

func (s *fakeDocStore) IsProcessing(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return ok && d.Status == models.StatusProcessing, nil
}

func (s *fakeDocStore) Finish(_ context.Context, id string, status models.DocumentStatus, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.Status = status
	d.Error = errMsg
	return nil
}

func (s *fakeDocStore) SaveMeta(_ context.Context, id string, pageCount int, _ map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		d.PageCount = pageCount
	}
	return nil
}

type fakeChunkStore struct {
	mu        sync.Mutex
	rows      []models.Chunk
	titles    map[string]string // document id -> title, for hydration
	deleted   []string
	firstErr  error
	insertErr error
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{titles: make(map[string]string)}
}

func (s *fakeChunkStore) HasChunks(_ context.Context, documentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeChunkStore) Insert(_ context.Context, chunk *models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = append(s.rows, *chunk)
	return nil
}

func (s *fakeChunkStore) Delete(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == chunkID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			s.deleted = append(s.deleted, chunkID)
			return nil
		}
	}
	return nil
}

func (s *fakeChunkStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

func (s *fakeChunkStore) Hydrate(_ context.Context, ids []string) ([]schema.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[string]models.Chunk, len(s.rows))
	for _, r := range s.rows {
		byID[r.ID] = r
	}
	var out []schema.RetrievedChunk
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, schema.RetrievedChunk{
			ChunkID:       r.ID,
			DocumentID:    r.DocumentID,
			DocumentTitle: s.titles[r.DocumentID],
			Text:          r.Text,
		})
	}
	return out, nil
}

func (s *fakeChunkStore) FirstByWorkspace(_ context.Context, _ string, limit int) ([]schema.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr != nil {
		return nil, s.firstErr
	}
	var out []schema.RetrievedChunk
	for _, r := range s.rows {
		if len(out) == limit {
			break
		}
		out = append(out, schema.RetrievedChunk{
			ChunkID:       r.ID,
			DocumentID:    r.DocumentID,
			DocumentTitle: s.titles[r.DocumentID],
			Text:          r.Text,
		})
	}
	return out, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	entries   []schema.VectorEntry
	addErr    error
	searchFn  func(workspaceID string, topK int) ([]schema.ChunkHit, error)
	deletions []string
}

func (s *fakeIndex) Add(_ context.Context, entries []schema.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *fakeIndex) Search(_ context.Context, workspaceID string, _ []float32, topK int) ([]schema.ChunkHit, error) {
	if s.searchFn != nil {
		return s.searchFn(workspaceID, topK)
	}
	return nil, nil
}

func (s *fakeIndex) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletions = append(s.deletions, documentID)
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

type fakeObjects struct {
	mu    sync.Mutex
	blobs map[string][]byte
	puts  []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte)}
}

func (s *fakeObjects) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, errors.New("object not found: " + path)
	}
	return data, nil
}

func (s *fakeObjects) Put(_ context.Context, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	s.puts = append(s.puts, path)
	return nil
}

func (s *fakeObjects) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}

func (s *fakeObjects) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for path := range s.blobs {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	return out, nil
}

type fakeExtractor struct {
	result *schema.Extraction
	err    error
}

func (x *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (*schema.Extraction, error) {
	if x.err != nil {
		return nil, x.err
	}
	return x.result, nil
}

// fakeEmbedder fails EmbedBatch for any batch containing a poisoned text and
// Embed for the poisoned texts themselves, exercising the per-item retry.
type fakeEmbedder struct {
	mu         sync.Mutex
	dim        int
	embedCalls int
	batchCalls int
}

func (e *fakeEmbedder) vector() []float32 {
	dim := e.dim
	if dim == 0 {
		dim = 4
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.5
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	e.mu.Unlock()
	if strings.Contains(text, poisonMarker) {
		return nil, errors.New("embedding provider rejected input")
	}
	return e.vector(), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	for _, t := range texts {
		if strings.Contains(t, poisonMarker) {
			return nil, errors.New("batch contains rejected input")
		}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector()
	}
	return out, nil
}

type fakeGenerator struct {
	mu           sync.Mutex
	text         string
	err          error
	messages     []schema.Message
	temperature  float32
	maxTokensArg int
}

func (g *fakeGenerator) Complete(_ context.Context, messages []schema.Message, temperature float32, maxTokens int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = messages
	g.temperature = temperature
	g.maxTokensArg = maxTokens
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	hits    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]float32)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *fakeCache) Put(_ context.Context, key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[key] = vector
}
