package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docqa/internal/models"
	"docqa/internal/rag/chunker"
	"docqa/internal/rag/pipeline"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubEmbedder struct{ err error }

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := e.Embed(context.Background(), texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type stubIndex struct{ hits []schema.ChunkHit }

func (s *stubIndex) Add(context.Context, []schema.VectorEntry) error { return nil }
func (s *stubIndex) Search(context.Context, string, []float32, int) ([]schema.ChunkHit, error) {
	return s.hits, nil
}
func (s *stubIndex) DeleteByDocument(context.Context, string) error { return nil }

type stubChunks struct{ retrieved []schema.RetrievedChunk }

func (s *stubChunks) HasChunks(context.Context, string) (bool, error)    { return false, nil }
func (s *stubChunks) Insert(context.Context, *models.Chunk) error        { return nil }
func (s *stubChunks) Delete(context.Context, string) error               { return nil }
func (s *stubChunks) DeleteByDocument(context.Context, string) error     { return nil }
func (s *stubChunks) Hydrate(context.Context, []string) ([]schema.RetrievedChunk, error) {
	return s.retrieved, nil
}
func (s *stubChunks) FirstByWorkspace(context.Context, string, int) ([]schema.RetrievedChunk, error) {
	return nil, errors.New("fallback unavailable")
}

type stubGenerator struct {
	err  error
	text string
}

func (g *stubGenerator) Complete(context.Context, []schema.Message, float32, int) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type stubDocs struct {
	mu     sync.Mutex
	byWS   map[string][]models.Document
	claims int
}

func (s *stubDocs) Get(_ context.Context, id string) (*models.Document, error) {
	for _, docs := range s.byWS {
		for _, d := range docs {
			if d.ID == id {
				copied := d
				return &copied, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubDocs) ListByWorkspace(_ context.Context, ws string, _ []models.DocumentStatus) ([]models.Document, error) {
	return s.byWS[ws], nil
}
func (s *stubDocs) Claim(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	return false, nil
}
func (s *stubDocs) IsProcessing(context.Context, string) (bool, error) { return true, nil }
func (s *stubDocs) Finish(context.Context, string, models.DocumentStatus, *string) error {
	return nil
}
func (s *stubDocs) SaveMeta(context.Context, string, int, map[string]string) error { return nil }

type stubQueries struct {
	mu       sync.Mutex
	recorded []models.Query
	err      error
}

func (s *stubQueries) Record(_ context.Context, q *models.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, *q)
	return nil
}

func newTestService(t *testing.T, embedder *stubEmbedder, index *stubIndex, chunks *stubChunks, gen *stubGenerator, docs *stubDocs, queries *stubQueries) *Service {
	t.Helper()
	log := logger.New("test", "")
	retriever := pipeline.NewRetriever(embedder, index, chunks, nil, "test-model", 6, log)
	answerer := pipeline.NewAnswerGenerator(gen, 512, log)
	coordinator := pipeline.NewCoordinator(docs, chunks, index, nil, nil, embedder,
		chunker.New(0, 0, 0), nil, 0, log)

	svc, err := New(coordinator, retriever, answerer, docs, queries, 2, "test-model", log)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestAsk_GroundedAnswerWithCitations(t *testing.T) {
	chunks := &stubChunks{retrieved: []schema.RetrievedChunk{
		{ChunkID: "c-1", DocumentID: "d-1", DocumentTitle: "Handbook", Text: "Leave accrues monthly."},
	}}
	index := &stubIndex{hits: []schema.ChunkHit{{ChunkID: "c-1", Score: 0.9}}}
	queries := &stubQueries{}
	svc := newTestService(t, &stubEmbedder{}, index, chunks, &stubGenerator{text: "Monthly [Source 1]."}, &stubDocs{}, queries)

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-1", UserID: "u-1", Question: "How?"})

	assert.True(t, answer.Grounded)
	assert.False(t, answer.Degraded)
	assert.Len(t, answer.Citations, 1)
	require.Len(t, queries.recorded, 1)
	assert.Equal(t, "How?", queries.recorded[0].QuestionText)
	assert.Equal(t, "test-model", queries.recorded[0].ModelUsed)
}

func TestAsk_EmptyWorkspaceAnswersConversationally(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubIndex{}, &stubChunks{}, &stubGenerator{text: "General answer."}, &stubDocs{}, &stubQueries{})

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-empty", Question: "Anything?"})

	assert.False(t, answer.Grounded)
	assert.False(t, answer.Degraded)
	assert.Empty(t, answer.Citations)
}

func TestAsk_RetrievalFailureSoftensToDegradedPayload(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedding provider down")}
	svc := newTestService(t, embedder, &stubIndex{}, &stubChunks{}, &stubGenerator{text: "unused"}, &stubDocs{}, &stubQueries{})

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-1", Question: "How?"})

	assert.True(t, answer.Degraded)
	assert.NotEmpty(t, answer.Text)
	assert.NotEmpty(t, answer.Err)
	assert.Empty(t, answer.Citations)
}

func TestAsk_GenerationFailureSoftensToDegradedPayload(t *testing.T) {
	chunks := &stubChunks{retrieved: []schema.RetrievedChunk{
		{ChunkID: "c-1", DocumentTitle: "Handbook", Text: "Leave accrues monthly."},
	}}
	index := &stubIndex{hits: []schema.ChunkHit{{ChunkID: "c-1", Score: 0.9}}}
	svc := newTestService(t, &stubEmbedder{}, index, chunks, &stubGenerator{err: errors.New("provider timeout")}, &stubDocs{}, &stubQueries{})

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-1", Question: "How?"})

	assert.True(t, answer.Degraded)
	assert.NotEmpty(t, answer.Err)
}

func TestAsk_QueryRecordFailureDoesNotBlockAnswer(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubIndex{}, &stubChunks{}, &stubGenerator{text: "Still answered."}, &stubDocs{}, &stubQueries{err: errors.New("mysql down")})

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-1", Question: "How?"})
	assert.Equal(t, "Still answered.", answer.Text)
}

func TestAsk_ModeOverride(t *testing.T) {
	chunks := &stubChunks{retrieved: []schema.RetrievedChunk{
		{ChunkID: "c-1", DocumentTitle: "Handbook", Text: "Leave accrues monthly."},
	}}
	index := &stubIndex{hits: []schema.ChunkHit{{ChunkID: "c-1", Score: 0.9}}}
	svc := newTestService(t, &stubEmbedder{}, index, chunks, &stubGenerator{text: "Answer."}, &stubDocs{}, &stubQueries{})

	answer := svc.Ask(context.Background(), AskRequest{WorkspaceID: "ws-1", Question: "How?", Mode: "conversational"})
	assert.False(t, answer.Grounded, "explicit conversational mode overrides grounding")
	assert.Empty(t, answer.Citations)
}

func TestProcessAll_CountsSkipsAcrossPool(t *testing.T) {
	docs := &stubDocs{byWS: map[string][]models.Document{
		"ws-1": {
			{ID: "d-1", WorkspaceID: "ws-1", Status: models.StatusUploading},
			{ID: "d-2", WorkspaceID: "ws-1", Status: models.StatusFailed},
			{ID: "d-3", WorkspaceID: "ws-1", Status: models.StatusUploading},
		},
	}}
	svc := newTestService(t, &stubEmbedder{}, &stubIndex{}, &stubChunks{}, &stubGenerator{}, docs, &stubQueries{})

	// Every claim is denied, so every document counts as skipped.
	result, err := svc.ProcessAll(context.Background(), "ws-1", false)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Skipped)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 3, docs.claims)
}
