package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docqa/internal/models"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/pipeline"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

const defaultWorkers = 4

// Service is the application facade over the ingestion and query pipelines.
type Service struct {
	coordinator *pipeline.Coordinator
	retriever   *pipeline.Retriever
	answerer    *pipeline.AnswerGenerator
	docs        interfaces.DocumentStore
	queries     interfaces.QueryStore
	pool        *ants.Pool
	modelUsed   string // generation model name recorded on query records
	log         *logger.Logger
}

// New creates the Service with a bounded worker pool for batch processing.
func New(
	coordinator *pipeline.Coordinator,
	retriever *pipeline.Retriever,
	answerer *pipeline.AnswerGenerator,
	docs interfaces.DocumentStore,
	queries interfaces.QueryStore,
	workers int,
	modelUsed string,
	log *logger.Logger,
) (*Service, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("cannot create worker pool: %w", err)
	}
	return &Service{
		coordinator: coordinator,
		retriever:   retriever,
		answerer:    answerer,
		docs:        docs,
		queries:     queries,
		pool:        pool,
		modelUsed:   modelUsed,
		log:         log,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Document returns the document record for status polling.
func (s *Service) Document(ctx context.Context, id string) (*models.Document, error) {
	return s.docs.Get(ctx, id)
}

// Process runs ingestion for one document.
func (s *Service) Process(ctx context.Context, documentID string, force bool) (*pipeline.Result, error) {
	return s.coordinator.Process(ctx, documentID, force)
}

// BatchResult summarizes a batch processing run.
type BatchResult struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ProcessAll runs ingestion for every unprocessed document of a workspace
// (or for all of them under force) over the bounded worker pool. Per-document
// chunk ordering is untouched: concurrency exists only across documents.
func (s *Service) ProcessAll(ctx context.Context, workspaceID string, force bool) (*BatchResult, error) {
	statuses := []models.DocumentStatus{models.StatusUploading, models.StatusFailed}
	if force {
		statuses = nil
	}
	docs, err := s.docs.ListByWorkspace(ctx, workspaceID, statuses)
	if err != nil {
		return nil, fmt.Errorf("cannot list workspace documents: %w", err)
	}

	result := &BatchResult{Total: len(docs)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			res, perr := s.coordinator.Process(ctx, doc.ID, force)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case perr != nil:
				s.log.Error(fmt.Sprintf("Batch processing of document %s errored: %v", doc.ID, perr))
				result.Failed++
			case res.Skipped:
				result.Skipped++
			case res.Status == models.StatusFailed:
				result.Failed++
			default:
				result.Processed++
			}
		}); err != nil {
			wg.Done()
			mu.Lock()
			result.Failed++
			mu.Unlock()
		}
	}

	wg.Wait()
	return result, nil
}

// AskRequest carries one question.
type AskRequest struct {
	WorkspaceID string
	UserID      string
	Question    string
	Mode        string // "", "grounded" or "conversational"
}

// Ask answers a question. It never returns a hard error: retrieval and
// generation failures soften into a degraded answer payload with empty
// citations and an internal error indicator.
func (s *Service) Ask(ctx context.Context, req AskRequest) *schema.Answer {
	s.recordQuery(ctx, req)

	retrieval, err := s.retriever.Retrieve(ctx, req.WorkspaceID, req.Question)
	if err != nil {
		s.log.Error(fmt.Sprintf("Retrieval failed for workspace %s: %v", req.WorkspaceID, err))
		return &schema.Answer{
			Text:      "I couldn't search your documents right now. Please try again in a moment.",
			Citations: []schema.Citation{},
			Degraded:  true,
			Err:       err.Error(),
		}
	}

	grounded := len(retrieval.Chunks) > 0
	switch req.Mode {
	case "grounded":
		grounded = true
	case "conversational":
		grounded = false
	}

	answer, err := s.answerer.Answer(ctx, req.Question, retrieval.Chunks, grounded)
	if err != nil {
		s.log.Error(fmt.Sprintf("Generation failed for workspace %s: %v", req.WorkspaceID, err))
		return &schema.Answer{
			Text:      "I couldn't generate an answer right now. Please try again in a moment.",
			Citations: []schema.Citation{},
			Degraded:  true,
			Err:       err.Error(),
		}
	}

	if retrieval.Degraded {
		answer.Degraded = true
	}
	return answer
}

// recordQuery writes the query record, best effort; a question is recorded
// whether or not retrieval succeeds.
func (s *Service) recordQuery(ctx context.Context, req AskRequest) {
	q := &models.Query{
		ID:           uuid.New().String(),
		WorkspaceID:  req.WorkspaceID,
		UserID:       req.UserID,
		QuestionText: req.Question,
		ModelUsed:    s.modelUsed,
		CreatedAt:    time.Now(),
	}
	if err := s.queries.Record(ctx, q); err != nil {
		s.log.Warn(fmt.Sprintf("cannot record query: %v", err))
	}
}
