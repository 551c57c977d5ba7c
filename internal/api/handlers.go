package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docqa/internal/service"
	"docqa/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthFunc reports the readiness of the backing dependencies.
type HealthFunc func(ctx context.Context) map[string]string

// Handler exposes the HTTP surface of the document QA service.
type Handler struct {
	svc    *service.Service
	health HealthFunc
	log    *logger.Logger
}

func NewHandler(svc *service.Service, health HealthFunc, log *logger.Logger) *Handler {
	return &Handler{svc: svc, health: health, log: log}
}

// processDocument triggers ingestion for a single document.
// POST /api/v1/documents/:id/process?force=true
func (h *Handler) processDocument(c *gin.Context) {
	id := c.Param("id")
	force := strings.EqualFold(c.Query("force"), "true")

	result, err := h.svc.Process(c.Request.Context(), id, force)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		h.log.Error(fmt.Sprintf("Processing document %s failed: %v", id, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documentId": id,
		"status":     result.Status,
		"skipped":    result.Skipped,
		"chunks":     result.Succeeded,
		"failed":     result.Failed,
	})
}

type processAllRequest struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	Force       bool   `json:"force"`
}

// processAll triggers ingestion for every pending document of a workspace.
// POST /api/v1/documents/process-all
func (h *Handler) processAll(c *gin.Context) {
	var req processAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspaceId is required"})
		return
	}

	result, err := h.svc.ProcessAll(c.Request.Context(), req.WorkspaceID, req.Force)
	if err != nil {
		h.log.Error(fmt.Sprintf("Batch processing for workspace %s failed: %v", req.WorkspaceID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch processing failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getDocument returns the document status record for polling.
// GET /api/v1/documents/:id
func (h *Handler) getDocument(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.svc.Document(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		h.log.Error(fmt.Sprintf("Loading document %s failed: %v", id, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	resp := gin.H{
		"id":          doc.ID,
		"title":       doc.Title,
		"workspaceId": doc.WorkspaceID,
		"status":      doc.Status,
		"pageCount":   doc.PageCount,
		"createdAt":   doc.CreatedAt,
		"updatedAt":   doc.UpdatedAt,
	}
	if doc.Error != nil {
		resp["error"] = *doc.Error
	}
	c.JSON(http.StatusOK, resp)
}

type askRequest struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	UserID      string `json:"userId"`
	Question    string `json:"question" binding:"required"`
	Mode        string `json:"mode"`
}

// ask answers a question over the workspace documents. The endpoint always
// answers 200 once the request parses: backend failures arrive as a degraded
// answer payload, never as a transport error.
// POST /api/v1/ask
func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspaceId and question are required"})
		return
	}
	switch req.Mode {
	case "", "grounded", "conversational":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be grounded or conversational"})
		return
	}

	answer := h.svc.Ask(c.Request.Context(), service.AskRequest{
		WorkspaceID: req.WorkspaceID,
		UserID:      req.UserID,
		Question:    req.Question,
		Mode:        req.Mode,
	})
	c.JSON(http.StatusOK, answer)
}

// healthz reports per-dependency health.
// GET /healthz
func (h *Handler) healthz(c *gin.Context) {
	checks := h.health(c.Request.Context())
	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(status, gin.H{"checks": checks})
}
