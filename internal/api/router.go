package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP routes.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("/:id/process", h.processDocument)
			documents.POST("/process-all", h.processAll)
			documents.GET("/:id", h.getDocument)
		}
		v1.POST("/ask", h.ask)
	}

	return r
}
