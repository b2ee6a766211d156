package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devfolio/portfolio-rag/models"
	"github.com/devfolio/portfolio-rag/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on the
// RAGService to perform the actual business logic.
type RAGController struct {
	ragService services.RAGService
}

// NewRAGController is called from main.go to inject the service dependency.
func NewRAGController(service services.RAGService) *RAGController {
	return &RAGController{
		ragService: service,
	}
}

// Chat is the Gin handler for POST /api/v1/chat. The service never errors:
// retrieval or generation failures surface as a degraded response. When the
// full pipeline degrades, we try one plain completion without retrieved
// context before giving up and returning the apology.
func (c *RAGController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response := c.ragService.ChatWithContext(ctx.Request.Context(), req.Message, req.ChatHistory)
	if response.Error != "" {
		if answer, err := c.ragService.SimpleCompletion(ctx.Request.Context(), req.Message); err == nil {
			response = &models.RAGResponse{
				Response:    answer,
				ModelUsed:   response.ModelUsed,
				SourcesUsed: 0,
				Sources:     []models.Source{},
			}
		}
	}

	ctx.JSON(http.StatusOK, response)
}

// IngestDocuments is the Gin handler for POST /api/v1/documents.
func (c *RAGController) IngestDocuments(ctx *gin.Context) {
	var req models.IngestDocumentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if !c.ragService.AddDocuments(ctx.Request.Context(), req.Documents) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest documents"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Documents ingested successfully",
		"documents": len(req.Documents),
	})
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:id. It
// removes the document and every chunk derived from it.
func (c *RAGController) DeleteDocument(ctx *gin.Context) {
	documentID := ctx.Param("id")
	if documentID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Document id is required"})
		return
	}

	if !c.ragService.DeleteDocument(ctx.Request.Context(), documentID) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// GetStats is the Gin handler for GET /api/v1/knowledge-base/stats. Stats
// always return 200; an unreachable index is reported in the error field.
func (c *RAGController) GetStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.ragService.GetStats(ctx.Request.Context()))
}

// ClearKnowledgeBase is the Gin handler for POST /api/v1/knowledge-base/clear.
func (c *RAGController) ClearKnowledgeBase(ctx *gin.Context) {
	if !c.ragService.ClearKnowledgeBase(ctx.Request.Context()) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear knowledge base"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Knowledge base cleared successfully"})
}
