package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/controller"
	"github.com/devfolio/portfolio-rag/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	services.InitPDFExtractor()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder, generator, err := services.BuildProviders(ctx, cfg, httpClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to create %s provider: %v", cfg.Provider, err)
	}
	log.Printf("Using LLM provider: %s (chat=%s, embeddings=%s)", cfg.Provider, cfg.ChatModel, cfg.EmbeddingModel)

	index, err := services.NewChromaIndex(cfg.ChromaURL, cfg.IndexName, cfg.EmbeddingDimension)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}

	store := services.NewVectorStoreService(embedder, index)
	retriever := services.NewRetriever(store, cfg.TopK, cfg.MinScore)
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	assembler := services.NewContextAssembler()

	ragService := services.NewRAGService(cfg, chunker, store, retriever, assembler, generator)

	// A failed initialization is not fatal: chat degrades to the plain
	// completion path until the index comes back.
	if !ragService.Initialize(ctx) {
		log.Println("WARNING: Vector index unavailable, running in fallback mode.")
	}

	if cfg.WatchDir != "" {
		indexer := services.NewFileIndexingService(ragService)
		go func() {
			indexer.ScanAndIndexDirectory(ctx, cfg.WatchDir)
			indexer.WatchDirectory(ctx, cfg.WatchDir)
		}()
	}

	ragController := controller.NewRAGController(ragService)

	router := gin.Default()
	router.Use(corsMiddleware(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Portfolio RAG API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", ragController.Chat)
		apiV1.POST("/documents", ragController.IngestDocuments)
		apiV1.DELETE("/documents/:id", ragController.DeleteDocument)
		apiV1.GET("/knowledge-base/stats", ragController.GetStats)
		apiV1.POST("/knowledge-base/clear", ragController.ClearKnowledgeBase)
	}

	log.Printf("Portfolio RAG backend starting on http://localhost:%s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// corsMiddleware allows the configured frontend origins. An origin not on the
// list gets no CORS headers, which makes the browser block the response.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowedSet := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		allowedSet[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowedSet[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
