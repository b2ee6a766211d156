package services

import (
	"context"
	"fmt"
	"log"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/models"
)

// RAGService is the top-level pipeline: ingestion (chunk, embed, store) and
// retrieval-augmented chat with graceful degradation.
type RAGService interface {
	Initialize(ctx context.Context) bool
	AddDocuments(ctx context.Context, documents []models.Document) bool
	ChatWithContext(ctx context.Context, userMessage string, history []models.ChatTurn) *models.RAGResponse
	SimpleCompletion(ctx context.Context, userMessage string) (string, error)
	GetStats(ctx context.Context) *models.StatsResponse
	ClearKnowledgeBase(ctx context.Context) bool
	DeleteDocument(ctx context.Context, documentID string) bool
}

// ragServiceImpl holds the dependencies it needs to do its job.
type ragServiceImpl struct {
	cfg       *config.Config
	chunker   *Chunker
	store     KnowledgeStore
	retriever DocumentRetriever
	assembler *ContextAssembler
	generator GenerationProvider
}

// NewRAGService creates the orchestrator. All dependencies are injected from
// main so request handlers share one instance.
func NewRAGService(cfg *config.Config, chunker *Chunker, store KnowledgeStore, retriever DocumentRetriever, assembler *ContextAssembler, generator GenerationProvider) RAGService {
	return &ragServiceImpl{
		cfg:       cfg,
		chunker:   chunker,
		store:     store,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
	}
}

// Initialize prepares the vector index. A false return leaves the service in
// fallback mode rather than aborting startup.
func (r *ragServiceImpl) Initialize(ctx context.Context) bool {
	if !r.store.EnsureIndex(ctx) {
		log.Println("SERVICE: Failed to initialize vector index")
		return false
	}
	log.Println("SERVICE: RAG service initialized successfully")
	return true
}

// AddDocuments chunks every document and stores all chunks in one batched
// upsert. All-or-nothing: a failed upsert reports the whole set as failed.
func (r *ragServiceImpl) AddDocuments(ctx context.Context, documents []models.Document) bool {
	var chunks []models.Chunk
	for _, doc := range documents {
		chunks = append(chunks, r.chunker.Split(doc.Text, doc.ID, doc.Metadata)...)
	}
	if len(chunks) == 0 {
		log.Println("SERVICE: No chunks produced, nothing to ingest")
		return true
	}

	if !r.store.Upsert(ctx, chunks) {
		log.Println("SERVICE: Failed to add documents")
		return false
	}
	log.Printf("SERVICE: Added %d documents (%d chunks)", len(documents), len(chunks))
	return true
}

// ChatWithContext runs the retrieval-augmented chat pipeline. It never
// returns an error: any internal failure produces a degraded response with
// an apologetic message and the failure description in Error.
func (r *ragServiceImpl) ChatWithContext(ctx context.Context, userMessage string, history []models.ChatTurn) *models.RAGResponse {
	fragments, err := r.retriever.Search(ctx, userMessage)
	if err != nil {
		return r.degradedResponse(err)
	}

	contextBlock := r.assembler.BuildContext(fragments)
	messages := r.assembler.BuildMessages(userMessage, contextBlock, history)

	answer, err := r.generator.Complete(ctx, messages)
	if err != nil {
		return r.degradedResponse(err)
	}

	sources := make([]models.Source, 0, len(fragments))
	for _, frag := range fragments {
		sources = append(sources, models.Source{ID: frag.ID, Score: frag.Score, Metadata: frag.Metadata})
	}

	return &models.RAGResponse{
		Response:    answer,
		ModelUsed:   r.cfg.ChatModel,
		SourcesUsed: len(fragments),
		Sources:     sources,
	}
}

func (r *ragServiceImpl) degradedResponse(err error) *models.RAGResponse {
	log.Printf("SERVICE: RAG chat failed: %v", err)
	return &models.RAGResponse{
		Response:    ApologyMessage,
		ModelUsed:   r.cfg.ChatModel,
		SourcesUsed: 0,
		Sources:     []models.Source{},
		Error:       fmt.Sprintf("RAG chat failed: %v", err),
	}
}

// SimpleCompletion is the plain, non-RAG completion path: a single system and
// user turn with no retrieved context. The HTTP layer uses it for
// total-failure degradation.
func (r *ragServiceImpl) SimpleCompletion(ctx context.Context, userMessage string) (string, error) {
	messages := []models.ChatTurn{
		{Role: models.RoleSystem, Content: FallbackSystemPrompt},
		{Role: models.RoleUser, Content: userMessage},
	}
	answer, err := r.generator.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("fallback completion failed: %w", err)
	}
	return answer, nil
}

// GetStats reports knowledge-base statistics. Total documents counts stored
// vectors, which is chunks, not source documents.
func (r *ragServiceImpl) GetStats(ctx context.Context) *models.StatsResponse {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		log.Printf("SERVICE: Failed to get knowledge base stats: %v", err)
		return &models.StatsResponse{Error: err.Error()}
	}

	return &models.StatsResponse{
		TotalDocuments: stats.TotalVectors,
		IndexDimension: stats.Dimension,
		IndexFullness:  stats.IndexFullness,
		EmbeddingModel: r.cfg.EmbeddingModel,
		ChatModel:      r.cfg.ChatModel,
		RAGSettings: models.RAGSettings{
			TopK:         r.cfg.TopK,
			MinScore:     r.cfg.MinScore,
			ChunkSize:    r.cfg.ChunkSize,
			ChunkOverlap: r.cfg.ChunkOverlap,
		},
	}
}

// ClearKnowledgeBase removes every document from the knowledge base.
func (r *ragServiceImpl) ClearKnowledgeBase(ctx context.Context) bool {
	if !r.store.Clear(ctx) {
		return false
	}
	log.Println("SERVICE: Knowledge base cleared")
	return true
}

// DeleteDocument removes a document and all of its chunks.
func (r *ragServiceImpl) DeleteDocument(ctx context.Context, documentID string) bool {
	return r.store.DeleteDocument(ctx, documentID)
}
